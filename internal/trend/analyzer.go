// Package trend summarizes the direction and stability of a credit score history.
package trend

import (
	"math"
	"sort"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// Analyze orders history by date and compares the earliest and latest scores.
// Volatility is the population standard deviation of the period-over-period
// deltas. The input slice is not modified.
func Analyze(history []domain.CreditScoreRecord) domain.Trend {
	if len(history) <= 1 {
		return domain.Trend{Direction: domain.TrendFlat}
	}

	sorted := make([]domain.CreditScoreRecord, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	first := sorted[0].Score
	last := sorted[len(sorted)-1].Score

	direction := domain.TrendFlat
	switch {
	case last > first:
		direction = domain.TrendUp
	case last < first:
		direction = domain.TrendDown
	}

	deltas := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		deltas = append(deltas, float64(sorted[i].Score-sorted[i-1].Score))
	}

	return domain.Trend{
		Direction:  direction,
		Magnitude:  math.Abs(float64(last - first)),
		Volatility: stddev(deltas),
	}
}

// Latest returns the most recent record in history, or false when it is empty.
func Latest(history []domain.CreditScoreRecord) (domain.CreditScoreRecord, bool) {
	if len(history) == 0 {
		return domain.CreditScoreRecord{}, false
	}
	latest := history[0]
	for _, r := range history[1:] {
		if r.Date.After(latest.Date) {
			latest = r
		}
	}
	return latest, true
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / float64(len(values)))
}
