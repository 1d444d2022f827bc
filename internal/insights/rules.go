package insights

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/performance"
	"github.com/dvloznov/finance-insights/internal/progress"
	"github.com/dvloznov/finance-insights/internal/trend"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// candidate is an insight before identity and timestamps are assigned.
type candidate struct {
	Type        domain.InsightType
	Title       string
	Description string
	Impact      float64
	Data        domain.InsightData
}

// budgetRule flags budgets whose usage exceeds the alert threshold.
// Budgets that ended before the transaction window are skipped because
// their spend cannot be reconstructed from the fetched transactions.
func budgetRule(log zerolog.Logger, budgets []domain.Budget, txs []domain.Transaction, window domain.DateRange, opts Options) []candidate {
	var out []candidate
	for _, b := range budgets {
		if b.EndDate.Before(window.Start) {
			log.Debug().Str("budget_id", b.ID).Msg("Skipping budget outside transaction window")
			continue
		}

		p, err := progress.BudgetProgress(b, txs)
		if err != nil {
			log.Warn().Err(err).Str("budget_id", b.ID).Msg("Skipping invalid budget")
			continue
		}
		if p.PercentageUsed <= opts.BudgetAlertPercent {
			continue
		}

		name := displayName(b.Name, b.CategoryID)
		title := fmt.Sprintf("%s budget almost spent", name)
		if p.PercentageUsed >= 100 {
			title = fmt.Sprintf("%s budget exceeded", name)
		}

		out = append(out, candidate{
			Type:  domain.InsightBudget,
			Title: title,
			Description: fmt.Sprintf("You have used %.0f%% of your %s budget (%s of %s, %s remaining).",
				p.PercentageUsed, name, p.Spent.StringFixed(2), b.Amount.StringFixed(2), p.Remaining.StringFixed(2)),
			Impact: domain.ClampImpact(p.PercentageUsed),
			Data: &domain.BudgetInsightData{
				BudgetID:       b.ID,
				CategoryID:     b.CategoryID,
				PercentageUsed: p.PercentageUsed,
				Spent:          p.Spent,
				Remaining:      p.Remaining,
			},
		})
	}
	return out
}

// goalRule flags goals whose progress trails a straight line from creation to target date.
func goalRule(log zerolog.Logger, goals []domain.Goal, now time.Time) []candidate {
	var out []candidate
	for i := range goals {
		g := goals[i]
		gp, err := progress.EvaluateGoal(&g, now)
		if err != nil {
			log.Warn().Err(err).Str("goal_id", g.ID).Msg("Skipping invalid goal")
			continue
		}

		deficit := gp.Deficit()
		if deficit <= 0 {
			continue
		}

		name := displayName(g.Name, g.ID)
		out = append(out, candidate{
			Type:  domain.InsightGoal,
			Title: fmt.Sprintf("%s is behind schedule", name),
			Description: fmt.Sprintf("You are %.0f%% of the way to %s but should be at %.0f%% to reach it by %s.",
				gp.Progress, name, gp.Expected, g.TargetDate.Format("2006-01-02")),
			Impact: domain.ClampImpact(deficit),
			Data: &domain.GoalInsightData{
				GoalID:   g.ID,
				Progress: gp.Progress,
				Expected: gp.Expected,
				Deficit:  deficit,
			},
		})
	}
	return out
}

// investmentRule flags a portfolio with a negative annualized return.
func investmentRule(log zerolog.Logger, holdings []domain.InvestmentHolding, now time.Time) []candidate {
	if len(holdings) == 0 {
		return nil
	}

	perf, err := performance.Analyze(holdings, now)
	if err != nil {
		log.Warn().Err(err).Int("holdings", len(holdings)).Msg("Skipping portfolio analysis")
		return nil
	}
	if perf.AnnualizedReturn >= 0 {
		return nil
	}

	return []candidate{{
		Type:  domain.InsightInvestment,
		Title: "Portfolio is losing value",
		Description: fmt.Sprintf("Your portfolio is down %.1f%% overall, an annualized return of %.1f%%.",
			math.Abs(perf.ROI)*100, perf.AnnualizedReturn*100),
		Impact: domain.ClampImpact(math.Abs(perf.AnnualizedReturn) * 100),
		Data: &domain.InvestmentInsightData{
			ROI:              perf.ROI,
			AnnualizedReturn: perf.AnnualizedReturn,
			HoldingCount:     len(holdings),
		},
	}}
}

// validCreditHistory drops records with an out-of-range score or a date after now.
func validCreditHistory(log zerolog.Logger, history []domain.CreditScoreRecord, now time.Time) []domain.CreditScoreRecord {
	valid := make([]domain.CreditScoreRecord, 0, len(history))
	for _, r := range history {
		if err := r.Validate(now); err != nil {
			log.Warn().Err(err).Str("provider", r.Provider).Msg("Ignoring credit score record")
			continue
		}
		valid = append(valid, r)
	}
	return valid
}

// creditRule flags a credit score that fell by at least the drop threshold.
func creditRule(log zerolog.Logger, history []domain.CreditScoreRecord, now time.Time, opts Options) []candidate {
	valid := validCreditHistory(log, history, now)

	t := trend.Analyze(valid)
	if t.Direction != domain.TrendDown || t.Magnitude < opts.CreditDropThreshold {
		return nil
	}

	latest, _ := trend.Latest(valid)
	return []candidate{{
		Type:        domain.InsightCreditScore,
		Title:       "Credit score dropped",
		Description: fmt.Sprintf("Your credit score fell %.0f points to %d.", t.Magnitude, latest.Score),
		Impact:      domain.ClampImpact(t.Magnitude),
		Data: &domain.CreditScoreInsightData{
			Direction:   t.Direction,
			Magnitude:   t.Magnitude,
			Volatility:  t.Volatility,
			LatestScore: latest.Score,
		},
	}}
}

// spendingRule compares each category's spend in the current window with its
// average over the preceding baseline, normalized to the current window length.
func spendingRule(txs []domain.Transaction, now time.Time, opts Options) []candidate {
	currentStart := now.AddDate(0, 0, -opts.SpendingWindowDays)
	baselineStart := now.AddDate(0, 0, -opts.TransactionWindowDays)
	baselineWindows := decimal.NewFromInt(int64(opts.TransactionWindowDays - opts.SpendingWindowDays)).
		Div(decimal.NewFromInt(int64(opts.SpendingWindowDays)))

	current := map[string]decimal.Decimal{}
	prior := map[string]decimal.Decimal{}
	for _, tx := range txs {
		if !tx.IsExpense() || tx.CategoryID == "" || tx.Date.After(now) {
			continue
		}
		switch {
		case !tx.Date.Before(currentStart):
			current[tx.CategoryID] = current[tx.CategoryID].Add(tx.Amount.Abs())
		case !tx.Date.Before(baselineStart):
			prior[tx.CategoryID] = prior[tx.CategoryID].Add(tx.Amount.Abs())
		}
	}

	categories := make([]string, 0, len(current))
	for c := range current {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	ratio := decimal.NewFromFloat(opts.SpendingIncreaseRatio)
	var out []candidate
	for _, c := range categories {
		baseline := prior[c].Div(baselineWindows)
		if !baseline.IsPositive() {
			continue
		}
		spent := current[c]
		if !spent.GreaterThan(baseline.Mul(ratio)) {
			continue
		}

		increase := spent.Div(baseline).Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100)).InexactFloat64()
		out = append(out, candidate{
			Type:  domain.InsightSpending,
			Title: fmt.Sprintf("Spending up in %s", c),
			Description: fmt.Sprintf("You spent %s on %s in the last %d days, %.0f%% more than your usual %s.",
				spent.StringFixed(2), c, opts.SpendingWindowDays, increase, baseline.StringFixed(2)),
			Impact: domain.ClampImpact(increase),
			Data: &domain.SpendingInsightData{
				CategoryID:      c,
				CurrentSpend:    spent,
				BaselineSpend:   baseline,
				IncreasePercent: increase,
			},
		})
	}
	return out
}

// savingRule flags a current window in which expenses exceeded income.
func savingRule(txs []domain.Transaction, now time.Time, opts Options) []candidate {
	window := domain.DateRange{Start: now.AddDate(0, 0, -opts.SpendingWindowDays), End: now}

	income := decimal.Zero
	expenses := decimal.Zero
	for _, tx := range txs {
		if !window.Contains(tx.Date) {
			continue
		}
		if tx.IsIncome() {
			income = income.Add(tx.Amount)
		} else if tx.IsExpense() {
			expenses = expenses.Add(tx.Amount.Abs())
		}
	}

	if !income.IsPositive() || !expenses.GreaterThan(income) {
		return nil
	}

	overspend := expenses.Sub(income).Div(income).Mul(decimal.NewFromInt(100)).InexactFloat64()
	return []candidate{{
		Type:  domain.InsightSaving,
		Title: "Spending more than you earn",
		Description: fmt.Sprintf("In the last %d days you spent %s against %s of income.",
			opts.SpendingWindowDays, expenses.StringFixed(2), income.StringFixed(2)),
		Impact: domain.ClampImpact(overspend),
		Data: &domain.SavingInsightData{
			Income:           income,
			Expenses:         expenses,
			OverspendPercent: overspend,
		},
	}}
}

func displayName(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
