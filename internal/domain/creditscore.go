package domain

import (
	"fmt"
	"time"
)

const (
	MinCreditScore = 300
	MaxCreditScore = 850
)

// CreditScoreRecord is one observation of a user's credit score.
type CreditScoreRecord struct {
	Score    int       `json:"score"`
	Date     time.Time `json:"date"`
	Provider string    `json:"provider"`
}

// Validate rejects scores outside the FICO range and observations dated after now.
func (r CreditScoreRecord) Validate(now time.Time) error {
	if r.Score < MinCreditScore || r.Score > MaxCreditScore {
		return NewInvalidInputError("score", fmt.Sprintf("credit score %d outside %d-%d", r.Score, MinCreditScore, MaxCreditScore))
	}
	if r.Date.After(now) {
		return NewInvalidInputError("date", "credit score date is in the future")
	}
	return nil
}

// TrendDirection is the sign of a series' net change.
type TrendDirection string

const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
	TrendFlat TrendDirection = "flat"
)

// Trend summarizes a credit score history.
type Trend struct {
	Direction  TrendDirection `json:"direction"`
	Magnitude  float64        `json:"magnitude"`
	Volatility float64        `json:"volatility"`
}
