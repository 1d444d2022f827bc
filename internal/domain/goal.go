package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Goal is a savings target the user works toward by TargetDate.
// CreatedAt marks the start of the goal's pace line.
type Goal struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	TargetDate    time.Time       `json:"targetDate"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// GoalProgress pairs actual and expected progress for a goal, both in percent.
type GoalProgress struct {
	GoalID   string  `json:"goalId"`
	Progress float64 `json:"progress"`
	Expected float64 `json:"expected"`
}

// Deficit is how far actual progress trails the expected pace, or 0 when on track.
func (g GoalProgress) Deficit() float64 {
	if g.Expected > g.Progress {
		return g.Expected - g.Progress
	}
	return 0
}
