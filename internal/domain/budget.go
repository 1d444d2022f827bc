package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BudgetPeriod is the recurrence of a budget.
type BudgetPeriod string

const (
	BudgetPeriodDaily     BudgetPeriod = "daily"
	BudgetPeriodWeekly    BudgetPeriod = "weekly"
	BudgetPeriodBiweekly  BudgetPeriod = "biweekly"
	BudgetPeriodMonthly   BudgetPeriod = "monthly"
	BudgetPeriodQuarterly BudgetPeriod = "quarterly"
	BudgetPeriodYearly    BudgetPeriod = "yearly"
)

// Valid reports whether p is one of the known periods.
func (p BudgetPeriod) Valid() bool {
	switch p {
	case BudgetPeriodDaily, BudgetPeriodWeekly, BudgetPeriodBiweekly,
		BudgetPeriodMonthly, BudgetPeriodQuarterly, BudgetPeriodYearly:
		return true
	}
	return false
}

// Budget is a spending limit for one category over a date range.
// Progress is always derived from transactions and never stored.
type Budget struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	CategoryID string          `json:"categoryId"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Period     BudgetPeriod    `json:"period"`
	StartDate  time.Time       `json:"startDate"`
	EndDate    time.Time       `json:"endDate"`
}

// Range returns the inclusive date range the budget covers.
func (b Budget) Range() DateRange {
	return DateRange{Start: b.StartDate, End: b.EndDate}
}

// Validate checks the structural invariants of a budget.
func (b Budget) Validate() error {
	if !b.Amount.IsPositive() {
		return NewInvalidInputError("amount", fmt.Sprintf("budget %s amount must be positive, got %s", b.ID, b.Amount))
	}
	if !b.StartDate.Before(b.EndDate) {
		return NewInvalidInputError("startDate", fmt.Sprintf("budget %s start date must be before end date", b.ID))
	}
	if b.Period != "" && !b.Period.Valid() {
		return NewInvalidInputError("period", fmt.Sprintf("budget %s has unknown period %q", b.ID, b.Period))
	}
	return nil
}

// BudgetProgress is the derived state of a budget.
// Remaining may be negative and PercentageUsed may exceed 100 when overspent.
type BudgetProgress struct {
	Spent          decimal.Decimal `json:"spent"`
	Remaining      decimal.Decimal `json:"remaining"`
	PercentageUsed float64         `json:"percentageUsed"`
}
