// Package progress derives budget and goal progress from raw ledger data.
package progress

import (
	"fmt"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BudgetProgress sums expenses in the budget's category and date range.
// Income and other categories are ignored. The result is not clamped: an
// overspent budget reports a negative Remaining and PercentageUsed above 100.
func BudgetProgress(budget domain.Budget, txs []domain.Transaction) (domain.BudgetProgress, error) {
	if !budget.Amount.IsPositive() {
		return domain.BudgetProgress{}, domain.NewInvalidInputError("amount",
			fmt.Sprintf("budget %s amount must be positive, got %s", budget.ID, budget.Amount))
	}

	window := budget.Range()
	spent := decimal.Zero
	for _, tx := range txs {
		if !tx.IsExpense() || tx.CategoryID != budget.CategoryID {
			continue
		}
		if !window.Contains(tx.Date) {
			continue
		}
		spent = spent.Add(tx.Amount.Abs())
	}

	return domain.BudgetProgress{
		Spent:          spent,
		Remaining:      budget.Amount.Sub(spent),
		PercentageUsed: spent.Div(budget.Amount).Mul(hundred).InexactFloat64(),
	}, nil
}

// GoalProgress returns current/target as a percentage clamped to [0, 100].
func GoalProgress(goal *domain.Goal) (float64, error) {
	if goal == nil {
		return 0, domain.NewNotFoundError("goal", "")
	}
	if !goal.TargetAmount.IsPositive() {
		return 0, domain.NewInvalidInputError("targetAmount",
			fmt.Sprintf("goal %s target must be positive, got %s", goal.ID, goal.TargetAmount))
	}

	pct := goal.CurrentAmount.Div(goal.TargetAmount).Mul(hundred).InexactFloat64()
	return clampPercent(pct), nil
}

// ExpectedGoalProgress is the share of the goal's timeline already elapsed at
// now, as a percentage. Progress is assumed linear from CreatedAt to TargetDate.
// A goal without a CreatedAt has no timeline and is expected to be wherever it
// currently is.
func ExpectedGoalProgress(goal domain.Goal, now time.Time) float64 {
	if goal.CreatedAt.IsZero() {
		pct, err := GoalProgress(&goal)
		if err != nil {
			return 0
		}
		return pct
	}

	total := goal.TargetDate.Sub(goal.CreatedAt)
	if total <= 0 {
		if now.Before(goal.TargetDate) {
			return 0
		}
		return 100
	}

	elapsed := now.Sub(goal.CreatedAt)
	return clampPercent(float64(elapsed) / float64(total) * 100)
}

// EvaluateGoal combines actual and expected progress for goal at now.
func EvaluateGoal(goal *domain.Goal, now time.Time) (domain.GoalProgress, error) {
	pct, err := GoalProgress(goal)
	if err != nil {
		return domain.GoalProgress{}, err
	}
	return domain.GoalProgress{
		GoalID:   goal.ID,
		Progress: pct,
		Expected: ExpectedGoalProgress(*goal, now),
	}, nil
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
