package bigquery

import (
	"context"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-insights/internal/domain"
)

// ListBudgetsWithClient returns all of the user's budgets.
func ListBudgetsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string) ([]domain.Budget, error) {
	q := client.Query(`
		SELECT
			budget_id,
			user_id,
			category_id,
			name,
			amount,
			period,
			start_date,
			end_date
		FROM ` + ds.table(budgetsTable) + `
		WHERE user_id = @user_id
		ORDER BY start_date, budget_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	rows, err := readRows[BudgetRow](ctx, q, "ListBudgets")
	if err != nil {
		return nil, err
	}

	out := make([]domain.Budget, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// ListGoalsWithClient returns all of the user's savings goals.
func ListGoalsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string) ([]domain.Goal, error) {
	q := client.Query(`
		SELECT
			goal_id,
			user_id,
			name,
			target_amount,
			current_amount,
			target_date,
			created_ts
		FROM ` + ds.table(goalsTable) + `
		WHERE user_id = @user_id
		ORDER BY target_date, goal_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	rows, err := readRows[GoalRow](ctx, q, "ListGoals")
	if err != nil {
		return nil, err
	}

	out := make([]domain.Goal, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// ListHoldingsWithClient returns the user's investment holdings.
func ListHoldingsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string) ([]domain.InvestmentHolding, error) {
	q := client.Query(`
		SELECT
			holding_id,
			user_id,
			symbol,
			quantity,
			purchase_price,
			current_price,
			purchase_date
		FROM ` + ds.table(holdingsTable) + `
		WHERE user_id = @user_id
		ORDER BY purchase_date, holding_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	rows, err := readRows[HoldingRow](ctx, q, "ListHoldings")
	if err != nil {
		return nil, err
	}

	out := make([]domain.InvestmentHolding, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// ListCreditScoresWithClient returns the user's credit score history, oldest first.
func ListCreditScoresWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string) ([]domain.CreditScoreRecord, error) {
	q := client.Query(`
		SELECT
			user_id,
			score,
			score_date,
			provider
		FROM ` + ds.table(creditScoresTable) + `
		WHERE user_id = @user_id
		ORDER BY score_date
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	rows, err := readRows[CreditScoreRow](ctx, q, "ListCreditScores")
	if err != nil {
		return nil, err
	}

	out := make([]domain.CreditScoreRecord, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}
