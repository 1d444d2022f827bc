package bigquery

import (
	"context"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-insights/internal/domain"
)

// QueryTransactionsWithClient returns the user's transactions dated inside r, oldest first.
func QueryTransactionsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string, r domain.DateRange) ([]domain.Transaction, error) {
	q := client.Query(`
		SELECT
			transaction_id,
			user_id,
			account_id,
			category_id,
			transaction_date,
			amount,
			raw_description
		FROM ` + ds.table(transactionsTable) + `
		WHERE user_id = @user_id
		  AND transaction_date >= @start_date
		  AND transaction_date <= @end_date
		ORDER BY transaction_date, transaction_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "start_date", Value: r.Start.Format(dateFormat)},
		{Name: "end_date", Value: r.End.Format(dateFormat)},
	}

	rows, err := readRows[TransactionRow](ctx, q, "QueryTransactions")
	if err != nil {
		return nil, err
	}

	out := make([]domain.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}
