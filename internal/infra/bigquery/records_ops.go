package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-insights/internal/domain"
)

// putRows streams rows into table. Empty input is a no-op.
func putRows[T any](ctx context.Context, client *bigquery.Client, ds Dataset, table string, rows []*T) error {
	if len(rows) == 0 {
		return nil
	}
	inserter := client.DatasetInProject(ds.ProjectID, ds.DatasetID).Table(table).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("inserting %d rows into %s: %w", len(rows), table, err)
	}
	return nil
}

// ImportRecordsWithClient streams every record of one user into the finance
// tables. Records with a different UserID are rejected before anything is written.
func ImportRecordsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, rec domain.UserRecords) error {
	if err := checkOwner(rec); err != nil {
		return fmt.Errorf("ImportRecords: %w", err)
	}

	txs := make([]*TransactionRow, 0, len(rec.Transactions))
	for _, t := range rec.Transactions {
		txs = append(txs, newTransactionRow(t))
	}
	budgets := make([]*BudgetRow, 0, len(rec.Budgets))
	for _, b := range rec.Budgets {
		budgets = append(budgets, newBudgetRow(b))
	}
	goals := make([]*GoalRow, 0, len(rec.Goals))
	for _, g := range rec.Goals {
		goals = append(goals, newGoalRow(g))
	}
	holdings := make([]*HoldingRow, 0, len(rec.Holdings))
	for _, h := range rec.Holdings {
		holdings = append(holdings, newHoldingRow(h))
	}
	scores := make([]*CreditScoreRow, 0, len(rec.CreditScores))
	for _, c := range rec.CreditScores {
		scores = append(scores, newCreditScoreRow(rec.UserID, c))
	}

	if err := putRows(ctx, client, ds, transactionsTable, txs); err != nil {
		return fmt.Errorf("ImportRecords: %w", err)
	}
	if err := putRows(ctx, client, ds, budgetsTable, budgets); err != nil {
		return fmt.Errorf("ImportRecords: %w", err)
	}
	if err := putRows(ctx, client, ds, goalsTable, goals); err != nil {
		return fmt.Errorf("ImportRecords: %w", err)
	}
	if err := putRows(ctx, client, ds, holdingsTable, holdings); err != nil {
		return fmt.Errorf("ImportRecords: %w", err)
	}
	if err := putRows(ctx, client, ds, creditScoresTable, scores); err != nil {
		return fmt.Errorf("ImportRecords: %w", err)
	}
	return nil
}

func checkOwner(rec domain.UserRecords) error {
	mismatch := func(kind, id, owner string) error {
		return domain.NewInvalidInputError("userId", fmt.Sprintf("%s %s belongs to %q, not %q", kind, id, owner, rec.UserID))
	}
	for _, t := range rec.Transactions {
		if t.UserID != rec.UserID {
			return mismatch("transaction", t.ID, t.UserID)
		}
	}
	for _, b := range rec.Budgets {
		if b.UserID != rec.UserID {
			return mismatch("budget", b.ID, b.UserID)
		}
	}
	for _, g := range rec.Goals {
		if g.UserID != rec.UserID {
			return mismatch("goal", g.ID, g.UserID)
		}
	}
	for _, h := range rec.Holdings {
		if h.UserID != rec.UserID {
			return mismatch("holding", h.ID, h.UserID)
		}
	}
	return nil
}
