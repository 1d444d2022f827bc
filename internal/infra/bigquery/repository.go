package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/insights"
)

// Repository reads financial records from and stores insights in BigQuery.
// It holds one shared client for all operations.
type Repository struct {
	client *bigquery.Client
	ds     Dataset
}

var (
	_ insights.DataSource   = (*Repository)(nil)
	_ insights.InsightStore = (*Repository)(nil)
)

// NewRepository creates a Repository with its own BigQuery client.
func NewRepository(ctx context.Context, projectID, datasetID string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return NewRepositoryWithClient(client, Dataset{ProjectID: projectID, DatasetID: datasetID}), nil
}

// NewRepositoryWithClient wraps an existing client.
func NewRepositoryWithClient(client *bigquery.Client, ds Dataset) *Repository {
	return &Repository{client: client, ds: ds}
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *Repository) GetTransactions(ctx context.Context, userID string, window domain.DateRange) ([]domain.Transaction, error) {
	return QueryTransactionsWithClient(ctx, r.client, r.ds, userID, window)
}

func (r *Repository) GetBudgets(ctx context.Context, userID string) ([]domain.Budget, error) {
	return ListBudgetsWithClient(ctx, r.client, r.ds, userID)
}

func (r *Repository) GetGoals(ctx context.Context, userID string) ([]domain.Goal, error) {
	return ListGoalsWithClient(ctx, r.client, r.ds, userID)
}

func (r *Repository) GetInvestmentHoldings(ctx context.Context, userID string) ([]domain.InvestmentHolding, error) {
	return ListHoldingsWithClient(ctx, r.client, r.ds, userID)
}

func (r *Repository) GetCreditScoreHistory(ctx context.Context, userID string) ([]domain.CreditScoreRecord, error) {
	return ListCreditScoresWithClient(ctx, r.client, r.ds, userID)
}

// SaveInsights streams the insights into the insights table.
// Streamed rows cannot be updated or deleted until BigQuery flushes its
// streaming buffer, so MarkInsightRead on a fresh insight may fail for a while.
func (r *Repository) SaveInsights(ctx context.Context, userID string, list []domain.Insight) error {
	for _, in := range list {
		if in.UserID != userID {
			return domain.NewInvalidInputError("userId", fmt.Sprintf("insight %s belongs to %s", in.ID, in.UserID))
		}
	}
	return InsertInsightsWithClient(ctx, r.client, r.ds, list)
}

func (r *Repository) ListInsights(ctx context.Context, userID string, filter insights.Filter) ([]domain.Insight, error) {
	return ListInsightsWithClient(ctx, r.client, r.ds, userID, filter)
}

func (r *Repository) GetInsight(ctx context.Context, userID, insightID string) (*domain.Insight, error) {
	return GetInsightWithClient(ctx, r.client, r.ds, userID, insightID)
}

func (r *Repository) MarkInsightRead(ctx context.Context, userID, insightID string) error {
	return MarkInsightReadWithClient(ctx, r.client, r.ds, userID, insightID)
}

func (r *Repository) DeleteInsight(ctx context.Context, userID, insightID string) error {
	return DeleteInsightWithClient(ctx, r.client, r.ds, userID, insightID)
}

func (r *Repository) DeleteExpiredInsights(ctx context.Context, now time.Time) (int64, error) {
	return DeleteExpiredInsightsWithClient(ctx, r.client, r.ds, now)
}

// ImportRecords loads one user's financial records into the dataset.
func (r *Repository) ImportRecords(ctx context.Context, rec domain.UserRecords) error {
	return ImportRecordsWithClient(ctx, r.client, r.ds, rec)
}
