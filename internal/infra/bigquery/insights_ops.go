package bigquery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/insights"
)

const insightColumns = `
			insight_id,
			user_id,
			insight_type,
			title,
			description,
			impact,
			created_ts,
			expires_ts,
			is_read,
			related_data`

// InsertInsightsWithClient appends insights to finance.insights.
func InsertInsightsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, list []domain.Insight) error {
	if len(list) == 0 {
		return nil
	}

	rows := make([]*InsightRow, 0, len(list))
	for _, in := range list {
		row, err := newInsightRow(in)
		if err != nil {
			return fmt.Errorf("InsertInsights: %w", err)
		}
		rows = append(rows, row)
	}

	inserter := client.DatasetInProject(ds.ProjectID, ds.DatasetID).Table(insightsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertInsights: inserting rows: %w", err)
	}
	return nil
}

// listInsightsSQL builds the filtered listing query and its parameters.
func listInsightsSQL(ds Dataset, userID string, filter insights.Filter) (string, []bigquery.QueryParameter) {
	var b strings.Builder
	b.WriteString("\n\t\tSELECT" + insightColumns + "\n\t\tFROM " + ds.table(insightsTable) + "\n\t\tWHERE user_id = @user_id")
	params := []bigquery.QueryParameter{{Name: "user_id", Value: userID}}

	if filter.Type != "" {
		b.WriteString("\n\t\t  AND insight_type = @insight_type")
		params = append(params, bigquery.QueryParameter{Name: "insight_type", Value: string(filter.Type)})
	}
	if filter.UnreadOnly {
		b.WriteString("\n\t\t  AND is_read = FALSE")
	}
	b.WriteString("\n\t\tORDER BY created_ts DESC, insight_id")
	if filter.Limit > 0 {
		fmt.Fprintf(&b, "\n\t\tLIMIT %d", filter.Limit)
	}
	return b.String(), params
}

// ListInsightsWithClient returns the user's stored insights, newest first.
func ListInsightsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string, filter insights.Filter) ([]domain.Insight, error) {
	sql, params := listInsightsSQL(ds, userID, filter)
	q := client.Query(sql)
	q.Parameters = params

	rows, err := readRows[InsightRow](ctx, q, "ListInsights")
	if err != nil {
		return nil, err
	}

	out := make([]domain.Insight, 0, len(rows))
	for i := range rows {
		in, err := rows[i].toDomain()
		if err != nil {
			return nil, fmt.Errorf("ListInsights: %w", err)
		}
		out = append(out, in)
	}
	return out, nil
}

// GetInsightWithClient returns one insight or a domain.NotFoundError.
func GetInsightWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID, insightID string) (*domain.Insight, error) {
	q := client.Query(`
		SELECT` + insightColumns + `
		FROM ` + ds.table(insightsTable) + `
		WHERE user_id = @user_id
		  AND insight_id = @insight_id
		LIMIT 1
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "insight_id", Value: insightID},
	}

	rows, err := readRows[InsightRow](ctx, q, "GetInsight")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.NewNotFoundError("insight", insightID)
	}

	in, err := rows[0].toDomain()
	if err != nil {
		return nil, fmt.Errorf("GetInsight: %w", err)
	}
	return &in, nil
}

// MarkInsightReadWithClient sets is_read for one insight.
func MarkInsightReadWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID, insightID string) error {
	q := client.Query(`
		UPDATE ` + ds.table(insightsTable) + `
		SET is_read = TRUE
		WHERE user_id = @user_id
		  AND insight_id = @insight_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "insight_id", Value: insightID},
	}

	n, err := runDML(ctx, q, "MarkInsightRead")
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NewNotFoundError("insight", insightID)
	}
	return nil
}

// DeleteInsightWithClient removes one insight.
func DeleteInsightWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID, insightID string) error {
	q := client.Query(`
		DELETE FROM ` + ds.table(insightsTable) + `
		WHERE user_id = @user_id
		  AND insight_id = @insight_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "insight_id", Value: insightID},
	}

	n, err := runDML(ctx, q, "DeleteInsight")
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NewNotFoundError("insight", insightID)
	}
	return nil
}

// DeleteExpiredInsightsWithClient removes every insight whose expiry is at or before now.
func DeleteExpiredInsightsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, now time.Time) (int64, error) {
	q := client.Query(`
		DELETE FROM ` + ds.table(insightsTable) + `
		WHERE expires_ts IS NOT NULL
		  AND expires_ts <= @now
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "now", Value: now},
	}

	return runDML(ctx, q, "DeleteExpiredInsights")
}
