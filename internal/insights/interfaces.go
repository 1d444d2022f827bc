package insights

import (
	"context"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// DataSource provides read access to a user's financial records.
// Implementations return empty slices, never nil, when a user has no data.
type DataSource interface {
	// GetTransactions returns transactions dated inside r, bounds included.
	GetTransactions(ctx context.Context, userID string, r domain.DateRange) ([]domain.Transaction, error)

	// GetBudgets returns every budget owned by the user.
	GetBudgets(ctx context.Context, userID string) ([]domain.Budget, error)

	// GetGoals returns every savings goal owned by the user.
	GetGoals(ctx context.Context, userID string) ([]domain.Goal, error)

	// GetInvestmentHoldings returns the user's current holdings.
	GetInvestmentHoldings(ctx context.Context, userID string) ([]domain.InvestmentHolding, error)

	// GetCreditScoreHistory returns credit score observations in any order.
	GetCreditScoreHistory(ctx context.Context, userID string) ([]domain.CreditScoreRecord, error)
}

// InsightWriter persists generated insights. Writes append; nothing is deduplicated.
type InsightWriter interface {
	SaveInsights(ctx context.Context, userID string, insights []domain.Insight) error
}

// InsightStore is the full read/write surface over stored insights.
type InsightStore interface {
	InsightWriter

	// ListInsights returns the user's insights, newest first.
	ListInsights(ctx context.Context, userID string, filter Filter) ([]domain.Insight, error)

	// GetInsight returns domain.ErrNotFound when the insight does not belong to the user.
	GetInsight(ctx context.Context, userID, insightID string) (*domain.Insight, error)

	// MarkInsightRead returns domain.ErrNotFound when the insight does not exist.
	MarkInsightRead(ctx context.Context, userID, insightID string) error

	// DeleteInsight returns domain.ErrNotFound when the insight does not exist.
	DeleteInsight(ctx context.Context, userID, insightID string) error

	// DeleteExpiredInsights removes insights whose expiry is at or before now.
	DeleteExpiredInsights(ctx context.Context, now time.Time) (int64, error)
}

// Filter narrows ListInsights.
type Filter struct {
	// Type restricts results to one insight type when set.
	Type domain.InsightType

	// UnreadOnly excludes insights already marked read.
	UnreadOnly bool

	// Limit caps the number of results when positive.
	Limit int
}

// Matches reports whether insight passes the filter, ignoring Limit.
func (f Filter) Matches(insight domain.Insight) bool {
	if f.Type != "" && insight.Type != f.Type {
		return false
	}
	if f.UnreadOnly && insight.IsRead {
		return false
	}
	return true
}

// ErrorReporter forwards failures to an error tracker.
type ErrorReporter interface {
	CaptureError(ctx context.Context, err error, tags map[string]string)
}

// Narrator turns an insight into a short piece of advice for the user.
type Narrator interface {
	Narrate(ctx context.Context, insight domain.Insight) (string, error)
}

type noopReporter struct{}

func (noopReporter) CaptureError(context.Context, error, map[string]string) {}
