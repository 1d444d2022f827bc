package creditbureau

import (
	"context"
	"errors"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/rs/zerolog"
)

// HistoryFetcher is satisfied by *Client.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, userID string) ([]domain.CreditScoreRecord, error)
}

// Source serves credit history from the bureau and everything else from the
// wrapped DataSource. Users the bureau does not know fall back to stored history.
type Source struct {
	insights.DataSource
	bureau HistoryFetcher
	log    zerolog.Logger
}

var _ insights.DataSource = (*Source)(nil)

// NewSource wraps base so credit history comes from bureau.
func NewSource(base insights.DataSource, bureau HistoryFetcher, log zerolog.Logger) *Source {
	return &Source{DataSource: base, bureau: bureau, log: log}
}

// GetCreditScoreHistory implements insights.DataSource.
func (s *Source) GetCreditScoreHistory(ctx context.Context, userID string) ([]domain.CreditScoreRecord, error) {
	history, err := s.bureau.FetchHistory(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		s.log.Debug().Str("user_id", userID).Msg("No bureau history, using stored credit scores")
		return s.DataSource.GetCreditScoreHistory(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	return history, nil
}
