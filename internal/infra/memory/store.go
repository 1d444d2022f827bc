// Package memory is an in-process implementation of the insight data source
// and insight store. Data is lost on restart; use it for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/insights"
)

// Store keeps every record keyed by user ID and is safe for concurrent use.
// Reads return copies so callers cannot modify stored state.
type Store struct {
	mu           sync.RWMutex
	transactions map[string][]domain.Transaction
	budgets      map[string][]domain.Budget
	goals        map[string][]domain.Goal
	holdings     map[string][]domain.InvestmentHolding
	credit       map[string][]domain.CreditScoreRecord
	insights     map[string][]domain.Insight
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		transactions: make(map[string][]domain.Transaction),
		budgets:      make(map[string][]domain.Budget),
		goals:        make(map[string][]domain.Goal),
		holdings:     make(map[string][]domain.InvestmentHolding),
		credit:       make(map[string][]domain.CreditScoreRecord),
		insights:     make(map[string][]domain.Insight),
	}
}

// AddTransactions appends transactions for a user.
func (s *Store) AddTransactions(userID string, txs ...domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[userID] = append(s.transactions[userID], txs...)
}

// AddBudgets appends budgets for a user.
func (s *Store) AddBudgets(userID string, budgets ...domain.Budget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[userID] = append(s.budgets[userID], budgets...)
}

// AddGoals appends goals for a user.
func (s *Store) AddGoals(userID string, goals ...domain.Goal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[userID] = append(s.goals[userID], goals...)
}

// AddHoldings appends investment holdings for a user.
func (s *Store) AddHoldings(userID string, holdings ...domain.InvestmentHolding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holdings[userID] = append(s.holdings[userID], holdings...)
}

// AddCreditScores appends credit score records for a user.
func (s *Store) AddCreditScores(userID string, records ...domain.CreditScoreRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credit[userID] = append(s.credit[userID], records...)
}

// GetTransactions implements insights.DataSource.
func (s *Store) GetTransactions(ctx context.Context, userID string, r domain.DateRange) ([]domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.Transaction{}
	for _, tx := range s.transactions[userID] {
		if r.Contains(tx.Date) {
			result = append(result, tx)
		}
	}
	return result, nil
}

// GetBudgets implements insights.DataSource.
func (s *Store) GetBudgets(ctx context.Context, userID string) ([]domain.Budget, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Budget{}, s.budgets[userID]...), nil
}

// GetGoals implements insights.DataSource.
func (s *Store) GetGoals(ctx context.Context, userID string) ([]domain.Goal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Goal{}, s.goals[userID]...), nil
}

// GetInvestmentHoldings implements insights.DataSource.
func (s *Store) GetInvestmentHoldings(ctx context.Context, userID string) ([]domain.InvestmentHolding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.InvestmentHolding{}, s.holdings[userID]...), nil
}

// GetCreditScoreHistory implements insights.DataSource.
func (s *Store) GetCreditScoreHistory(ctx context.Context, userID string) ([]domain.CreditScoreRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.CreditScoreRecord{}, s.credit[userID]...), nil
}

// SaveInsights implements insights.InsightWriter. Insights are appended as given.
func (s *Store) SaveInsights(ctx context.Context, userID string, list []domain.Insight) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insights[userID] = append(s.insights[userID], list...)
	return nil
}

// ListInsights implements insights.InsightStore.
func (s *Store) ListInsights(ctx context.Context, userID string, filter insights.Filter) ([]domain.Insight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.insights[userID]
	result := []domain.Insight{}
	// Walk backwards so later inserts come first among equal timestamps.
	for i := len(stored) - 1; i >= 0; i-- {
		if filter.Matches(stored[i]) {
			result = append(result, stored[i])
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// GetInsight implements insights.InsightStore.
func (s *Store) GetInsight(ctx context.Context, userID, insightID string) (*domain.Insight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, insight := range s.insights[userID] {
		if insight.ID == insightID {
			found := insight
			return &found, nil
		}
	}
	return nil, domain.NewNotFoundError("insight", insightID)
}

// MarkInsightRead implements insights.InsightStore.
func (s *Store) MarkInsightRead(ctx context.Context, userID, insightID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.insights[userID]
	for i := range stored {
		if stored[i].ID == insightID {
			stored[i].IsRead = true
			return nil
		}
	}
	return domain.NewNotFoundError("insight", insightID)
}

// DeleteInsight implements insights.InsightStore.
func (s *Store) DeleteInsight(ctx context.Context, userID, insightID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.insights[userID]
	for i := range stored {
		if stored[i].ID == insightID {
			s.insights[userID] = append(stored[:i:i], stored[i+1:]...)
			return nil
		}
	}
	return domain.NewNotFoundError("insight", insightID)
}

// DeleteExpiredInsights implements insights.InsightStore.
func (s *Store) DeleteExpiredInsights(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for userID, stored := range s.insights {
		kept := make([]domain.Insight, 0, len(stored))
		for _, insight := range stored {
			if insight.Expired(now) {
				deleted++
				continue
			}
			kept = append(kept, insight)
		}
		s.insights[userID] = kept
	}
	return deleted, nil
}

// Ensure Store implements the insight ports.
var _ insights.DataSource = (*Store)(nil)
var _ insights.InsightStore = (*Store)(nil)
