package insights

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/performance"
	"github.com/dvloznov/finance-insights/internal/progress"
	"github.com/dvloznov/finance-insights/internal/trend"
	"github.com/google/uuid"
)

// ErrNarrationUnavailable is returned by Narrate when no Narrator is configured.
var ErrNarrationUnavailable = errors.New("insight narration is not configured")

// Service exposes generation together with insight management and the
// per-entity analytics behind each rule.
type Service struct {
	*Aggregator
	store    InsightStore
	narrator Narrator
}

// NewService wraps agg with read and management operations over store.
// narrator may be nil.
func NewService(agg *Aggregator, store InsightStore, narrator Narrator) *Service {
	return &Service{Aggregator: agg, store: store, narrator: narrator}
}

// BudgetReport pairs a budget with its current progress.
type BudgetReport struct {
	Budget   domain.Budget         `json:"budget"`
	Progress domain.BudgetProgress `json:"progress"`
}

// HoldingReport pairs a holding with its own performance.
type HoldingReport struct {
	Holding     domain.InvestmentHolding `json:"holding"`
	Performance domain.Performance       `json:"performance"`
}

// PortfolioReport is the aggregate performance and its per-holding breakdown.
type PortfolioReport struct {
	Performance domain.Performance `json:"performance"`
	Holdings    []HoldingReport    `json:"holdings"`
}

// CreditReport is a credit trend with the latest observation.
type CreditReport struct {
	Trend   domain.Trend              `json:"trend"`
	Latest  *domain.CreditScoreRecord `json:"latest,omitempty"`
	Records int                       `json:"records"`
}

// ListInsights returns stored insights for the user, newest first.
func (s *Service) ListInsights(ctx context.Context, userID string, filter Filter) ([]domain.Insight, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, domain.NewInvalidInputError("type", fmt.Sprintf("unknown insight type %q", filter.Type))
	}

	list, err := s.store.ListInsights(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("ListInsights: %w", err)
	}
	if list == nil {
		list = []domain.Insight{}
	}
	return list, nil
}

// GetInsight returns one stored insight.
func (s *Service) GetInsight(ctx context.Context, userID, insightID string) (*domain.Insight, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	return s.store.GetInsight(ctx, userID, insightID)
}

// MarkInsightRead flags an insight as read.
func (s *Service) MarkInsightRead(ctx context.Context, userID, insightID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	return s.store.MarkInsightRead(ctx, userID, insightID)
}

// DeleteInsight removes an insight.
func (s *Service) DeleteInsight(ctx context.Context, userID, insightID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	return s.store.DeleteInsight(ctx, userID, insightID)
}

// PruneExpired deletes every insight whose expiry has passed.
func (s *Service) PruneExpired(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpiredInsights(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("PruneExpired: %w", err)
	}
	s.log.Info().Int64("deleted", n).Msg("Pruned expired insights")
	return n, nil
}

// Narrate asks the configured Narrator for advice about one stored insight.
func (s *Service) Narrate(ctx context.Context, userID, insightID string) (string, error) {
	if s.narrator == nil {
		return "", ErrNarrationUnavailable
	}
	insight, err := s.GetInsight(ctx, userID, insightID)
	if err != nil {
		return "", err
	}
	text, err := s.narrator.Narrate(ctx, *insight)
	if err != nil {
		return "", fmt.Errorf("Narrate: %w", err)
	}
	return text, nil
}

// BudgetProgress computes progress for one budget over its full date range.
func (s *Service) BudgetProgress(ctx context.Context, userID, budgetID string) (*BudgetReport, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	budgets, err := s.source.GetBudgets(ctx, userID)
	if err != nil {
		return nil, &domain.UpstreamDataSourceError{Source: SourceBudgets, Err: err}
	}

	var budget *domain.Budget
	for i := range budgets {
		if budgets[i].ID == budgetID {
			budget = &budgets[i]
			break
		}
	}
	if budget == nil {
		return nil, domain.NewNotFoundError("budget", budgetID)
	}

	txs, err := s.source.GetTransactions(ctx, userID, budget.Range())
	if err != nil {
		return nil, &domain.UpstreamDataSourceError{Source: SourceTransactions, Err: err}
	}

	p, err := progress.BudgetProgress(*budget, txs)
	if err != nil {
		return nil, err
	}
	return &BudgetReport{Budget: *budget, Progress: p}, nil
}

// GoalProgress computes actual and expected progress for one goal.
func (s *Service) GoalProgress(ctx context.Context, userID, goalID string) (*domain.GoalProgress, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	goals, err := s.source.GetGoals(ctx, userID)
	if err != nil {
		return nil, &domain.UpstreamDataSourceError{Source: SourceGoals, Err: err}
	}

	var goal *domain.Goal
	for i := range goals {
		if goals[i].ID == goalID {
			goal = &goals[i]
			break
		}
	}
	if goal == nil {
		return nil, domain.NewNotFoundError("goal", goalID)
	}

	gp, err := progress.EvaluateGoal(goal, s.now())
	if err != nil {
		return nil, err
	}
	return &gp, nil
}

// PortfolioPerformance analyzes every holding and the portfolio as a whole.
func (s *Service) PortfolioPerformance(ctx context.Context, userID string) (*PortfolioReport, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	holdings, err := s.source.GetInvestmentHoldings(ctx, userID)
	if err != nil {
		return nil, &domain.UpstreamDataSourceError{Source: SourceHoldings, Err: err}
	}

	now := s.now()
	total, err := performance.Analyze(holdings, now)
	if err != nil {
		return nil, err
	}

	report := &PortfolioReport{Performance: total, Holdings: make([]HoldingReport, 0, len(holdings))}
	for _, h := range holdings {
		perf, err := performance.AnalyzeHolding(h, now)
		if err != nil {
			return nil, err
		}
		report.Holdings = append(report.Holdings, HoldingReport{Holding: h, Performance: perf})
	}
	return report, nil
}

// CreditTrend summarizes the user's credit score history, ignoring the same
// invalid records insight generation ignores.
func (s *Service) CreditTrend(ctx context.Context, userID string) (*CreditReport, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	history, err := s.source.GetCreditScoreHistory(ctx, userID)
	if err != nil {
		return nil, &domain.UpstreamDataSourceError{Source: SourceCreditScores, Err: err}
	}

	valid := validCreditHistory(s.log.With().Str("user_id", userID).Logger(), history, s.now())
	report := &CreditReport{Trend: trend.Analyze(valid), Records: len(valid)}
	if latest, ok := trend.Latest(valid); ok {
		report.Latest = &latest
	}
	return report, nil
}

func validateUserID(userID string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return domain.NewInvalidInputError("userId", fmt.Sprintf("%q is not a valid UUID", userID))
	}
	return nil
}
