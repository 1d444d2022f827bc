// Package insights turns a user's financial records into ranked, persisted insights.
package insights

import (
	"context"
	"sort"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Source names used in logs, error tags and UpstreamDataSourceError.
const (
	SourceTransactions = "transactions"
	SourceBudgets      = "budgets"
	SourceGoals        = "goals"
	SourceHoldings     = "holdings"
	SourceCreditScores = "credit_scores"
)

// Aggregator generates insights for one user per call. It keeps no state
// between calls, so a single instance can serve concurrent requests.
type Aggregator struct {
	source   DataSource
	writer   InsightWriter
	reporter ErrorReporter
	log      zerolog.Logger
	opts     Options
	now      func() time.Time
	newID    func() string
}

// NewAggregator creates an Aggregator reading from source and appending to writer.
func NewAggregator(source DataSource, writer InsightWriter, log zerolog.Logger, options ...Option) *Aggregator {
	a := &Aggregator{
		source:   source,
		writer:   writer,
		reporter: noopReporter{},
		log:      log,
		opts:     DefaultOptions(),
		now:      time.Now,
		newID:    defaultID,
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// snapshot is everything fetched for one generation run. Each fetch goroutine
// owns exactly one data field and one error field.
type snapshot struct {
	transactions []domain.Transaction
	budgets      []domain.Budget
	goals        []domain.Goal
	holdings     []domain.InvestmentHolding
	credit       []domain.CreditScoreRecord

	transactionsErr error
	budgetsErr      error
	goalsErr        error
	holdingsErr     error
	creditErr       error
}

func (s *snapshot) failures() map[string]error {
	failed := map[string]error{}
	for name, err := range map[string]error{
		SourceTransactions: s.transactionsErr,
		SourceBudgets:      s.budgetsErr,
		SourceGoals:        s.goalsErr,
		SourceHoldings:     s.holdingsErr,
		SourceCreditScores: s.creditErr,
	} {
		if err != nil {
			failed[name] = err
		}
	}
	return failed
}

// GenerateInsights fetches the user's data, evaluates every insight rule,
// ranks the results by impact and appends them to the insight store.
//
// A failing data source only removes the insights that depend on it. When
// persisting fails the ranked insights are still returned together with a
// *domain.PersistenceError. A cancelled context stops the run before anything
// is persisted. The returned slice is never nil on success.
func (a *Aggregator) GenerateInsights(ctx context.Context, userID string) ([]domain.Insight, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	log := a.log.With().Str("user_id", userID).Logger()
	now := a.now()
	window := domain.LastDays(now, a.opts.TransactionWindowDays)

	snap, err := a.fetch(ctx, userID, window)
	if err != nil {
		log.Warn().Err(err).Msg("Insight generation cancelled during fetch")
		return nil, err
	}

	for source, ferr := range snap.failures() {
		uerr := &domain.UpstreamDataSourceError{Source: source, Err: ferr}
		log.Warn().Err(uerr).Str("source", source).Msg("Data source unavailable, continuing without it")
		a.reporter.CaptureError(ctx, uerr, map[string]string{"source": source, "user_id": userID})
	}

	var candidates []candidate
	if snap.transactionsErr == nil {
		if snap.budgetsErr == nil {
			if txs, ok := a.budgetTransactions(ctx, log, userID, snap, window); ok {
				candidates = append(candidates, budgetRule(log, snap.budgets, txs, window, a.opts)...)
			}
		}
		candidates = append(candidates, spendingRule(snap.transactions, now, a.opts)...)
		candidates = append(candidates, savingRule(snap.transactions, now, a.opts)...)
	}
	if snap.goalsErr == nil {
		candidates = append(candidates, goalRule(log, snap.goals, now)...)
	}
	if snap.holdingsErr == nil {
		candidates = append(candidates, investmentRule(log, snap.holdings, now)...)
	}
	if snap.creditErr == nil {
		candidates = append(candidates, creditRule(log, snap.credit, now, a.opts)...)
	}

	result := a.materialize(userID, now, candidates)

	if err := ctx.Err(); err != nil {
		log.Warn().Err(err).Msg("Insight generation cancelled before persistence")
		return nil, err
	}

	if len(result) > 0 {
		if err := a.writer.SaveInsights(ctx, userID, result); err != nil {
			perr := &domain.PersistenceError{Count: len(result), Err: err}
			log.Error().Err(perr).Int("insights", len(result)).Msg("Failed to persist insights")
			a.reporter.CaptureError(ctx, perr, map[string]string{"user_id": userID})
			return result, perr
		}
	}

	log.Info().Int("insights", len(result)).Msg("Generated insights")
	return result, nil
}

// fetch runs all five reads concurrently and waits for them to finish.
// It returns early with ctx.Err() if the context ends first.
func (a *Aggregator) fetch(ctx context.Context, userID string, window domain.DateRange) (*snapshot, error) {
	snap := &snapshot{}
	var g errgroup.Group

	g.Go(func() error {
		snap.transactions, snap.transactionsErr = a.source.GetTransactions(ctx, userID, window)
		return nil
	})
	g.Go(func() error {
		snap.budgets, snap.budgetsErr = a.source.GetBudgets(ctx, userID)
		return nil
	})
	g.Go(func() error {
		snap.goals, snap.goalsErr = a.source.GetGoals(ctx, userID)
		return nil
	})
	g.Go(func() error {
		snap.holdings, snap.holdingsErr = a.source.GetInvestmentHoldings(ctx, userID)
		return nil
	})
	g.Go(func() error {
		snap.credit, snap.creditErr = a.source.GetCreditScoreHistory(ctx, userID)
		return nil
	})

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	// On cancellation the reads may still be writing into snap, so it must not
	// escape this function.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-done:
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return snap, nil
}

// budgetTransactions returns the transactions the budget rule evaluates.
// Budgets that started before the analysis window need their whole range, so
// one extra read covers the earliest such start. ok is false when that read
// fails, in which case the failure has already been logged and reported.
func (a *Aggregator) budgetTransactions(ctx context.Context, log zerolog.Logger, userID string, snap *snapshot, window domain.DateRange) ([]domain.Transaction, bool) {
	span, wider := budgetSpan(snap.budgets, window)
	if !wider {
		return snap.transactions, true
	}

	txs, err := a.source.GetTransactions(ctx, userID, span)
	if err != nil {
		uerr := &domain.UpstreamDataSourceError{Source: SourceTransactions, Err: err}
		log.Warn().Err(uerr).Time("from", span.Start).Msg("Budget transactions unavailable, skipping budget insights")
		a.reporter.CaptureError(ctx, uerr, map[string]string{"source": SourceTransactions, "user_id": userID})
		return nil, false
	}
	return txs, true
}

// budgetSpan extends window back to the earliest start among budgets still
// active in it. wider is false when window already covers them all.
func budgetSpan(budgets []domain.Budget, window domain.DateRange) (domain.DateRange, bool) {
	span := window
	for _, b := range budgets {
		if b.EndDate.Before(window.Start) {
			continue
		}
		if b.StartDate.Before(span.Start) {
			span.Start = b.StartDate
		}
		if b.EndDate.After(span.End) {
			span.End = b.EndDate
		}
	}
	return span, span.Start.Before(window.Start)
}

// materialize assigns identity and timestamps, then orders by impact, highest first.
func (a *Aggregator) materialize(userID string, now time.Time, candidates []candidate) []domain.Insight {
	result := make([]domain.Insight, 0, len(candidates))
	for _, c := range candidates {
		insight := domain.Insight{
			ID:          a.newID(),
			UserID:      userID,
			Type:        c.Type,
			Title:       c.Title,
			Description: c.Description,
			Impact:      c.Impact,
			CreatedAt:   now,
			Data:        c.Data,
		}
		if a.opts.InsightTTL > 0 {
			expires := now.Add(a.opts.InsightTTL)
			insight.ExpiresAt = &expires
		}
		result = append(result, insight)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Impact > result[j].Impact
	})
	return result
}
