package insights

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testUser = "3f1c2a9e-6b7d-4e8f-9a0b-1c2d3e4f5a6b"

var testNow = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

// fakeSource is a DataSource whose behavior is set per test.
type fakeSource struct {
	transactions func(ctx context.Context, userID string, r domain.DateRange) ([]domain.Transaction, error)
	budgets      func(ctx context.Context, userID string) ([]domain.Budget, error)
	goals        func(ctx context.Context, userID string) ([]domain.Goal, error)
	holdings     func(ctx context.Context, userID string) ([]domain.InvestmentHolding, error)
	credit       func(ctx context.Context, userID string) ([]domain.CreditScoreRecord, error)
}

func (f *fakeSource) GetTransactions(ctx context.Context, userID string, r domain.DateRange) ([]domain.Transaction, error) {
	if f.transactions == nil {
		return []domain.Transaction{}, nil
	}
	return f.transactions(ctx, userID, r)
}

func (f *fakeSource) GetBudgets(ctx context.Context, userID string) ([]domain.Budget, error) {
	if f.budgets == nil {
		return []domain.Budget{}, nil
	}
	return f.budgets(ctx, userID)
}

func (f *fakeSource) GetGoals(ctx context.Context, userID string) ([]domain.Goal, error) {
	if f.goals == nil {
		return []domain.Goal{}, nil
	}
	return f.goals(ctx, userID)
}

func (f *fakeSource) GetInvestmentHoldings(ctx context.Context, userID string) ([]domain.InvestmentHolding, error) {
	if f.holdings == nil {
		return []domain.InvestmentHolding{}, nil
	}
	return f.holdings(ctx, userID)
}

func (f *fakeSource) GetCreditScoreHistory(ctx context.Context, userID string) ([]domain.CreditScoreRecord, error) {
	if f.credit == nil {
		return []domain.CreditScoreRecord{}, nil
	}
	return f.credit(ctx, userID)
}

// fakeWriter records every SaveInsights call.
type fakeWriter struct {
	mu    sync.Mutex
	calls [][]domain.Insight
	err   error
}

func (w *fakeWriter) SaveInsights(ctx context.Context, userID string, insights []domain.Insight) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, insights)
	return w.err
}

type mockReporter struct {
	mock.Mock
}

func (m *mockReporter) CaptureError(ctx context.Context, err error, tags map[string]string) {
	m.Called(ctx, err, tags)
}

func newTestAggregator(source DataSource, writer InsightWriter, opts ...Option) *Aggregator {
	seq := 0
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("insight-%d", seq)
		}),
	}
	return NewAggregator(source, writer, zerolog.Nop(), append(base, opts...)...)
}

func expense(category string, amount int64, daysAgo int) domain.Transaction {
	return domain.Transaction{
		ID:         fmt.Sprintf("%s-%d-%d", category, amount, daysAgo),
		UserID:     testUser,
		CategoryID: category,
		Amount:     decimal.NewFromInt(-amount),
		Date:       testNow.AddDate(0, 0, -daysAgo),
	}
}

func income(amount int64, daysAgo int) domain.Transaction {
	return domain.Transaction{
		ID:         fmt.Sprintf("income-%d-%d", amount, daysAgo),
		UserID:     testUser,
		CategoryID: "salary",
		Amount:     decimal.NewFromInt(amount),
		Date:       testNow.AddDate(0, 0, -daysAgo),
	}
}

func staticTransactions(txs ...domain.Transaction) func(context.Context, string, domain.DateRange) ([]domain.Transaction, error) {
	return func(context.Context, string, domain.DateRange) ([]domain.Transaction, error) {
		return txs, nil
	}
}

func failing[T any](msg string) func(context.Context, string) ([]T, error) {
	return func(context.Context, string) ([]T, error) {
		return nil, errors.New(msg)
	}
}

func TestGenerateInsights_BudgetOverspent(t *testing.T) {
	source := &fakeSource{
		transactions: staticTransactions(expense("groceries", 350, 10), expense("groceries", 250, 5)),
		budgets: func(context.Context, string) ([]domain.Budget, error) {
			return []domain.Budget{{
				ID:         "b1",
				UserID:     testUser,
				CategoryID: "groceries",
				Name:       "Groceries",
				Amount:     decimal.NewFromInt(500),
				Period:     domain.BudgetPeriodMonthly,
				StartDate:  testNow.AddDate(0, 0, -20),
				EndDate:    testNow.AddDate(0, 0, 10),
			}}, nil
		},
	}
	writer := &fakeWriter{}

	got, err := newTestAggregator(source, writer).GenerateInsights(context.Background(), testUser)
	require.NoError(t, err)
	require.Len(t, got, 1)

	insight := got[0]
	assert.Equal(t, domain.InsightBudget, insight.Type)
	assert.Equal(t, 100.0, insight.Impact)
	assert.Equal(t, testUser, insight.UserID)
	assert.Equal(t, "insight-1", insight.ID)
	assert.Equal(t, testNow, insight.CreatedAt)
	require.NotNil(t, insight.ExpiresAt)
	assert.Equal(t, testNow.Add(30*24*time.Hour), *insight.ExpiresAt)

	data, ok := insight.Data.(*domain.BudgetInsightData)
	require.True(t, ok)
	assert.Equal(t, "b1", data.BudgetID)
	assert.InDelta(t, 120, data.PercentageUsed, 1e-9)
	assert.True(t, data.Remaining.Equal(decimal.NewFromInt(-100)))

	require.Len(t, writer.calls, 1)
	assert.Equal(t, got, writer.calls[0])
}

func TestGenerateInsights_BudgetBelowThreshold(t *testing.T) {
	source := &fakeSource{
		transactions: staticTransactions(expense("groceries", 450, 3)),
		budgets: func(context.Context, string) ([]domain.Budget, error) {
			return []domain.Budget{{
				ID: "b1", CategoryID: "groceries", Amount: decimal.NewFromInt(500),
				StartDate: testNow.AddDate(0, 0, -10), EndDate: testNow.AddDate(0, 0, 20),
			}}, nil
		},
	}

	got, err := newTestAggregator(source, &fakeWriter{}).GenerateInsights(context.Background(), testUser)
	require.NoError(t, err)
	assert.Empty(t, got, "exactly 90 percent used is not above the threshold")
}

func TestGenerateInsights_BudgetStartedBeforeWindow(t *testing.T) {
	yearly := domain.Budget{
		ID: "b-year", CategoryID: "travel", Name: "Travel",
		Amount:    decimal.NewFromInt(1000),
		Period:    domain.BudgetPeriodYearly,
		StartDate: testNow.AddDate(0, 0, -200),
		EndDate:   testNow.AddDate(0, 0, 165),
	}
	all := []domain.Transaction{expense("travel", 950, 150), expense("travel", 50, 10)}

	var ranges []domain.DateRange
	var mu sync.Mutex
	source := &fakeSource{
		transactions: func(_ context.Context, _ string, r domain.DateRange) ([]domain.Transaction, error) {
			mu.Lock()
			ranges = append(ranges, r)
			mu.Unlock()
			var out []domain.Transaction
			for _, tx := range all {
				if r.Contains(tx.Date) {
					out = append(out, tx)
				}
			}
			return out, nil
		},
		budgets: func(context.Context, string) ([]domain.Budget, error) {
			return []domain.Budget{yearly}, nil
		},
	}

	got, err := newTestAggregator(source, &fakeWriter{}).GenerateInsights(context.Background(), testUser)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.InsightBudget, got[0].Type)
	assert.Equal(t, 100.0, got[0].Impact)

	data := got[0].Data.(*domain.BudgetInsightData)
	assert.True(t, data.Spent.Equal(decimal.NewFromInt(1000)), "spent = %s", data.Spent)

	require.Len(t, ranges, 2)
	assert.Equal(t, yearly.StartDate, ranges[1].Start)
	assert.Equal(t, yearly.EndDate, ranges[1].End)
}

func TestGenerateInsights_BudgetRangeReadFails(t *testing.T) {
	window := domain.LastDays(testNow, DefaultOptions().TransactionWindowDays)
	source := &fakeSource{
		transactions: func(_ context.Context, _ string, r domain.DateRange) ([]domain.Transaction, error) {
			if r.Start.Before(window.Start) {
				return nil, errors.New("query timeout")
			}
			return []domain.Transaction{expense("travel", 50, 10)}, nil
		},
		budgets: func(context.Context, string) ([]domain.Budget, error) {
			return []domain.Budget{{
				ID: "b-year", CategoryID: "travel", Amount: decimal.NewFromInt(60),
				StartDate: testNow.AddDate(0, 0, -200), EndDate: testNow.AddDate(0, 0, 165),
			}}, nil
		},
	}
	reporter := &mockReporter{}
	reporter.On("CaptureError", mock.Anything, mock.MatchedBy(func(err error) bool {
		return errors.Is(err, domain.ErrUpstreamDataSource)
	}), map[string]string{"source": SourceTransactions, "user_id": testUser}).Return().Once()

	got, err := newTestAggregator(source, &fakeWriter{}, WithReporter(reporter)).GenerateInsights(context.Background(), testUser)
	require.NoError(t, err)
	assert.Empty(t, got)
	reporter.AssertExpectations(t)
}

func TestBudgetSpan(t *testing.T) {
	window := domain.LastDays(testNow, 90)
	tests := []struct {
		name      string
		budgets   []domain.Budget
		wantWider bool
		wantStart time.Time
	}{
		{
			name:    "no budgets",
			budgets: nil,
		},
		{
			name:    "inside window",
			budgets: []domain.Budget{{StartDate: testNow.AddDate(0, 0, -10), EndDate: testNow.AddDate(0, 0, 20)}},
		},
		{
			name:    "ended before window",
			budgets: []domain.Budget{{StartDate: testNow.AddDate(0, 0, -200), EndDate: testNow.AddDate(0, 0, -100)}},
		},
		{
			name: "earliest active start wins",
			budgets: []domain.Budget{
				{StartDate: testNow.AddDate(0, 0, -120), EndDate: testNow.AddDate(0, 0, 10)},
				{StartDate: testNow.AddDate(0, 0, -300), EndDate: testNow.AddDate(0, 0, 60)},
			},
			wantWider: true,
			wantStart: testNow.AddDate(0, 0, -300),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			span, wider := budgetSpan(tt.budgets, window)
			assert.Equal(t, tt.wantWider, wider)
			if tt.wantWider {
				assert.Equal(t, tt.wantStart, span.Start)
			} else {
				assert.Equal(t, window.Start, span.Start)
			}
		})
	}
}

func TestGenerateInsights_SpendingIncrease(t *testing.T) {
	source := &fakeSource{
		transactions: staticTransactions(
			expense("dining", 400, 40),
			expense("dining", 400, 70),
			expense("dining", 600, 12),
		),
	}

	got, err := newTestAggregator(source, &fakeWriter{}).GenerateInsights(context.Background(), testUser)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, domain.InsightSpending, got[0].Type)
	assert.InDelta(t, 50, got[0].Impact, 1e-9)

	data, ok := got[0].Data.(*domain.SpendingInsightData)
	require.True(t, ok)
	assert.Equal(t, "dining", data.CategoryID)
	assert.True(t, data.BaselineSpend.Equal(decimal.NewFromInt(400)))
	assert.True(t, data.CurrentSpend.Equal(decimal.NewFromInt(600)))
}

func TestGenerateInsights_SpendingWithoutBaselineIsIgnored(t *testing.T) {
	source := &fakeSource{transactions: staticTransactions(expense("travel", 2000, 3))}

	got, err := newTestAggregator(source, &fakeWriter{}).GenerateInsights(context.Background(), testUser)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGenerateInsights_GoalBehindSchedule(t *testing.T) {
	source := &fakeSource{
		goals: func(context.Context, string) ([]domain.Goal, error) {
			return []domain.Goal{
				{
					ID:            "g1",
					Name:          "Emergency fund",
					TargetAmount:  decimal.NewFromInt(10000),
					CurrentAmount: decimal.NewFromInt(2000),
					CreatedAt:     testNow.AddDate(0, 0, -100),
					TargetDate:    testNow.AddDate(0, 0, 100),
				},
				{
					ID:            "g2",
					Name:          "Vacation",
					TargetAmount:  decimal.NewFromInt(1000),
					CurrentAmount: decimal.NewFromInt(900),
					CreatedAt:     testNow.AddDate(0, 0, -100),
					TargetDate:    testNow.AddDate(0, 0, 100),
				},
				{ID: "broken", TargetAmount: decimal.Zero},
			}, nil
		},
	}

	got, err := newTestAggregator(source, &fakeWriter{}).GenerateInsights(context.Background(), testUser)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, domain.InsightGoal, got[0].Type)
	assert.InDelta(t, 30, got[0].Impact, 1e-9)
	data := got[0].Data.(*domain.GoalInsightData)
	assert.Equal(t, "g1", data.GoalID)
}

func TestGenerateInsights_GoalWithoutCreatedAtNotFlagged(t *testing.T) {
	source := &fakeSource{
		goals: func(context.Context, string) ([]domain.Goal, error) {
			return []domain.Goal{{
				ID:            "g-undated",
				TargetAmount:  decimal.NewFromInt(1000),
				CurrentAmount: decimal.NewFromInt(500),
				TargetDate:    testNow.AddDate(1, 0, 0),
			}}, nil
		},
	}

	got, err := newTestAggregator(source, &fakeWriter{}).GenerateInsights(context.Background(), testUser)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGenerateInsights_InvestmentLoss(t *testing.T) {
	source := &fakeSource{
		holdings: func(context.Context, string) ([]domain.InvestmentHolding, error) {
			return []domain.InvestmentHolding{{
				ID:            "h1",
				Symbol:        "ACME",
				Quantity:      decimal.NewFromInt(10),
				PurchasePrice: decimal.NewFromInt(100),
				CurrentPrice:  decimal.NewFromInt(90),
				PurchaseDate:  testNow.AddDate(0, 0, -365),
			}}, nil
		},
	}

	got, err := newTestAggregator(source, &fakeWriter{}).GenerateInsights(context.Background(), testUser)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.InsightInvestment, got[0].Type)
	assert.InDelta(t, 10, got[0].Impact, 1e-6)
}

func TestGenerateInsights_InvalidHoldingSkipsInvestment(t *testing.T) {
	source := &fakeSource{
		holdings: func(context.Context, string) ([]domain.InvestmentHolding, error) {
			return []domain.InvestmentHolding{{
				ID: "h1", Quantity: decimal.NewFromInt(-1),
				PurchasePrice: decimal.NewFromInt(100), CurrentPrice: decimal.NewFromInt(50),
			}}, nil
		},
	}

	got, err := newTestAggregator(source, &fakeWriter{}).GenerateInsights(context.Background(), testUser)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGenerateInsights_CreditScoreDrop(t *testing.T) {
	source := &fakeSource{
		credit: func(context.Context, string) ([]domain.CreditScoreRecord, error) {
			return []domain.CreditScoreRecord{
				{Score: 700, Date: testNow.AddDate(0, -1, 0), Provider: "equifax"},
				{Score: 750, Date: testNow.AddDate(0, -3, 0), Provider: "equifax"},
				{Score: 900, Date: testNow.AddDate(0, -2, 0), Provider: "bogus"},
			}, nil
		},
	}

	got, err := newTestAggregator(source, &fakeWriter{}).GenerateInsights(context.Background(), testUser)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.InsightCreditScore, got[0].Type)
	assert.InDelta(t, 50, got[0].Impact, 1e-9)
	assert.Equal(t, 700, got[0].Data.(*domain.CreditScoreInsightData).LatestScore)
}

func TestGenerateInsights_SmallCreditDropIgnored(t *testing.T) {
	source := &fakeSource{
		credit: func(context.Context, string) ([]domain.CreditScoreRecord, error) {
			return []domain.CreditScoreRecord{
				{Score: 705, Date: testNow.AddDate(0, -2, 0)},
				{Score: 700, Date: testNow.AddDate(0, -1, 0)},
			}, nil
		},
	}

	got, err := newTestAggregator(source, &fakeWriter{}).GenerateInsights(context.Background(), testUser)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGenerateInsights_SavingOverspend(t *testing.T) {
	source := &fakeSource{
		transactions: staticTransactions(income(2000, 15), expense("rent", 2500, 10)),
	}

	got, err := newTestAggregator(source, &fakeWriter{}).GenerateInsights(context.Background(), testUser)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.InsightSaving, got[0].Type)
	assert.InDelta(t, 25, got[0].Impact, 1e-9)
}

func TestGenerateInsights_SortedByImpact(t *testing.T) {
	source := &fakeSource{
		transactions: staticTransactions(
			expense("dining", 400, 40),
			expense("dining", 400, 70),
			expense("dining", 600, 12),
			expense("groceries", 470, 2),
		),
		budgets: func(context.Context, string) ([]domain.Budget, error) {
			return []domain.Budget{{
				ID: "b1", CategoryID: "groceries", Amount: decimal.NewFromInt(500),
				StartDate: testNow.AddDate(0, 0, -5), EndDate: testNow.AddDate(0, 0, 25),
			}}, nil
		},
		credit: func(context.Context, string) ([]domain.CreditScoreRecord, error) {
			return []domain.CreditScoreRecord{
				{Score: 760, Date: testNow.AddDate(0, -2, 0)},
				{Score: 740, Date: testNow.AddDate(0, -1, 0)},
			}, nil
		},
	}

	got, err := newTestAggregator(source, &fakeWriter{}).GenerateInsights(context.Background(), testUser)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, domain.InsightBudget, got[0].Type)
	assert.Equal(t, domain.InsightSpending, got[1].Type)
	assert.Equal(t, domain.InsightCreditScore, got[2].Type)
	for i, insight := range got {
		assert.GreaterOrEqual(t, insight.Impact, 0.0)
		assert.LessOrEqual(t, insight.Impact, 100.0)
		if i > 0 {
			assert.GreaterOrEqual(t, got[i-1].Impact, insight.Impact)
		}
	}
}

func TestGenerateInsights_AllSourcesFail(t *testing.T) {
	source := &fakeSource{
		transactions: func(context.Context, string, domain.DateRange) ([]domain.Transaction, error) {
			return nil, errors.New("warehouse down")
		},
		budgets:  failing[domain.Budget]("warehouse down"),
		goals:    failing[domain.Goal]("warehouse down"),
		holdings: failing[domain.InvestmentHolding]("broker down"),
		credit:   failing[domain.CreditScoreRecord]("bureau down"),
	}
	writer := &fakeWriter{}
	reporter := &mockReporter{}
	reporter.On("CaptureError", mock.Anything, mock.MatchedBy(func(err error) bool {
		return errors.Is(err, domain.ErrUpstreamDataSource)
	}), mock.Anything).Return().Times(5)

	got, err := newTestAggregator(source, writer, WithReporter(reporter)).GenerateInsights(context.Background(), testUser)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, writer.calls)
	reporter.AssertExpectations(t)
}

func TestGenerateInsights_PartialFailureIsolated(t *testing.T) {
	source := &fakeSource{
		budgets: failing[domain.Budget]("timeout"),
		credit: func(context.Context, string) ([]domain.CreditScoreRecord, error) {
			return []domain.CreditScoreRecord{
				{Score: 720, Date: testNow.AddDate(0, -2, 0)},
				{Score: 690, Date: testNow.AddDate(0, -1, 0)},
			}, nil
		},
	}
	reporter := &mockReporter{}
	reporter.On("CaptureError", mock.Anything, mock.Anything, map[string]string{
		"source":  SourceBudgets,
		"user_id": testUser,
	}).Return().Once()

	got, err := newTestAggregator(source, &fakeWriter{}, WithReporter(reporter)).GenerateInsights(context.Background(), testUser)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.InsightCreditScore, got[0].Type)
	reporter.AssertExpectations(t)
}

func TestGenerateInsights_PersistenceFailureReturnsInsights(t *testing.T) {
	source := &fakeSource{
		credit: func(context.Context, string) ([]domain.CreditScoreRecord, error) {
			return []domain.CreditScoreRecord{
				{Score: 750, Date: testNow.AddDate(0, -2, 0)},
				{Score: 700, Date: testNow.AddDate(0, -1, 0)},
			}, nil
		},
	}
	writer := &fakeWriter{err: errors.New("quota exceeded")}
	reporter := &mockReporter{}
	reporter.On("CaptureError", mock.Anything, mock.MatchedBy(func(err error) bool {
		return errors.Is(err, domain.ErrPersistence)
	}), mock.Anything).Return().Once()

	got, err := newTestAggregator(source, writer, WithReporter(reporter)).GenerateInsights(context.Background(), testUser)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)

	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Count)
	require.Len(t, got, 1)
	assert.Equal(t, domain.InsightCreditScore, got[0].Type)
	reporter.AssertExpectations(t)
}

func TestGenerateInsights_CancelledContextSkipsPersistence(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	source := &fakeSource{
		budgets: func(ctx context.Context, _ string) ([]domain.Budget, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		},
		credit: func(context.Context, string) ([]domain.CreditScoreRecord, error) {
			return []domain.CreditScoreRecord{
				{Score: 750, Date: testNow.AddDate(0, -2, 0)},
				{Score: 700, Date: testNow.AddDate(0, -1, 0)},
			}, nil
		},
	}
	writer := &fakeWriter{}

	go func() {
		<-started
		cancel()
	}()

	got, err := newTestAggregator(source, writer).GenerateInsights(ctx, testUser)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
	assert.Empty(t, writer.calls)
}

func TestGenerateInsights_InvalidUserID(t *testing.T) {
	writer := &fakeWriter{}
	_, err := newTestAggregator(&fakeSource{}, writer).GenerateInsights(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, writer.calls)
}

func TestGenerateInsights_RepeatedCallsAppend(t *testing.T) {
	source := &fakeSource{
		credit: func(context.Context, string) ([]domain.CreditScoreRecord, error) {
			return []domain.CreditScoreRecord{
				{Score: 750, Date: testNow.AddDate(0, -2, 0)},
				{Score: 700, Date: testNow.AddDate(0, -1, 0)},
			}, nil
		},
	}
	writer := &fakeWriter{}
	agg := newTestAggregator(source, writer)

	first, err := agg.GenerateInsights(context.Background(), testUser)
	require.NoError(t, err)
	second, err := agg.GenerateInsights(context.Background(), testUser)
	require.NoError(t, err)

	require.Len(t, writer.calls, 2)
	assert.NotEqual(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[0].Impact, second[0].Impact)
}

func TestOptions_WithDefaults(t *testing.T) {
	o := Options{BudgetAlertPercent: 80}.withDefaults()
	assert.Equal(t, 80.0, o.BudgetAlertPercent)
	assert.Equal(t, 90, o.TransactionWindowDays)
	assert.Equal(t, 30, o.SpendingWindowDays)
	assert.Equal(t, 1.2, o.SpendingIncreaseRatio)
	assert.Equal(t, 10.0, o.CreditDropThreshold)

	bad := Options{TransactionWindowDays: 20, SpendingWindowDays: 30}.withDefaults()
	assert.Equal(t, 20, bad.TransactionWindowDays)
	assert.Equal(t, 6, bad.SpendingWindowDays)
}
