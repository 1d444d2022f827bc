package bigquery

import (
	"math/big"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatToDecimal(t *testing.T) {
	tests := []struct {
		name string
		in   *big.Rat
		want string
	}{
		{"nil", nil, "0"},
		{"integer", big.NewRat(-250, 1), "-250"},
		{"fraction", big.NewRat(1, 3), "0.333333333"},
		{"cents", big.NewRat(1999, 100), "19.99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ratToDecimal(tt.in)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestDecimalToRat(t *testing.T) {
	r := decimalToRat(decimal.RequireFromString("-42.05"))
	assert.Equal(t, 0, r.Cmp(big.NewRat(-841, 20)))
}

func TestTransactionRowToDomain(t *testing.T) {
	row := TransactionRow{
		TransactionID:   "tx-1",
		UserID:          "user-1",
		AccountID:       bigquery.NullString{StringVal: "acc-1", Valid: true},
		TransactionDate: civil.Date{Year: 2025, Month: time.March, Day: 14},
		Amount:          big.NewRat(-1250, 100),
		RawDescription:  "TESCO STORES",
	}

	tx := row.toDomain()

	assert.Equal(t, "tx-1", tx.ID)
	assert.Equal(t, "acc-1", tx.AccountID)
	assert.Empty(t, tx.CategoryID)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("-12.5")))
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), tx.Date)
	assert.True(t, tx.IsExpense())
}

func TestBudgetRowToDomain(t *testing.T) {
	row := BudgetRow{
		BudgetID:   "b-1",
		UserID:     "user-1",
		CategoryID: "groceries",
		Amount:     big.NewRat(400, 1),
		Period:     "monthly",
		StartDate:  civil.Date{Year: 2025, Month: time.June, Day: 1},
		EndDate:    civil.Date{Year: 2025, Month: time.June, Day: 30},
	}

	b := row.toDomain()

	require.NoError(t, b.Validate())
	assert.Equal(t, domain.BudgetPeriodMonthly, b.Period)
	assert.Empty(t, b.Name)
}

func TestCreditScoreRowToDomain(t *testing.T) {
	row := CreditScoreRow{
		UserID:    "user-1",
		Score:     712,
		ScoreDate: civil.Date{Year: 2025, Month: time.May, Day: 2},
		Provider:  bigquery.NullString{StringVal: "experian", Valid: true},
	}

	rec := row.toDomain()

	assert.Equal(t, 712, rec.Score)
	assert.Equal(t, "experian", rec.Provider)
}

func TestInsightRow_PreservesRelatedData(t *testing.T) {
	created := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	expires := created.Add(30 * 24 * time.Hour)
	in := domain.Insight{
		ID:          "ins-1",
		UserID:      "user-1",
		Type:        domain.InsightBudget,
		Title:       "Groceries budget nearly spent",
		Description: "You have used 95% of your Groceries budget.",
		Impact:      95,
		CreatedAt:   created,
		ExpiresAt:   &expires,
		Data: &domain.BudgetInsightData{
			BudgetID:       "b-1",
			CategoryID:     "groceries",
			PercentageUsed: 95,
			Spent:          decimal.NewFromInt(380),
			Remaining:      decimal.NewFromInt(20),
		},
	}

	row, err := newInsightRow(in)
	require.NoError(t, err)
	assert.True(t, row.ExpiresTS.Valid)
	assert.True(t, row.RelatedData.Valid)
	assert.Contains(t, row.RelatedData.JSONVal, `"budgetId":"b-1"`)

	got, err := row.toDomain()
	require.NoError(t, err)
	assert.Equal(t, in.ID, got.ID)
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, expires.Equal(*got.ExpiresAt))

	data, ok := got.Data.(*domain.BudgetInsightData)
	require.True(t, ok, "related data decoded as %T", got.Data)
	assert.True(t, data.Spent.Equal(decimal.NewFromInt(380)))
}

func TestInsightRow_WithoutOptionalFields(t *testing.T) {
	row, err := newInsightRow(domain.Insight{ID: "ins-2", UserID: "u", Type: domain.InsightSaving})
	require.NoError(t, err)
	assert.False(t, row.ExpiresTS.Valid)
	assert.False(t, row.RelatedData.Valid)

	got, err := row.toDomain()
	require.NoError(t, err)
	assert.Nil(t, got.ExpiresAt)
	assert.Nil(t, got.Data)
}

func TestInsightRow_UnknownTypeWithData(t *testing.T) {
	row := InsightRow{
		InsightID:   "ins-3",
		InsightType: "weather",
		RelatedData: bigquery.NullJSON{JSONVal: `{"x":1}`, Valid: true},
	}

	_, err := row.toDomain()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListInsightsSQL(t *testing.T) {
	ds := Dataset{ProjectID: "proj", DatasetID: "finance"}

	t.Run("no filter", func(t *testing.T) {
		sql, params := listInsightsSQL(ds, "user-1", insights.Filter{})
		assert.Contains(t, sql, "FROM `proj.finance.insights`")
		assert.Contains(t, sql, "ORDER BY created_ts DESC")
		assert.NotContains(t, sql, "insight_type = @insight_type")
		assert.NotContains(t, sql, "is_read = FALSE")
		assert.NotContains(t, sql, "LIMIT")
		assert.Len(t, params, 1)
	})

	t.Run("all filters", func(t *testing.T) {
		sql, params := listInsightsSQL(ds, "user-1", insights.Filter{
			Type:       domain.InsightGoal,
			UnreadOnly: true,
			Limit:      5,
		})
		assert.Contains(t, sql, "AND insight_type = @insight_type")
		assert.Contains(t, sql, "AND is_read = FALSE")
		assert.True(t, strings.HasSuffix(strings.TrimSpace(sql), "LIMIT 5"))
		require.Len(t, params, 2)
		assert.Equal(t, "goal", params[1].Value)
	})
}

func TestDomainToRowsRoundTrip(t *testing.T) {
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	tx := domain.Transaction{
		ID: "t1", UserID: "u1", CategoryID: "rent",
		Amount: decimal.RequireFromString("-1250.125"), Date: day, Description: "March rent",
	}
	txRow := newTransactionRow(tx)
	assert.False(t, txRow.AccountID.Valid)
	assert.Equal(t, civil.Date{Year: 2025, Month: time.March, Day: 14}, txRow.TransactionDate)
	txBack := txRow.toDomain()
	assert.True(t, txBack.Amount.Equal(tx.Amount), "amount = %s", txBack.Amount)
	assert.Equal(t, tx.Date, txBack.Date)
	assert.Equal(t, tx.CategoryID, txBack.CategoryID)
	assert.Equal(t, tx.Description, txBack.Description)

	goal := domain.Goal{
		ID: "g1", UserID: "u1", Name: "Car",
		TargetAmount: decimal.NewFromInt(8000), CurrentAmount: decimal.RequireFromString("950.5"),
		TargetDate: day.AddDate(1, 0, 0), CreatedAt: day.Add(9 * time.Hour),
	}
	back := newGoalRow(goal).toDomain()
	assert.True(t, back.CurrentAmount.Equal(goal.CurrentAmount))
	assert.Equal(t, goal.CreatedAt, back.CreatedAt)

	holding := domain.InvestmentHolding{
		ID: "h1", UserID: "u1", Symbol: "VTI",
		Quantity: decimal.NewFromInt(3), PurchasePrice: decimal.RequireFromString("220.10"),
		CurrentPrice: decimal.RequireFromString("231"), PurchaseDate: day,
	}
	hb := newHoldingRow(holding).toDomain()
	assert.True(t, hb.PurchasePrice.Equal(holding.PurchasePrice))
	assert.Equal(t, "VTI", hb.Symbol)

	score := newCreditScoreRow("u1", domain.CreditScoreRecord{Score: 701, Date: day})
	assert.Equal(t, "u1", score.UserID)
	assert.Equal(t, int64(701), score.Score)
	assert.False(t, score.Provider.Valid)
}

func TestTimeToDateUsesUTC(t *testing.T) {
	late := time.Date(2025, 3, 14, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
	assert.Equal(t, civil.Date{Year: 2025, Month: time.March, Day: 15}, timeToDate(late))
}

func TestCheckOwner(t *testing.T) {
	ok := domain.UserRecords{
		UserID:       "u1",
		Transactions: []domain.Transaction{{ID: "t1", UserID: "u1"}},
		Goals:        []domain.Goal{{ID: "g1", UserID: "u1"}},
	}
	assert.NoError(t, checkOwner(ok))

	bad := ok
	bad.Budgets = []domain.Budget{{ID: "b1", UserID: "u2"}}
	err := checkOwner(bad)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorContains(t, err, "budget b1")
}
