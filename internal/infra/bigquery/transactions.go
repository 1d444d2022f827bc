package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

// TransactionRow mirrors finance.transactions.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	UserID        string `bigquery:"user_id"`        // REQUIRED

	AccountID  bigquery.NullString `bigquery:"account_id"`  // NULLABLE
	CategoryID bigquery.NullString `bigquery:"category_id"` // NULLABLE

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED
	Amount          *big.Rat   `bigquery:"amount"`           // REQUIRED NUMERIC, negative for expenses

	RawDescription string `bigquery:"raw_description"` // REQUIRED STRING
}

// BudgetRow mirrors finance.budgets.
type BudgetRow struct {
	BudgetID   string              `bigquery:"budget_id"`
	UserID     string              `bigquery:"user_id"`
	CategoryID string              `bigquery:"category_id"`
	Name       bigquery.NullString `bigquery:"name"`
	Amount     *big.Rat            `bigquery:"amount"` // NUMERIC
	Period     string              `bigquery:"period"`
	StartDate  civil.Date          `bigquery:"start_date"`
	EndDate    civil.Date          `bigquery:"end_date"`
}

// GoalRow mirrors finance.goals.
type GoalRow struct {
	GoalID        string     `bigquery:"goal_id"`
	UserID        string     `bigquery:"user_id"`
	Name          string     `bigquery:"name"`
	TargetAmount  *big.Rat   `bigquery:"target_amount"`
	CurrentAmount *big.Rat   `bigquery:"current_amount"`
	TargetDate    civil.Date `bigquery:"target_date"`
	CreatedTS     time.Time  `bigquery:"created_ts"`
}

// HoldingRow mirrors finance.investment_holdings.
type HoldingRow struct {
	HoldingID     string     `bigquery:"holding_id"`
	UserID        string     `bigquery:"user_id"`
	Symbol        string     `bigquery:"symbol"`
	Quantity      *big.Rat   `bigquery:"quantity"`
	PurchasePrice *big.Rat   `bigquery:"purchase_price"`
	CurrentPrice  *big.Rat   `bigquery:"current_price"`
	PurchaseDate  civil.Date `bigquery:"purchase_date"`
}

// CreditScoreRow mirrors finance.credit_scores.
type CreditScoreRow struct {
	UserID    string              `bigquery:"user_id"`
	Score     int64               `bigquery:"score"`
	ScoreDate civil.Date          `bigquery:"score_date"`
	Provider  bigquery.NullString `bigquery:"provider"`
}

// InsightRow mirrors finance.insights. RelatedData holds the JSON encoding of
// the insight's type-specific payload.
type InsightRow struct {
	InsightID   string                 `bigquery:"insight_id"`
	UserID      string                 `bigquery:"user_id"`
	InsightType string                 `bigquery:"insight_type"`
	Title       string                 `bigquery:"title"`
	Description string                 `bigquery:"description"`
	Impact      float64                `bigquery:"impact"`
	CreatedTS   time.Time              `bigquery:"created_ts"`
	ExpiresTS   bigquery.NullTimestamp `bigquery:"expires_ts"`
	IsRead      bool                   `bigquery:"is_read"`
	RelatedData bigquery.NullJSON      `bigquery:"related_data"`
}
