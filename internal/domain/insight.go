package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InsightType classifies an insight and selects the shape of its related data.
type InsightType string

const (
	InsightSpending    InsightType = "spending"
	InsightSaving      InsightType = "saving"
	InsightInvestment  InsightType = "investment"
	InsightBudget      InsightType = "budget"
	InsightGoal        InsightType = "goal"
	InsightCreditScore InsightType = "creditScore"
)

// Valid reports whether t is a known insight type.
func (t InsightType) Valid() bool {
	switch t {
	case InsightSpending, InsightSaving, InsightInvestment, InsightBudget, InsightGoal, InsightCreditScore:
		return true
	}
	return false
}

// MaxImpact is the upper bound of the normalized impact score.
const MaxImpact = 100.0

// ClampImpact bounds v to [0, MaxImpact].
func ClampImpact(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > MaxImpact {
		return MaxImpact
	}
	return v
}

// Insight is a ranked, user-facing observation about their finances.
type Insight struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	Type        InsightType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Impact      float64     `json:"impact"`
	CreatedAt   time.Time   `json:"createdAt"`
	ExpiresAt   *time.Time  `json:"expiresAt,omitempty"`
	IsRead      bool        `json:"isRead"`
	Data        InsightData `json:"relatedData,omitempty"`
}

// Expired reports whether the insight has an expiry at or before now.
func (i Insight) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && !i.ExpiresAt.After(now)
}

// UnmarshalJSON decodes relatedData into the variant selected by type.
func (i *Insight) UnmarshalJSON(b []byte) error {
	type insightAlias Insight
	aux := struct {
		*insightAlias
		RelatedData json.RawMessage `json:"relatedData,omitempty"`
	}{insightAlias: (*insightAlias)(i)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	data, err := DecodeInsightData(i.Type, aux.RelatedData)
	if err != nil {
		return err
	}
	i.Data = data
	return nil
}

// InsightData is the type-specific payload of an insight.
type InsightData interface {
	InsightType() InsightType
}

// DecodeInsightData decodes raw JSON into the payload variant for t.
// Empty input yields nil data.
func DecodeInsightData(t InsightType, raw []byte) (InsightData, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var data InsightData
	switch t {
	case InsightBudget:
		data = &BudgetInsightData{}
	case InsightGoal:
		data = &GoalInsightData{}
	case InsightInvestment:
		data = &InvestmentInsightData{}
	case InsightCreditScore:
		data = &CreditScoreInsightData{}
	case InsightSpending:
		data = &SpendingInsightData{}
	case InsightSaving:
		data = &SavingInsightData{}
	default:
		return nil, NewInvalidInputError("type", fmt.Sprintf("unknown insight type %q", t))
	}

	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("DecodeInsightData: %s: %w", t, err)
	}
	return data, nil
}

// BudgetInsightData backs a budget nearing or over its limit.
type BudgetInsightData struct {
	BudgetID       string          `json:"budgetId"`
	CategoryID     string          `json:"categoryId"`
	PercentageUsed float64         `json:"percentageUsed"`
	Spent          decimal.Decimal `json:"spent"`
	Remaining      decimal.Decimal `json:"remaining"`
}

func (*BudgetInsightData) InsightType() InsightType { return InsightBudget }

// GoalInsightData backs a goal that trails its linear pace.
type GoalInsightData struct {
	GoalID   string  `json:"goalId"`
	Progress float64 `json:"progress"`
	Expected float64 `json:"expected"`
	Deficit  float64 `json:"deficit"`
}

func (*GoalInsightData) InsightType() InsightType { return InsightGoal }

// InvestmentInsightData backs an underperforming portfolio.
type InvestmentInsightData struct {
	ROI              float64 `json:"roi"`
	AnnualizedReturn float64 `json:"annualizedReturn"`
	HoldingCount     int     `json:"holdingCount"`
}

func (*InvestmentInsightData) InsightType() InsightType { return InsightInvestment }

// CreditScoreInsightData backs a falling credit score.
type CreditScoreInsightData struct {
	Direction   TrendDirection `json:"direction"`
	Magnitude   float64        `json:"magnitude"`
	Volatility  float64        `json:"volatility"`
	LatestScore int            `json:"latestScore"`
}

func (*CreditScoreInsightData) InsightType() InsightType { return InsightCreditScore }

// SpendingInsightData backs a category whose recent spend jumped above its baseline.
type SpendingInsightData struct {
	CategoryID      string          `json:"categoryId"`
	CurrentSpend    decimal.Decimal `json:"currentSpend"`
	BaselineSpend   decimal.Decimal `json:"baselineSpend"`
	IncreasePercent float64         `json:"increasePercent"`
}

func (*SpendingInsightData) InsightType() InsightType { return InsightSpending }

// SavingInsightData backs a window in which expenses exceeded income.
type SavingInsightData struct {
	Income           decimal.Decimal `json:"income"`
	Expenses         decimal.Decimal `json:"expenses"`
	OverspendPercent float64         `json:"overspendPercent"`
}

func (*SavingInsightData) InsightType() InsightType { return InsightSaving }
