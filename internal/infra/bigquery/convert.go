package bigquery

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/shopspring/decimal"
)

// numericScale matches BigQuery NUMERIC, which keeps nine fractional digits.
const numericScale = 9

func ratToDecimal(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	return decimal.RequireFromString(r.FloatString(numericScale))
}

func decimalToRat(d decimal.Decimal) *big.Rat {
	r, _ := new(big.Rat).SetString(d.String())
	return r
}

func dateToTime(d civil.Date) time.Time {
	return d.In(time.UTC)
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

func (r *TransactionRow) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:          r.TransactionID,
		UserID:      r.UserID,
		AccountID:   r.AccountID.StringVal,
		CategoryID:  r.CategoryID.StringVal,
		Amount:      ratToDecimal(r.Amount),
		Date:        dateToTime(r.TransactionDate),
		Description: r.RawDescription,
	}
}

func (r *BudgetRow) toDomain() domain.Budget {
	return domain.Budget{
		ID:         r.BudgetID,
		UserID:     r.UserID,
		CategoryID: r.CategoryID,
		Name:       r.Name.StringVal,
		Amount:     ratToDecimal(r.Amount),
		Period:     domain.BudgetPeriod(r.Period),
		StartDate:  dateToTime(r.StartDate),
		EndDate:    dateToTime(r.EndDate),
	}
}

func (r *GoalRow) toDomain() domain.Goal {
	return domain.Goal{
		ID:            r.GoalID,
		UserID:        r.UserID,
		Name:          r.Name,
		TargetAmount:  ratToDecimal(r.TargetAmount),
		CurrentAmount: ratToDecimal(r.CurrentAmount),
		TargetDate:    dateToTime(r.TargetDate),
		CreatedAt:     r.CreatedTS.UTC(),
	}
}

func (r *HoldingRow) toDomain() domain.InvestmentHolding {
	return domain.InvestmentHolding{
		ID:            r.HoldingID,
		UserID:        r.UserID,
		Symbol:        r.Symbol,
		Quantity:      ratToDecimal(r.Quantity),
		PurchasePrice: ratToDecimal(r.PurchasePrice),
		CurrentPrice:  ratToDecimal(r.CurrentPrice),
		PurchaseDate:  dateToTime(r.PurchaseDate),
	}
}

func (r *CreditScoreRow) toDomain() domain.CreditScoreRecord {
	return domain.CreditScoreRecord{
		Score:    int(r.Score),
		Date:     dateToTime(r.ScoreDate),
		Provider: r.Provider.StringVal,
	}
}

// newInsightRow converts an insight for storage.
func newInsightRow(in domain.Insight) (*InsightRow, error) {
	row := &InsightRow{
		InsightID:   in.ID,
		UserID:      in.UserID,
		InsightType: string(in.Type),
		Title:       in.Title,
		Description: in.Description,
		Impact:      in.Impact,
		CreatedTS:   in.CreatedAt,
		IsRead:      in.IsRead,
	}
	if in.ExpiresAt != nil {
		row.ExpiresTS = bigquery.NullTimestamp{Timestamp: *in.ExpiresAt, Valid: true}
	}
	if in.Data != nil {
		raw, err := json.Marshal(in.Data)
		if err != nil {
			return nil, fmt.Errorf("newInsightRow: encoding related data for %s: %w", in.ID, err)
		}
		row.RelatedData = bigquery.NullJSON{JSONVal: string(raw), Valid: true}
	}
	return row, nil
}

func (r *InsightRow) toDomain() (domain.Insight, error) {
	in := domain.Insight{
		ID:          r.InsightID,
		UserID:      r.UserID,
		Type:        domain.InsightType(r.InsightType),
		Title:       r.Title,
		Description: r.Description,
		Impact:      r.Impact,
		CreatedAt:   r.CreatedTS.UTC(),
		IsRead:      r.IsRead,
	}
	if r.ExpiresTS.Valid {
		expires := r.ExpiresTS.Timestamp.UTC()
		in.ExpiresAt = &expires
	}
	if r.RelatedData.Valid && r.RelatedData.JSONVal != "" {
		data, err := domain.DecodeInsightData(in.Type, []byte(r.RelatedData.JSONVal))
		if err != nil {
			return domain.Insight{}, fmt.Errorf("insight %s: %w", r.InsightID, err)
		}
		in.Data = data
	}
	return in, nil
}

func timeToDate(t time.Time) civil.Date {
	return civil.DateOf(t.UTC())
}

func newTransactionRow(t domain.Transaction) *TransactionRow {
	return &TransactionRow{
		TransactionID:   t.ID,
		UserID:          t.UserID,
		AccountID:       nullString(t.AccountID),
		CategoryID:      nullString(t.CategoryID),
		TransactionDate: timeToDate(t.Date),
		Amount:          decimalToRat(t.Amount),
		RawDescription:  t.Description,
	}
}

func newBudgetRow(b domain.Budget) *BudgetRow {
	return &BudgetRow{
		BudgetID:   b.ID,
		UserID:     b.UserID,
		CategoryID: b.CategoryID,
		Name:       nullString(b.Name),
		Amount:     decimalToRat(b.Amount),
		Period:     string(b.Period),
		StartDate:  timeToDate(b.StartDate),
		EndDate:    timeToDate(b.EndDate),
	}
}

func newGoalRow(g domain.Goal) *GoalRow {
	return &GoalRow{
		GoalID:        g.ID,
		UserID:        g.UserID,
		Name:          g.Name,
		TargetAmount:  decimalToRat(g.TargetAmount),
		CurrentAmount: decimalToRat(g.CurrentAmount),
		TargetDate:    timeToDate(g.TargetDate),
		CreatedTS:     g.CreatedAt.UTC(),
	}
}

func newHoldingRow(h domain.InvestmentHolding) *HoldingRow {
	return &HoldingRow{
		HoldingID:     h.ID,
		UserID:        h.UserID,
		Symbol:        h.Symbol,
		Quantity:      decimalToRat(h.Quantity),
		PurchasePrice: decimalToRat(h.PurchasePrice),
		CurrentPrice:  decimalToRat(h.CurrentPrice),
		PurchaseDate:  timeToDate(h.PurchaseDate),
	}
}

func newCreditScoreRow(userID string, r domain.CreditScoreRecord) *CreditScoreRow {
	return &CreditScoreRow{
		UserID:    userID,
		Score:     int64(r.Score),
		ScoreDate: timeToDate(r.Date),
		Provider:  nullString(r.Provider),
	}
}
