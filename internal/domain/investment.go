package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentHolding is a position in a single security.
type InvestmentHolding struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Symbol        string          `json:"symbol"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	CurrentPrice  decimal.Decimal `json:"currentPrice"`
	PurchaseDate  time.Time       `json:"purchaseDate"`
}

// CurrentValue is quantity times current price.
func (h InvestmentHolding) CurrentValue() decimal.Decimal {
	return h.Quantity.Mul(h.CurrentPrice)
}

// CostBasis is quantity times purchase price.
func (h InvestmentHolding) CostBasis() decimal.Decimal {
	return h.Quantity.Mul(h.PurchasePrice)
}

// Performance is a return summary. ROI and AnnualizedReturn are fractions (0.1 == 10%).
type Performance struct {
	ROI              float64 `json:"roi"`
	AnnualizedReturn float64 `json:"annualizedReturn"`
}
