// Package performance computes investment returns for single holdings and portfolios.
package performance

import (
	"fmt"
	"math"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/shopspring/decimal"
)

const daysPerYear = 365.0

// AnalyzeHolding returns the ROI of one holding and its annualized rate as of asOf.
func AnalyzeHolding(h domain.InvestmentHolding, asOf time.Time) (domain.Performance, error) {
	if err := validateHolding(h); err != nil {
		return domain.Performance{}, err
	}
	return compute(h.CurrentValue(), h.CostBasis(), heldDays(h.PurchaseDate, asOf)), nil
}

// Analyze aggregates holdings into one portfolio figure.
// The holding period is the cost-basis weighted mean of each holding's period.
// An empty portfolio or one with zero total cost basis yields a zero result.
func Analyze(holdings []domain.InvestmentHolding, asOf time.Time) (domain.Performance, error) {
	totalValue := decimal.Zero
	totalCost := decimal.Zero
	weightedDays := decimal.Zero

	for _, h := range holdings {
		if err := validateHolding(h); err != nil {
			return domain.Performance{}, err
		}
		cost := h.CostBasis()
		totalValue = totalValue.Add(h.CurrentValue())
		totalCost = totalCost.Add(cost)
		weightedDays = weightedDays.Add(cost.Mul(decimal.NewFromFloat(heldDays(h.PurchaseDate, asOf))))
	}

	if totalCost.IsZero() {
		return domain.Performance{}, nil
	}

	days := weightedDays.Div(totalCost).InexactFloat64()
	return compute(totalValue, totalCost, days), nil
}

func compute(value, cost decimal.Decimal, days float64) domain.Performance {
	if cost.IsZero() {
		return domain.Performance{}
	}

	roi := value.Sub(cost).Div(cost).InexactFloat64()
	if days < 1 {
		days = 1
	}

	return domain.Performance{
		ROI:              roi,
		AnnualizedReturn: math.Pow(1+roi, daysPerYear/days) - 1,
	}
}

func heldDays(purchased, asOf time.Time) float64 {
	days := math.Floor(asOf.Sub(purchased).Hours() / 24)
	return math.Max(1, days)
}

func validateHolding(h domain.InvestmentHolding) error {
	switch {
	case h.Quantity.IsNegative():
		return domain.NewInvalidInputError("quantity", fmt.Sprintf("holding %s (%s) has negative quantity %s", h.ID, h.Symbol, h.Quantity))
	case h.PurchasePrice.IsNegative():
		return domain.NewInvalidInputError("purchasePrice", fmt.Sprintf("holding %s (%s) has negative purchase price %s", h.ID, h.Symbol, h.PurchasePrice))
	case h.CurrentPrice.IsNegative():
		return domain.NewInvalidInputError("currentPrice", fmt.Sprintf("holding %s (%s) has negative current price %s", h.ID, h.Symbol, h.CurrentPrice))
	}
	return nil
}
