package insights

import (
	"time"

	"github.com/google/uuid"
)

// Options holds the thresholds used by the insight rules.
type Options struct {
	// TransactionWindowDays is how far back transactions are fetched.
	TransactionWindowDays int `yaml:"transaction_window_days"`

	// SpendingWindowDays is the length of the "current" spending window.
	// The baseline is the remainder of the transaction window.
	SpendingWindowDays int `yaml:"spending_window_days"`

	// BudgetAlertPercent is the usage above which a budget insight is emitted.
	BudgetAlertPercent float64 `yaml:"budget_alert_percent"`

	// SpendingIncreaseRatio is the multiple of baseline spend that triggers a spending insight.
	SpendingIncreaseRatio float64 `yaml:"spending_increase_ratio"`

	// CreditDropThreshold is the minimum score drop that triggers a credit insight.
	CreditDropThreshold float64 `yaml:"credit_drop_threshold"`

	// InsightTTL sets ExpiresAt on generated insights. Zero disables expiry.
	InsightTTL time.Duration `yaml:"insight_ttl"`
}

// DefaultOptions returns the production thresholds.
func DefaultOptions() Options {
	return Options{
		TransactionWindowDays: 90,
		SpendingWindowDays:    30,
		BudgetAlertPercent:    90,
		SpendingIncreaseRatio: 1.2,
		CreditDropThreshold:   10,
		InsightTTL:            30 * 24 * time.Hour,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TransactionWindowDays < 2 {
		o.TransactionWindowDays = d.TransactionWindowDays
	}
	if o.SpendingWindowDays <= 0 || o.SpendingWindowDays >= o.TransactionWindowDays {
		o.SpendingWindowDays = max(1, o.TransactionWindowDays/3)
	}
	if o.BudgetAlertPercent <= 0 {
		o.BudgetAlertPercent = d.BudgetAlertPercent
	}
	if o.SpendingIncreaseRatio <= 0 {
		o.SpendingIncreaseRatio = d.SpendingIncreaseRatio
	}
	if o.CreditDropThreshold <= 0 {
		o.CreditDropThreshold = d.CreditDropThreshold
	}
	return o
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithOptions replaces the rule thresholds. Zero fields fall back to defaults.
func WithOptions(o Options) Option {
	return func(a *Aggregator) {
		a.opts = o.withDefaults()
	}
}

// WithReporter sends upstream and persistence failures to r.
func WithReporter(r ErrorReporter) Option {
	return func(a *Aggregator) {
		if r != nil {
			a.reporter = r
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithIDGenerator overrides insight ID generation.
func WithIDGenerator(newID func() string) Option {
	return func(a *Aggregator) {
		if newID != nil {
			a.newID = newID
		}
	}
}

func defaultID() string {
	return uuid.NewString()
}
