package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Seed is the YAML layout of a development dataset.
//
// Dates accept either an absolute "2006-01-02" value or an offset from the
// load time such as "now", "now-10d" or "now+30d", so a checked-in seed keeps
// producing insights as time passes.
type Seed struct {
	Users []SeedUser `yaml:"users"`
}

// SeedUser holds one user's records.
type SeedUser struct {
	ID           string            `yaml:"id"`
	Transactions []seedTransaction `yaml:"transactions"`
	Budgets      []seedBudget      `yaml:"budgets"`
	Goals        []seedGoal        `yaml:"goals"`
	Holdings     []seedHolding     `yaml:"holdings"`
	CreditScores []seedCreditScore `yaml:"credit_scores"`
}

type seedTransaction struct {
	ID          string `yaml:"id"`
	AccountID   string `yaml:"account_id"`
	CategoryID  string `yaml:"category_id"`
	Amount      string `yaml:"amount"`
	Date        string `yaml:"date"`
	Description string `yaml:"description"`
}

type seedBudget struct {
	ID         string `yaml:"id"`
	CategoryID string `yaml:"category_id"`
	Name       string `yaml:"name"`
	Amount     string `yaml:"amount"`
	Period     string `yaml:"period"`
	StartDate  string `yaml:"start_date"`
	EndDate    string `yaml:"end_date"`
}

type seedGoal struct {
	ID            string `yaml:"id"`
	Name          string `yaml:"name"`
	TargetAmount  string `yaml:"target_amount"`
	CurrentAmount string `yaml:"current_amount"`
	TargetDate    string `yaml:"target_date"`
	CreatedAt     string `yaml:"created_at"`
}

type seedHolding struct {
	ID            string `yaml:"id"`
	Symbol        string `yaml:"symbol"`
	Quantity      string `yaml:"quantity"`
	PurchasePrice string `yaml:"purchase_price"`
	CurrentPrice  string `yaml:"current_price"`
	PurchaseDate  string `yaml:"purchase_date"`
}

type seedCreditScore struct {
	Score    int    `yaml:"score"`
	Date     string `yaml:"date"`
	Provider string `yaml:"provider"`
}

// LoadSeedFile reads a YAML seed from path into a new Store.
func LoadSeedFile(path string, now time.Time) (*Store, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("LoadSeedFile: reading %s: %w", path, err)
	}
	return LoadSeed(data, now)
}

// LoadSeed parses YAML seed data into a new Store.
func LoadSeed(data []byte, now time.Time) (*Store, error) {
	users, err := ParseSeed(data, now)
	if err != nil {
		return nil, err
	}

	store := NewStore()
	for _, u := range users {
		store.AddRecords(u)
	}
	return store, nil
}

// AddRecords adds every record in u.
func (s *Store) AddRecords(u domain.UserRecords) {
	s.AddTransactions(u.UserID, u.Transactions...)
	s.AddBudgets(u.UserID, u.Budgets...)
	s.AddGoals(u.UserID, u.Goals...)
	s.AddHoldings(u.UserID, u.Holdings...)
	s.AddCreditScores(u.UserID, u.CreditScores...)
}

// ParseSeed parses YAML seed data into per-user records, resolving relative
// dates against now.
func ParseSeed(data []byte, now time.Time) ([]domain.UserRecords, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("ParseSeed: parsing yaml: %w", err)
	}

	out := make([]domain.UserRecords, 0, len(seed.Users))
	for _, u := range seed.Users {
		rec, err := u.records(now)
		if err != nil {
			return nil, fmt.Errorf("ParseSeed: user %s: %w", u.ID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (u SeedUser) records(now time.Time) (domain.UserRecords, error) {
	p := &seedParser{now: now}
	rec := domain.UserRecords{UserID: u.ID}

	for _, t := range u.Transactions {
		rec.Transactions = append(rec.Transactions, domain.Transaction{
			ID:          t.ID,
			UserID:      u.ID,
			AccountID:   t.AccountID,
			CategoryID:  t.CategoryID,
			Amount:      p.amount("transaction "+t.ID+" amount", t.Amount),
			Date:        p.date("transaction "+t.ID+" date", t.Date),
			Description: t.Description,
		})
	}
	for _, b := range u.Budgets {
		rec.Budgets = append(rec.Budgets, domain.Budget{
			ID:         b.ID,
			UserID:     u.ID,
			CategoryID: b.CategoryID,
			Name:       b.Name,
			Amount:     p.amount("budget "+b.ID+" amount", b.Amount),
			Period:     domain.BudgetPeriod(b.Period),
			StartDate:  p.date("budget "+b.ID+" start_date", b.StartDate),
			EndDate:    p.date("budget "+b.ID+" end_date", b.EndDate),
		})
	}
	for _, g := range u.Goals {
		rec.Goals = append(rec.Goals, domain.Goal{
			ID:            g.ID,
			UserID:        u.ID,
			Name:          g.Name,
			TargetAmount:  p.amount("goal "+g.ID+" target_amount", g.TargetAmount),
			CurrentAmount: p.amount("goal "+g.ID+" current_amount", g.CurrentAmount),
			TargetDate:    p.date("goal "+g.ID+" target_date", g.TargetDate),
			CreatedAt:     p.date("goal "+g.ID+" created_at", g.CreatedAt),
		})
	}
	for _, h := range u.Holdings {
		rec.Holdings = append(rec.Holdings, domain.InvestmentHolding{
			ID:            h.ID,
			UserID:        u.ID,
			Symbol:        h.Symbol,
			Quantity:      p.amount("holding "+h.ID+" quantity", h.Quantity),
			PurchasePrice: p.amount("holding "+h.ID+" purchase_price", h.PurchasePrice),
			CurrentPrice:  p.amount("holding "+h.ID+" current_price", h.CurrentPrice),
			PurchaseDate:  p.date("holding "+h.ID+" purchase_date", h.PurchaseDate),
		})
	}
	for _, c := range u.CreditScores {
		rec.CreditScores = append(rec.CreditScores, domain.CreditScoreRecord{
			Score:    c.Score,
			Date:     p.date("credit score date", c.Date),
			Provider: c.Provider,
		})
	}

	return rec, p.err
}

// seedParser records the first conversion error so apply can stay linear.
type seedParser struct {
	now time.Time
	err error
}

func (p *seedParser) amount(field, raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %w", field, err)
	}
	return d
}

func (p *seedParser) date(field, raw string) time.Time {
	t, err := ParseSeedDate(raw, p.now)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %w", field, err)
	}
	return t
}

// ParseSeedDate resolves "2006-01-02", "now", "now-Nd" or "now+Nd" against now.
func ParseSeedDate(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if !strings.HasPrefix(raw, "now") {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q", raw)
		}
		return t, nil
	}

	offset := strings.TrimPrefix(raw, "now")
	if offset == "" {
		return now, nil
	}
	if !strings.HasSuffix(offset, "d") || len(offset) < 3 {
		return time.Time{}, fmt.Errorf("invalid relative date %q", raw)
	}
	days, err := strconv.Atoi(strings.TrimSuffix(offset, "d"))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid relative date %q", raw)
	}
	return now.AddDate(0, 0, days), nil
}
