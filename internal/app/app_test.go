package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/dvloznov/finance-insights/internal/jobs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedUser = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"

const seedYAML = `
users:
  - id: 9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d
    goals:
      - id: g1
        name: Emergency fund
        target_amount: "1000"
        current_amount: "100"
        created_at: now-50d
        target_date: now+50d
`

func TestBuild_MemoryBackendWithSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))

	cfg := config.Default()
	cfg.Store.SeedFile = path

	a, err := Build(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	list, err := a.Service.GenerateInsights(context.Background(), seedUser)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.InsightGoal, list[0].Type)

	stored, err := a.Store.ListInsights(context.Background(), seedUser, insights.Filter{})
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestBuild_Errors(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "postgres"
	_, err := Build(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, `unknown store backend "postgres"`)

	cfg = config.Default()
	cfg.Store.SeedFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = Build(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "failed to load seed data")

	cfg = config.Default()
	cfg.CreditBureau.BaseURL = "https://bureau.example.com"
	a, err := Build(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, a.Close())
}

func TestNewArchiver_RequiresBucket(t *testing.T) {
	a, err := Build(context.Background(), config.Default(), zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	_, err = a.NewArchiver(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

type generatorFunc func(ctx context.Context, userID string) ([]domain.Insight, error)

func (f generatorFunc) GenerateInsights(ctx context.Context, userID string) ([]domain.Insight, error) {
	return f(ctx, userID)
}

func TestGenerationHandler(t *testing.T) {
	tests := []struct {
		name          string
		result        []domain.Insight
		err           error
		wantErr       bool
		wantPermanent bool
		wantCount     int
	}{
		{name: "success", result: []domain.Insight{{ID: "a"}, {ID: "b"}}, wantCount: 2},
		{name: "transient", err: &domain.PersistenceError{Count: 1, Err: errors.New("quota")}, wantErr: true},
		{name: "invalid user", err: domain.NewInvalidInputError("userId", "bad"), wantErr: true, wantPermanent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := GenerationHandler(generatorFunc(func(context.Context, string) ([]domain.Insight, error) {
				return tt.result, tt.err
			}), zerolog.Nop())

			job := &jobs.GenerateInsightsJob{JobID: "j1", UserID: seedUser}
			err := handler(context.Background(), job)

			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.wantCount, job.InsightCount)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantPermanent, jobs.IsPermanent(err))
		})
	}
}

func TestBuild_DevelopmentSeed(t *testing.T) {
	cfg := config.Default()
	cfg.Store.SeedFile = filepath.Join("..", "..", "configs", "seed.yaml")

	a, err := Build(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	list, err := a.Service.GenerateInsights(context.Background(), "0b7c4a52-3d1e-4f6a-8b9c-2d3e4f5a6b7c")
	require.NoError(t, err)

	types := map[domain.InsightType]bool{}
	for _, in := range list {
		types[in.Type] = true
	}
	for _, want := range []domain.InsightType{
		domain.InsightBudget, domain.InsightGoal, domain.InsightInvestment,
		domain.InsightCreditScore, domain.InsightSpending, domain.InsightSaving,
	} {
		assert.True(t, types[want], "missing %s insight", want)
	}

	healthy, err := a.Service.GenerateInsights(context.Background(), "5f0e2d1c-8b7a-4c6d-9e8f-7a6b5c4d3e2f")
	require.NoError(t, err)
	assert.Empty(t, healthy)
}
