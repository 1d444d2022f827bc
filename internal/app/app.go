// Package app wires configuration into a ready-to-use insight service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/creditbureau"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/export"
	infraBQ "github.com/dvloznov/finance-insights/internal/infra/bigquery"
	"github.com/dvloznov/finance-insights/internal/infra/memory"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/dvloznov/finance-insights/internal/jobs"
	"github.com/dvloznov/finance-insights/internal/narrator"
	"github.com/dvloznov/finance-insights/internal/observability"
	"github.com/rs/zerolog"
)

// backend is a storage implementation serving both ports.
type backend interface {
	insights.DataSource
	insights.InsightStore
}

// App holds the wired service and the resources it owns.
type App struct {
	Config   config.Config
	Service  *insights.Service
	Store    insights.InsightStore
	Reporter *observability.Reporter

	log     zerolog.Logger
	closers []func() error
}

// Build constructs the storage backend, the optional credit bureau and
// narrator integrations and the insight service on top of them.
func Build(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, log: log}

	reporter, err := observability.Init(observability.Config{
		DSN:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Sentry: %w", err)
	}
	a.Reporter = reporter

	store, err := a.openBackend(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Store = store

	var source insights.DataSource = store
	if cfg.CreditBureau.BaseURL != "" {
		bureau, err := creditbureau.NewClient(creditbureau.Options{
			BaseURL:      cfg.CreditBureau.BaseURL,
			APIKey:       cfg.CreditBureau.APIKey,
			HTTPClient:   &http.Client{Timeout: cfg.CreditBureau.Timeout},
			RetryMax:     cfg.CreditBureau.RetryMax,
			RetryWaitMin: cfg.CreditBureau.RetryWaitMin,
			RetryWaitMax: cfg.CreditBureau.RetryWaitMax,
			Logger:       log,
		})
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to create credit bureau client: %w", err)
		}
		source = creditbureau.NewSource(store, bureau, log)
		log.Info().Str("base_url", cfg.CreditBureau.BaseURL).Msg("Credit bureau source enabled")
	}

	var narr insights.Narrator
	if cfg.Gemini.Enabled {
		g, err := narrator.NewGemini(ctx, cfg.Gemini.Model, log)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		narr = g
		log.Info().Str("model", cfg.Gemini.Model).Msg("Gemini narration enabled")
	}

	agg := insights.NewAggregator(source, store, log,
		insights.WithOptions(cfg.Insights),
		insights.WithReporter(reporter),
	)
	a.Service = insights.NewService(agg, store, narr)
	return a, nil
}

func (a *App) openBackend(ctx context.Context) (backend, error) {
	switch a.Config.Store.Backend {
	case config.BackendBigQuery:
		repo, err := infraBQ.NewRepository(ctx, a.Config.BigQuery.ProjectID, a.Config.BigQuery.DatasetID)
		if err != nil {
			return nil, fmt.Errorf("failed to create BigQuery repository: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		a.log.Info().
			Str("project_id", a.Config.BigQuery.ProjectID).
			Str("dataset_id", a.Config.BigQuery.DatasetID).
			Msg("Using BigQuery backend")
		return repo, nil

	case config.BackendMemory, "":
		if a.Config.Store.SeedFile == "" {
			a.log.Warn().Msg("Using empty in-memory backend")
			return memory.NewStore(), nil
		}
		store, err := memory.LoadSeedFile(a.Config.Store.SeedFile, time.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to load seed data: %w", err)
		}
		a.log.Info().Str("seed_file", a.Config.Store.SeedFile).Msg("Using seeded in-memory backend")
		return store, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", a.Config.Store.Backend)
}

// NewArchiver opens a Cloud Storage writer for the configured export bucket.
// The writer is closed together with the App.
func (a *App) NewArchiver(ctx context.Context) (*export.Archiver, error) {
	if a.Config.Export.Bucket == "" {
		return nil, domain.NewInvalidInputError("export.bucket", "no export bucket configured (set GCS_BUCKET)")
	}
	w, err := export.NewGCSStore(ctx)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, w.Close)
	return export.NewArchiver(w, a.Config.Export.Bucket, a.Config.Export.Prefix, a.log), nil
}

// Close releases backend clients and flushes pending error reports.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if a.Reporter != nil {
		a.Reporter.Flush(2 * time.Second)
	}
	return errors.Join(errs...)
}

// Generator runs one generation for a user.
type Generator interface {
	GenerateInsights(ctx context.Context, userID string) ([]domain.Insight, error)
}

// GenerationHandler adapts a Generator to the job queue.
//
// A persistence failure fails the job so the queue retries it. Invalid user
// IDs are not retried.
func GenerationHandler(gen Generator, log zerolog.Logger) jobs.JobHandler {
	return func(ctx context.Context, job *jobs.GenerateInsightsJob) error {
		jobLog := log.With().Str("job_id", job.JobID).Str("user_id", job.UserID).Logger()
		jobLog.Info().Str("trigger", string(job.Trigger)).Msg("Processing generate insights job")

		list, err := gen.GenerateInsights(ctx, job.UserID)
		if err != nil {
			jobLog.Error().Err(err).Msg("Insight generation failed")
			if errors.Is(err, domain.ErrInvalidInput) {
				return jobs.Permanent(err)
			}
			return err
		}

		job.InsightCount = len(list)
		jobLog.Info().Int("insights", len(list)).Msg("Insight generation completed")
		return nil
	}
}
