// Package observability reports errors to Sentry.
package observability

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
)

// Config selects the Sentry project. An empty DSN disables reporting.
type Config struct {
	DSN         string
	Environment string
	Release     string
}

// Reporter sends errors to Sentry. It prefers the hub stored in the context
// and falls back to its own.
type Reporter struct {
	hub *sentry.Hub
	log zerolog.Logger
}

var _ insights.ErrorReporter = (*Reporter)(nil)

// Init initializes the global Sentry client and returns a Reporter bound to it.
// With an empty DSN the Reporter only logs.
func Init(cfg Config, log zerolog.Logger) (*Reporter, error) {
	if cfg.DSN == "" {
		log.Info().Msg("Sentry DSN not set, error reporting disabled")
		return &Reporter{log: log}, nil
	}

	env := cfg.Environment
	if env == "" {
		env = "production"
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: env,
		Release:     cfg.Release,
	}); err != nil {
		return nil, err
	}

	log.Info().Str("environment", env).Msg("Sentry initialized")
	return &Reporter{hub: sentry.CurrentHub(), log: log}, nil
}

// NewReporter wraps an existing hub.
func NewReporter(hub *sentry.Hub, log zerolog.Logger) *Reporter {
	return &Reporter{hub: hub, log: log}
}

// CaptureError implements insights.ErrorReporter.
func (r *Reporter) CaptureError(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = r.hub
	}
	if hub == nil {
		r.log.Debug().Err(err).Msg("Error not reported, Sentry disabled")
		return
	}

	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		scope.SetContext("error", map[string]interface{}{
			"chain": errorChain(err),
		})
		hub.CaptureException(err)
	})
}

// Flush waits up to timeout for buffered events to be sent.
func (r *Reporter) Flush(timeout time.Duration) bool {
	if r.hub == nil {
		return true
	}
	return r.hub.Flush(timeout)
}

// errorChain lists the messages of err and everything it wraps.
func errorChain(err error) []string {
	var chain []string
	for err != nil {
		chain = append(chain, err.Error())
		err = errors.Unwrap(err)
	}
	return chain
}
