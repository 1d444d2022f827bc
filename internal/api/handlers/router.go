package handlers

import (
	"net/http"
	"time"

	"github.com/dvloznov/finance-insights/internal/api/middleware"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// RouterConfig collects what NewRouter wires together.
type RouterConfig struct {
	Insights *InsightsHandler
	Jobs     *JobsHandler
	Log      zerolog.Logger
	Reporter insights.ErrorReporter

	// AuthToken enables bearer authentication on /api routes when set.
	AuthToken string
}

// NewRouter builds the API router with the standard middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Log))
	r.Use(middleware.Recovery(cfg.Log, cfg.Reporter))
	r.Use(middleware.CORS)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.AuthToken))

		r.Route("/users/{userID}", func(r chi.Router) {
			ih := cfg.Insights
			r.Post("/insights/generate", ih.GenerateInsights)
			r.Get("/insights", ih.ListInsights)
			r.Get("/insights/{insightID}", ih.GetInsight)
			r.Post("/insights/{insightID}/read", ih.MarkInsightRead)
			r.Delete("/insights/{insightID}", ih.DeleteInsight)
			r.Get("/insights/{insightID}/narrative", ih.Narrative)

			r.Get("/budgets/{budgetID}/progress", ih.BudgetProgress)
			r.Get("/goals/{goalID}/progress", ih.GoalProgress)
			r.Get("/portfolio/performance", ih.PortfolioPerformance)
			r.Get("/credit/trend", ih.CreditTrend)

			if cfg.Jobs != nil {
				r.Post("/insights/jobs", cfg.Jobs.EnqueueGeneration)
			}
		})

		if cfg.Jobs != nil {
			r.Get("/jobs", cfg.Jobs.ListJobs)
			r.Get("/jobs/{jobID}", cfg.Jobs.GetJob)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
