// Package handlers implements the HTTP API over the insight service and job queue.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dvloznov/finance-insights/internal/api/middleware"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// PersistedHeader is set to "false" when generated insights could not be stored.
const PersistedHeader = "X-Insights-Persisted"

// InsightService is the subset of *insights.Service the handlers call.
type InsightService interface {
	GenerateInsights(ctx context.Context, userID string) ([]domain.Insight, error)
	ListInsights(ctx context.Context, userID string, filter insights.Filter) ([]domain.Insight, error)
	GetInsight(ctx context.Context, userID, insightID string) (*domain.Insight, error)
	MarkInsightRead(ctx context.Context, userID, insightID string) error
	DeleteInsight(ctx context.Context, userID, insightID string) error
	Narrate(ctx context.Context, userID, insightID string) (string, error)
	BudgetProgress(ctx context.Context, userID, budgetID string) (*insights.BudgetReport, error)
	GoalProgress(ctx context.Context, userID, goalID string) (*domain.GoalProgress, error)
	PortfolioPerformance(ctx context.Context, userID string) (*insights.PortfolioReport, error)
	CreditTrend(ctx context.Context, userID string) (*insights.CreditReport, error)
}

var _ InsightService = (*insights.Service)(nil)

// InsightsHandler handles insight and analytics endpoints.
type InsightsHandler struct {
	svc InsightService
	log zerolog.Logger
}

// NewInsightsHandler creates a new insights handler.
func NewInsightsHandler(svc InsightService, log zerolog.Logger) *InsightsHandler {
	return &InsightsHandler{
		svc: svc,
		log: log,
	}
}

// GenerateInsights handles POST /api/users/{userID}/insights/generate
func (h *InsightsHandler) GenerateInsights(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	list, err := h.svc.GenerateInsights(r.Context(), userID)
	var perr *domain.PersistenceError
	switch {
	case errors.As(err, &perr):
		h.log.Warn().Err(err).Str("user_id", userID).Msg("Returning insights that were not persisted")
		w.Header().Set(PersistedHeader, "false")
	case err != nil:
		middleware.WriteDomainError(w, h.log, err, "Failed to generate insights")
		return
	default:
		w.Header().Set(PersistedHeader, "true")
	}

	middleware.WriteJSON(w, http.StatusOK, list)
}

// ListInsights handles GET /api/users/{userID}/insights
func (h *InsightsHandler) ListInsights(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := insights.Filter{Type: domain.InsightType(query.Get("type"))}

	if v := query.Get("unread"); v != "" {
		unread, err := strconv.ParseBool(v)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "unread must be a boolean")
			return
		}
		filter.UnreadOnly = unread
	}
	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			middleware.WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	list, err := h.svc.ListInsights(r.Context(), chi.URLParam(r, "userID"), filter)
	if err != nil {
		middleware.WriteDomainError(w, h.log, err, "Failed to list insights")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, list)
}

// GetInsight handles GET /api/users/{userID}/insights/{insightID}
func (h *InsightsHandler) GetInsight(w http.ResponseWriter, r *http.Request) {
	insight, err := h.svc.GetInsight(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "insightID"))
	if err != nil {
		middleware.WriteDomainError(w, h.log, err, "Failed to get insight")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, insight)
}

// MarkInsightRead handles POST /api/users/{userID}/insights/{insightID}/read
func (h *InsightsHandler) MarkInsightRead(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.MarkInsightRead(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "insightID")); err != nil {
		middleware.WriteDomainError(w, h.log, err, "Failed to mark insight read")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteInsight handles DELETE /api/users/{userID}/insights/{insightID}
func (h *InsightsHandler) DeleteInsight(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteInsight(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "insightID")); err != nil {
		middleware.WriteDomainError(w, h.log, err, "Failed to delete insight")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Narrative handles GET /api/users/{userID}/insights/{insightID}/narrative
func (h *InsightsHandler) Narrative(w http.ResponseWriter, r *http.Request) {
	insightID := chi.URLParam(r, "insightID")

	text, err := h.svc.Narrate(r.Context(), chi.URLParam(r, "userID"), insightID)
	if errors.Is(err, insights.ErrNarrationUnavailable) {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Narration is not enabled")
		return
	}
	if err != nil {
		middleware.WriteDomainError(w, h.log, err, "Failed to narrate insight")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"insightId": insightID,
		"narrative": text,
	})
}

// BudgetProgress handles GET /api/users/{userID}/budgets/{budgetID}/progress
func (h *InsightsHandler) BudgetProgress(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.BudgetProgress(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "budgetID"))
	if err != nil {
		middleware.WriteDomainError(w, h.log, err, "Failed to compute budget progress")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, report)
}

// GoalProgress handles GET /api/users/{userID}/goals/{goalID}/progress
func (h *InsightsHandler) GoalProgress(w http.ResponseWriter, r *http.Request) {
	gp, err := h.svc.GoalProgress(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "goalID"))
	if err != nil {
		middleware.WriteDomainError(w, h.log, err, "Failed to compute goal progress")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, gp)
}

// PortfolioPerformance handles GET /api/users/{userID}/portfolio/performance
func (h *InsightsHandler) PortfolioPerformance(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.PortfolioPerformance(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		middleware.WriteDomainError(w, h.log, err, "Failed to analyze portfolio")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, report)
}

// CreditTrend handles GET /api/users/{userID}/credit/trend
func (h *InsightsHandler) CreditTrend(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.CreditTrend(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		middleware.WriteDomainError(w, h.log, err, "Failed to analyze credit trend")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, report)
}
