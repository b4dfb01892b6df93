package handler

import (
	"net/http"

	"articly/internal/domain"
	"articly/internal/middleware"
	"articly/internal/service"
	"articly/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// AnalyticsHandler handles the author dashboard and administrative
// aggregation triggers
type AnalyticsHandler struct {
	analytics service.Aggregator
	scheduler *service.AggregationScheduler
	logger    *logger.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analytics service.Aggregator, scheduler *service.AggregationScheduler, logger *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Dashboard handles GET /api/author/dashboard
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	page, size := pageParams(r)

	result, err := h.analytics.Dashboard(r.Context(), claims.UserID, page, size)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, h.logger, http.StatusOK, result, "")
}

// ArticleStats handles GET /api/author/articles/{id}/stats
func (h *AnalyticsHandler) ArticleStats(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	id := chi.URLParam(r, "id")

	stats, err := h.analytics.ArticleStats(r.Context(), id, claims.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, h.logger, http.StatusOK, stats, "")
}

// TriggerAggregation handles POST /api/admin/aggregate.
// mode=enqueue dispatches the run in the background; the default runs it
// synchronously and reports the number of articles aggregated.
func (h *AnalyticsHandler) TriggerAggregation(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("mode") == "enqueue" {
		h.scheduler.EnqueueRun()
		writeSuccess(w, h.logger, http.StatusAccepted, nil, "Aggregation run enqueued")
		return
	}

	count, err := h.scheduler.RunNow(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, h.logger, http.StatusOK, map[string]int{"articles_aggregated": count}, "")
}

// RegisterRoutes registers analytics routes with the router
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router, authService service.AuthService) {
	r.Route("/author", func(r chi.Router) {
		r.Use(middleware.Auth(authService, h.logger))
		r.Use(middleware.RequireRole(domain.RoleAuthor, h.logger))

		r.Get("/dashboard", h.Dashboard)
		r.Get("/articles/{id}/stats", h.ArticleStats)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(authService, h.logger))
		r.Use(middleware.RequireRole(domain.RoleAuthor, h.logger))

		r.Post("/aggregate", h.TriggerAggregation)
	})
}
