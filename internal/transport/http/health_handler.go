package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "parisdash/internal/errors"
	"parisdash/internal/services"
)

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	Deps
	health HealthReader
	data   DashboardReader
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(health HealthReader, data DashboardReader, deps Deps) *HealthHandler {
	return &HealthHandler{Deps: deps.withDefaults("health"), health: health, data: data}
}

// Routes returns the health checks mounted under /api/health
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.HealthCheck)
	r.Get("/live", h.LivenessCheck)
	r.Get("/ready", h.ReadinessCheck)
	r.Get("/detailed", h.Detailed)
	return r
}

// HealthCheck handles GET /api/health. It answers 503 while the gold
// dataset cannot be loaded.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, err := h.data.Health(r.Context())
	if err != nil {
		h.Logger.ErrorContext(r.Context(), "health check failed", slog.String("error", err.Error()))
		h.fail(w, r, apierrors.ErrServiceUnavailable)
		return
	}
	h.ok(w, r, status)
}

// LivenessCheck handles GET /api/health/live
func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	h.ok(w, r, h.health.Liveness(r.Context()))
}

// ReadinessCheck handles GET /api/health/ready
func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status, err := h.health.Readiness(r.Context())
	if err != nil {
		h.fail(w, r, apierrors.NewWithDetails(http.StatusServiceUnavailable, apierrors.CodeServiceUnavailable,
			status.Message, map[string]any{"status": status.Status}))
		return
	}
	h.ok(w, r, status)
}

// Detailed handles GET /api/health/detailed. A degraded report is still a
// 200 so that dashboards can read it.
func (h *HealthHandler) Detailed(w http.ResponseWriter, r *http.Request) {
	report := h.health.Detailed(r.Context())
	resp := NewResponse(report)
	if report.Status != services.StatusHealthy {
		resp.WithMessage("Le jeu de données Gold n'est pas chargé")
	}
	h.send(w, r, resp)
}

// Version handles GET /api/version
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	h.ok(w, r, h.health.Version())
}
