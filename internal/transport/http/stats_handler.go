package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// StatsHandler serves /api/stats
type StatsHandler struct {
	Deps
	dashboard DashboardReader
	stats     StatsReader
}

// NewStatsHandler creates the statistics handler
func NewStatsHandler(dashboard DashboardReader, stats StatsReader, deps Deps) *StatsHandler {
	return &StatsHandler{Deps: deps.withDefaults("stats"), dashboard: dashboard, stats: stats}
}

// Routes returns the statistics routes
func (h *StatsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.Summary)
	r.Get("/colonnes", h.Columns)
	r.Get("/colonnes/{col}", h.Column)
	r.Get("/correlation", h.Correlation)
	return r
}

// Summary handles GET /api/stats
func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	out, err := h.dashboard.StatsSummary(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}

// Columns handles GET /api/stats/colonnes
func (h *StatsHandler) Columns(w http.ResponseWriter, r *http.Request) {
	cols, err := h.dashboard.ColumnNames(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	count := len(cols)
	h.send(w, r, NewResponse(cols).WithMetadata(&Metadata{Count: &count, Resource: "colonnes"}))
}

// Column handles GET /api/stats/colonnes/{col}
func (h *StatsHandler) Column(w http.ResponseWriter, r *http.Request) {
	out, err := h.stats.Column(r.Context(), chi.URLParam(r, "col"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}

// Correlation handles GET /api/stats/correlation?x=&y=
func (h *StatsHandler) Correlation(w http.ResponseWriter, r *http.Request) {
	var q struct {
		X string `query:"x" validate:"required"`
		Y string `query:"y" validate:"required"`
	}
	if err := h.Query.Bind(r, &q); err != nil {
		h.fail(w, r, err)
		return
	}

	out, err := h.stats.Correlation(r.Context(), q.X, q.Y)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}
