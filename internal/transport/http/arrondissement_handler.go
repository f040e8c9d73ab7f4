package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"parisdash/internal/dataset"
	"parisdash/internal/services"
)

// ArrondissementHandler serves /api/arrondissements
type ArrondissementHandler struct {
	Deps
	service         DashboardReader
	defaultPageSize int
	maxPageSize     int
}

// NewArrondissementHandler creates the arrondissement handler. Page sizes
// fall back to 20 and 100 when not positive.
func NewArrondissementHandler(service DashboardReader, defaultPageSize, maxPageSize int, deps Deps) *ArrondissementHandler {
	if defaultPageSize <= 0 {
		defaultPageSize = 20
	}
	if maxPageSize < defaultPageSize {
		maxPageSize = 100
	}
	return &ArrondissementHandler{
		Deps:            deps.withDefaults("arrondissements"),
		service:         service,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// Routes returns the arrondissement routes
func (h *ArrondissementHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.List)
	r.Route("/{arr}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Get("/demographie", h.Demographie)
	})
	return r
}

type listQuery struct {
	PrixMin  *float64 `query:"prix_min" validate:"omitempty,gte=0"`
	PrixMax  *float64 `query:"prix_max" validate:"omitempty,gte=0"`
	Annee    int      `query:"annee" validate:"annee"`
	Page     *int     `query:"page" validate:"omitempty,gte=1"`
	PageSize *int     `query:"page_size" validate:"omitempty,gte=1"`
}

// ArrondissementList is the data of GET /api/arrondissements
type ArrondissementList struct {
	Total           int                              `json:"total"`
	Arrondissements []services.ArrondissementSummary `json:"arrondissements"`
}

// List handles GET /api/arrondissements
func (h *ArrondissementHandler) List(w http.ResponseWriter, r *http.Request) {
	q := listQuery{Annee: dataset.DefaultYear}
	if err := h.Query.Bind(r, &q); err != nil {
		h.fail(w, r, err)
		return
	}

	filter := services.Filter{PrixMin: q.PrixMin, PrixMax: q.PrixMax, Annee: q.Annee}
	items, err := h.service.ListSummaries(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	meta := &Metadata{Resource: "arrondissements"}
	if filter.Active() {
		meta.Filters = map[string]any{"annee": filter.Annee}
		if q.PrixMin != nil {
			meta.Filters["prix_min"] = *q.PrixMin
		}
		if q.PrixMax != nil {
			meta.Filters["prix_max"] = *q.PrixMax
		}
	}

	total := len(items)
	if q.Page != nil || q.PageSize != nil {
		page, size := 1, h.defaultPageSize
		if q.Page != nil {
			page = *q.Page
		}
		if q.PageSize != nil {
			size = min(*q.PageSize, h.maxPageSize)
		}
		items, meta.Pagination = Paginate(items, page, size)
	}
	count := len(items)
	meta.Count = &count

	h.Logger.DebugContext(r.Context(), "listed arrondissements",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("total", total),
		slog.Int("returned", count),
	)

	h.send(w, r, NewResponse(ArrondissementList{Total: total, Arrondissements: items}).WithMetadata(meta))
}

// Get handles GET /api/arrondissements/{arr} with every gold column
func (h *ArrondissementHandler) Get(w http.ResponseWriter, r *http.Request) {
	n, err := arrondissement(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	row, err := h.service.Arrondissement(r.Context(), n)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.send(w, r, NewResponse(row.Map()).WithMetadata(&Metadata{Resource: "arrondissement"}))
}

// Demographie handles GET /api/arrondissements/{arr}/demographie
func (h *ArrondissementHandler) Demographie(w http.ResponseWriter, r *http.Request) {
	n, err := arrondissement(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	demo, err := h.service.Demographics(r.Context(), n)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, demo)
}
