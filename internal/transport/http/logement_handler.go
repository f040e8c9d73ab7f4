package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// LogementHandler serves /api/logements
type LogementHandler struct {
	Deps
	service LogementReader
}

// NewLogementHandler creates the housing handler
func NewLogementHandler(service LogementReader, deps Deps) *LogementHandler {
	return &LogementHandler{Deps: deps.withDefaults("logements"), service: service}
}

// Routes returns the housing routes
func (h *LogementHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/sociaux/{arr}", h.Sociaux)
	r.Get("/typologie/{arr}", h.Typologie)
	r.Get("/pieces/{arr}", h.Pieces)
	r.Get("/synthese/{arr}", h.Synthese)
	r.Get("/tous", h.Tous)
	r.Get("/mixite/{arr}", h.Mixite)
	return r
}

// Sociaux handles GET /api/logements/sociaux/{arr}
func (h *LogementHandler) Sociaux(w http.ResponseWriter, r *http.Request) {
	n, err := arrondissement(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.service.Sociaux(r.Context(), n)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}

// Typologie handles GET /api/logements/typologie/{arr}?annee=
func (h *LogementHandler) Typologie(w http.ResponseWriter, r *http.Request) {
	n, err := arrondissement(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := defaultYear()
	if err := h.Query.Bind(r, &q); err != nil {
		h.fail(w, r, err)
		return
	}

	out, err := h.service.Typologie(r.Context(), n, q.Annee)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}

// Pieces handles GET /api/logements/pieces/{arr}?annee=
func (h *LogementHandler) Pieces(w http.ResponseWriter, r *http.Request) {
	n, err := arrondissement(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := defaultYear()
	if err := h.Query.Bind(r, &q); err != nil {
		h.fail(w, r, err)
		return
	}

	out, err := h.service.Pieces(r.Context(), n, q.Annee)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}

// Synthese handles GET /api/logements/synthese/{arr}
func (h *LogementHandler) Synthese(w http.ResponseWriter, r *http.Request) {
	n, err := arrondissement(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.service.Synthese(r.Context(), n)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}

// Tous handles GET /api/logements/tous?annee=
func (h *LogementHandler) Tous(w http.ResponseWriter, r *http.Request) {
	q := defaultYear()
	if err := h.Query.Bind(r, &q); err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.service.Tous(r.Context(), q.Annee)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	count := len(out.Arrondissements)
	h.send(w, r, NewResponse(out).WithMetadata(&Metadata{Count: &count, Resource: "logements"}))
}

// Mixite handles GET /api/logements/mixite/{arr}
func (h *LogementHandler) Mixite(w http.ResponseWriter, r *http.Request) {
	n, err := arrondissement(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.service.Mixite(r.Context(), n)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}
