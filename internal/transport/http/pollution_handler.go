package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"parisdash/internal/services"
)

// PollutionHandler serves /api/pollution
type PollutionHandler struct {
	Deps
	service PollutionReader
}

// NewPollutionHandler creates the air quality handler
func NewPollutionHandler(service PollutionReader, deps Deps) *PollutionHandler {
	return &PollutionHandler{Deps: deps.withDefaults("pollution"), service: service}
}

// Routes returns the air quality routes
func (h *PollutionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/statistiques", h.Statistiques)
	r.Get("/qualite/repartition", h.Repartition)
	r.Get("/polluant/{polluant}", h.Classement)
	r.Get("/indice/{arr}", h.Indice)
	r.Get("/comparaison/{arr1}/{arr2}", h.Comparaison)
	r.Get("/{arr}", h.Detail)
	return r
}

// Detail handles GET /api/pollution/{arr}
func (h *PollutionHandler) Detail(w http.ResponseWriter, r *http.Request) {
	n, err := arrondissement(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.service.Detail(r.Context(), n)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}

// Classement handles GET /api/pollution/polluant/{polluant}?ordre=
func (h *PollutionHandler) Classement(w http.ResponseWriter, r *http.Request) {
	q := struct {
		Ordre string `query:"ordre"`
	}{Ordre: services.OrderDesc}
	if err := h.Query.Bind(r, &q); err != nil {
		h.fail(w, r, err)
		return
	}

	out, err := h.service.Classement(r.Context(), chi.URLParam(r, "polluant"), q.Ordre)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}

// Statistiques handles GET /api/pollution/statistiques
func (h *PollutionHandler) Statistiques(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Statistiques(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}

// Repartition handles GET /api/pollution/qualite/repartition
func (h *PollutionHandler) Repartition(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Repartition(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}

// Indice handles GET /api/pollution/indice/{arr}
func (h *PollutionHandler) Indice(w http.ResponseWriter, r *http.Request) {
	n, err := arrondissement(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.service.Indice(r.Context(), n)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}

// Comparaison handles GET /api/pollution/comparaison/{arr1}/{arr2}
func (h *PollutionHandler) Comparaison(w http.ResponseWriter, r *http.Request) {
	a, b, err := arrondissementPair(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.service.Comparaison(r.Context(), a, b)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}
