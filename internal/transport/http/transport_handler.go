package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"parisdash/internal/dataset"
)

// TransportHandler serves /api/transport
type TransportHandler struct {
	Deps
	service TransportReader
}

// NewTransportHandler creates the transit handler
func NewTransportHandler(service TransportReader, deps Deps) *TransportHandler {
	return &TransportHandler{Deps: deps.withDefaults("transport"), service: service}
}

// Routes returns the transit routes. Static segments are registered before
// the {arr} catch.
func (h *TransportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/classement", h.Classement)
	r.Get("/metro/{arr}", h.Metro)
	r.Get("/rer/{arr}", h.RER)
	r.Get("/score/{arr}", h.Score)
	r.Get("/comparaison/{arr1}/{arr2}", h.Comparaison)
	r.Get("/{arr}", h.Detail)
	return r
}

// Detail handles GET /api/transport/{arr}
func (h *TransportHandler) Detail(w http.ResponseWriter, r *http.Request) {
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

// Metro handles GET /api/transport/metro/{arr}
func (h *TransportHandler) Metro(w http.ResponseWriter, r *http.Request) {
	n, err := arrondissement(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.service.Metro(r.Context(), n)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}

// RER handles GET /api/transport/rer/{arr}
func (h *TransportHandler) RER(w http.ResponseWriter, r *http.Request) {
	n, err := arrondissement(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.service.RER(r.Context(), n)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}

// Classement handles GET /api/transport/classement?critere=
func (h *TransportHandler) Classement(w http.ResponseWriter, r *http.Request) {
	q := struct {
		Critere string `query:"critere"`
	}{Critere: dataset.ColNbLignesMetro}
	if err := h.Query.Bind(r, &q); err != nil {
		h.fail(w, r, err)
		return
	}

	out, err := h.service.Classement(r.Context(), q.Critere)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}

// Score handles GET /api/transport/score/{arr}
func (h *TransportHandler) Score(w http.ResponseWriter, r *http.Request) {
	n, err := arrondissement(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.service.Score(r.Context(), n)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}

// Comparaison handles GET /api/transport/comparaison/{arr1}/{arr2}
func (h *TransportHandler) Comparaison(w http.ResponseWriter, r *http.Request) {
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
