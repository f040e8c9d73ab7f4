package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"parisdash/internal/analytics"
	"parisdash/internal/dataset"
	"parisdash/internal/services"
)

// PrixHandler serves /api/prix
type PrixHandler struct {
	Deps
	service PrixReader
}

// NewPrixHandler creates the price handler
func NewPrixHandler(service PrixReader, deps Deps) *PrixHandler {
	return &PrixHandler{Deps: deps.withDefaults("prix"), service: service}
}

// Routes returns the price routes
func (h *PrixHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/m2/{arr}", h.PrixM2)
	r.Get("/vente/{arr}", h.Vente)
	r.Get("/evolution/{arr}", h.Evolution)
	r.Get("/tendance/{arr}", h.Tendance)
	r.Get("/historique/{arr}", h.Historique)
	r.Get("/comparaison", h.Comparaison)
	r.Get("/classification/{arr}", h.Classification)
	r.Get("/anomalies", h.Anomalies)
	return r
}

// PrixM2 handles GET /api/prix/m2/{arr}?annee=
func (h *PrixHandler) PrixM2(w http.ResponseWriter, r *http.Request) {
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

	out, err := h.service.PrixM2(r.Context(), n, q.Annee)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}

// Vente handles GET /api/prix/vente/{arr}?annee=
func (h *PrixHandler) Vente(w http.ResponseWriter, r *http.Request) {
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

	out, err := h.service.Vente(r.Context(), n, q.Annee)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}

type evolutionQuery struct {
	Debut int    `query:"debut"`
	Fin   int    `query:"fin"`
	Type  string `query:"type"`
}

// Evolution handles GET /api/prix/evolution/{arr}?debut=&fin=&type=
func (h *PrixHandler) Evolution(w http.ResponseWriter, r *http.Request) {
	n, err := arrondissement(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := evolutionQuery{Debut: dataset.FirstYear, Fin: dataset.DefaultYear, Type: dataset.TypePrixM2}
	if err := h.Query.Bind(r, &q); err != nil {
		h.fail(w, r, err)
		return
	}

	out, err := h.service.Evolution(r.Context(), n, q.Debut, q.Fin, q.Type)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}

// Tendance handles GET /api/prix/tendance/{arr}
func (h *PrixHandler) Tendance(w http.ResponseWriter, r *http.Request) {
	n, err := arrondissement(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.service.Tendance(r.Context(), n)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}

// Historique handles GET /api/prix/historique/{arr}?type=
func (h *PrixHandler) Historique(w http.ResponseWriter, r *http.Request) {
	n, err := arrondissement(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := defaultTypeQuery()
	if err := h.Query.Bind(r, &q); err != nil {
		h.fail(w, r, err)
		return
	}

	out, err := h.service.Historique(r.Context(), n, q.Type)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}

type comparaisonQuery struct {
	Arrondissements string `query:"arrondissements"`
	Annee           int    `query:"annee" validate:"annee"`
	Type            string `query:"type"`
}

// Comparaison handles GET /api/prix/comparaison?arrondissements=1,2,3&annee=&type=
func (h *PrixHandler) Comparaison(w http.ResponseWriter, r *http.Request) {
	q := comparaisonQuery{Arrondissements: "1,2,3,4,5", Annee: dataset.DefaultYear, Type: dataset.TypePrixM2}
	if err := h.Query.Bind(r, &q); err != nil {
		h.fail(w, r, err)
		return
	}
	arrs, err := services.ParseArrondissementList(q.Arrondissements)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out, err := h.service.Comparaison(r.Context(), arrs, q.Annee, q.Type)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}

// Classification handles GET /api/prix/classification/{arr}?annee=
func (h *PrixHandler) Classification(w http.ResponseWriter, r *http.Request) {
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

	out, err := h.service.Classification(r.Context(), n, q.Annee)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}

type anomaliesQuery struct {
	Annee int     `query:"annee" validate:"annee"`
	Type  string  `query:"type"`
	Seuil float64 `query:"seuil"`
}

// Anomalies handles GET /api/prix/anomalies?annee=&type=&seuil=
func (h *PrixHandler) Anomalies(w http.ResponseWriter, r *http.Request) {
	q := anomaliesQuery{Annee: dataset.DefaultYear, Type: dataset.TypePrixM2, Seuil: analytics.DefaultAnomalyThreshold}
	if err := h.Query.Bind(r, &q); err != nil {
		h.fail(w, r, err)
		return
	}

	out, err := h.service.Anomalies(r.Context(), q.Annee, q.Type, q.Seuil)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, out)
}
