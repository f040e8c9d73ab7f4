package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"parisdash/internal/dataset"
	apierrors "parisdash/internal/errors"
	"parisdash/internal/middleware"
)

// Deps are the collaborators shared by every resource handler
type Deps struct {
	Errors *apierrors.ErrorHandler
	Query  *middleware.QueryValidator
	Logger *slog.Logger
}

func (d Deps) withDefaults(component string) Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Errors == nil {
		d.Errors = apierrors.NewErrorHandler(d.Logger, false)
	}
	if d.Query == nil {
		d.Query = middleware.NewQueryValidator(d.Logger)
	}
	d.Logger = d.Logger.With(slog.String("handler", component))
	return d
}

// ok writes data in the success envelope
func (d Deps) ok(w http.ResponseWriter, r *http.Request, data any) {
	d.send(w, r, NewResponse(data))
}

func (d Deps) send(w http.ResponseWriter, r *http.Request, resp *Response) {
	if err := render.Render(w, r, resp); err != nil {
		d.Logger.ErrorContext(r.Context(), "failed to render response", slog.String("error", err.Error()))
	}
}

// fail writes err in the error envelope
func (d Deps) fail(w http.ResponseWriter, r *http.Request, err error) {
	d.Errors.HandleError(w, r, err)
}

// arrondissement parses the {arr} URL parameter. Range checks are left to
// the services so that the message is the same for path and query input.
func arrondissement(r *http.Request) (int, error) {
	return arrondissementParam(r, "arr")
}

// arrondissementParam parses the named arrondissement URL parameter
func arrondissementParam(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierrors.BadRequest("arrondissement", raw,
			fmt.Sprintf("Arrondissement invalide : %s. Doit être entre %d et %d.", raw, dataset.MinArrondissement, dataset.MaxArrondissement))
	}
	return n, nil
}

// yearQuery is the optional annee parameter, 2024 by default
type yearQuery struct {
	Annee int `query:"annee" validate:"annee"`
}

func defaultYear() yearQuery {
	return yearQuery{Annee: dataset.DefaultYear}
}

// typeQuery is the price metric parameter, prix_m2 by default
type typeQuery struct {
	Type string `query:"type"`
}

func defaultTypeQuery() typeQuery {
	return typeQuery{Type: dataset.TypePrixM2}
}

// arrondissementPair parses the {arr1} and {arr2} URL parameters of the
// comparison routes
func arrondissementPair(r *http.Request) (int, int, error) {
	a, err := arrondissementParam(r, "arr1")
	if err != nil {
		return 0, 0, err
	}
	b, err := arrondissementParam(r, "arr2")
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}
