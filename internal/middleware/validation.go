package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"parisdash/internal/dataset"
	apierrors "parisdash/internal/errors"
)

// QueryValidator binds query parameters into tagged structs and validates
// them. Fields are read from their `query` tag and checked against their
// `validate` tag:
//
//	type params struct {
//		Annee int    `query:"annee" validate:"annee"`
//		Type  string `query:"type" validate:"oneof=prix prix_m2"`
//	}
//
// Parameters absent from the query keep the value already set in the struct.
type QueryValidator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewQueryValidator creates a validator with the arrondissement and annee rules
func NewQueryValidator(logger *slog.Logger) *QueryValidator {
	if logger == nil {
		logger = slog.Default()
	}
	v := validator.New(validator.WithRequiredStructEnabled())

	// Error fields carry the query parameter name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("annee", func(fl validator.FieldLevel) bool {
		return dataset.ValidYear(int(fl.Field().Int()))
	})
	_ = v.RegisterValidation("arrondissement", func(fl validator.FieldLevel) bool {
		return dataset.ValidArrondissement(int(fl.Field().Int()))
	})

	return &QueryValidator{
		validate: v,
		logger:   logger.With(slog.String("component", "query_validator")),
	}
}

// Bind fills dst, a pointer to a struct, from the query string of r and
// validates it. The returned error is an *apierrors.APIError ready for the
// error handler.
func (q *QueryValidator) Bind(r *http.Request, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("bind target must be a pointer to a struct, got %T", dst)
	}

	values := r.URL.Query()
	elem := rv.Elem()
	typ := elem.Type()
	var fields []apierrors.FieldError
	for i := 0; i < typ.NumField(); i++ {
		name := strings.SplitN(typ.Field(i).Tag.Get("query"), ",", 2)[0]
		if name == "" || name == "-" || !values.Has(name) {
			continue
		}
		raw := strings.TrimSpace(values.Get(name))
		if err := setField(elem.Field(i), raw); err != nil {
			fields = append(fields, apierrors.FieldError{
				Field:   name,
				Value:   raw,
				Message: fmt.Sprintf("Paramètre %s invalide : %s", name, raw),
			})
		}
	}
	if len(fields) > 0 {
		return apierrors.NewValidationErrors(fields)
	}

	return q.Struct(r, dst)
}

// Struct validates an already populated struct
func (q *QueryValidator) Struct(r *http.Request, v any) error {
	err := q.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]apierrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apierrors.FieldError{
			Field:   fe.Field(),
			Value:   fe.Value(),
			Message: formatFieldError(fe),
		})
	}
	q.logger.DebugContext(r.Context(), "query validation failed",
		slog.String("path", r.URL.Path),
		slog.Int("errors", len(fields)),
	)
	return apierrors.NewValidationErrors(fields)
}

func setField(f reflect.Value, raw string) error {
	if f.Kind() == reflect.Pointer {
		v := reflect.New(f.Type().Elem())
		if err := setField(v.Elem(), raw); err != nil {
			return err
		}
		f.Set(v)
		return nil
	}

	switch f.Kind() {
	case reflect.String:
		f.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		f.SetInt(n)
	case reflect.Float64:
		x, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
		if err != nil {
			return err
		}
		f.SetFloat(x)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		f.SetBool(b)
	default:
		return fmt.Errorf("unsupported query field kind %s", f.Kind())
	}
	return nil
}

// formatFieldError renders a validation failure in French
func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "annee":
		return fmt.Sprintf("Année invalide : %v. Doit être entre %d et %d.", fe.Value(), dataset.FirstYear, dataset.LastYear)
	case "arrondissement":
		return fmt.Sprintf("Arrondissement invalide : %v. Doit être entre %d et %d.", fe.Value(), dataset.MinArrondissement, dataset.MaxArrondissement)
	case "required":
		return fmt.Sprintf("Le paramètre %s est requis", field)
	case "oneof":
		return fmt.Sprintf("Valeur invalide pour %s : %v. Doit être parmi [%s]", field, fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte", "min":
		return fmt.Sprintf("Le paramètre %s doit être supérieur ou égal à %s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("Le paramètre %s doit être inférieur ou égal à %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("Le paramètre %s doit être supérieur à %s", field, fe.Param())
	case "ltfield":
		return fmt.Sprintf("Le paramètre %s doit être inférieur à %s", field, strings.ToLower(fe.Param()))
	default:
		return fmt.Sprintf("Paramètre %s invalide", field)
	}
}
