package services

import (
	"errors"
	"fmt"
)

// Dashboard service errors
var (
	// Dataset errors
	ErrDatasetUnavailable = errors.New("gold dataset unavailable")

	// Lookup errors
	ErrArrondissementNotFound = errors.New("arrondissement not found")
	ErrColumnNotFound         = errors.New("column not found")

	// Parameter errors
	ErrInvalidArrondissement = errors.New("invalid arrondissement")
	ErrInvalidYear           = errors.New("invalid year")
	ErrInvalidParameter      = errors.New("invalid parameter")
)

// ValidationError is a rejected request parameter. Message is the text
// returned to API clients.
type ValidationError struct {
	Field   string
	Value   any
	Message string
	kind    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap exposes the parameter error kind to errors.Is.
func (e *ValidationError) Unwrap() error {
	if e.kind == nil {
		return ErrInvalidParameter
	}
	return e.kind
}

// NewValidationError creates a generic parameter error.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// InvalidArrondissement reports an arrondissement outside 1-20.
func InvalidArrondissement(n int) *ValidationError {
	return &ValidationError{
		Field:   "arrondissement",
		Value:   n,
		Message: fmt.Sprintf("Arrondissement invalide : %d. Doit être entre 1 et 20.", n),
		kind:    ErrInvalidArrondissement,
	}
}

// InvalidYear reports a year outside the covered range.
func InvalidYear(field string, year int) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   year,
		Message: fmt.Sprintf("Année invalide : %d. Doit être entre 2020 et 2025.", year),
		kind:    ErrInvalidYear,
	}
}

// NotFoundError names the missing resource for the 404 envelope.
type NotFoundError struct {
	Resource   string
	Identifier any
	kind       error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.Identifier)
}

func (e *NotFoundError) Unwrap() error { return e.kind }

func arrondissementNotFound(n int) *NotFoundError {
	return &NotFoundError{Resource: "Arrondissement", Identifier: n, kind: ErrArrondissementNotFound}
}

func columnNotFound(col string) *NotFoundError {
	return &NotFoundError{Resource: "Colonne", Identifier: col, kind: ErrColumnNotFound}
}
