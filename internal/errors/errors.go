package errors

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// Error codes of the API envelope
const (
	CodeBadRequest         = "BAD_REQUEST"
	CodeNotFound           = "NOT_FOUND"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeValidation         = "VALIDATION_ERROR"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeTimeout            = "TIMEOUT"
	CodeUnexpected         = "UNEXPECTED_ERROR"
)

// TimestampFormat is the envelope timestamp layout (UTC, milliseconds).
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// APIError represents a structured API error response
type APIError struct {
	StatusCode int    `json:"-"`
	ErrorCode  string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// FieldError is one rejected request field
type FieldError struct {
	Field   string `json:"field"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details any) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined errors
var (
	ErrNotFound           = New(http.StatusNotFound, CodeNotFound, "Ressource non trouvée")
	ErrMethodNotAllowed   = New(http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Méthode HTTP non autorisée")
	ErrRateLimited        = New(http.StatusTooManyRequests, CodeRateLimited, "Trop de requêtes, réessayez plus tard")
	ErrServiceUnavailable = New(http.StatusServiceUnavailable, CodeServiceUnavailable, "Service unhealthy - vérifiez que le fichier CSV Gold existe")
	ErrTimeout            = New(http.StatusGatewayTimeout, CodeTimeout, "La requête a expiré")
)

// BadRequest creates a 400 error on field.
func BadRequest(field string, value any, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeBadRequest, message, FieldError{
		Field:   field,
		Value:   value,
		Message: message,
	})
}

// NewValidationErrors creates a 400 error listing every rejected field
func NewValidationErrors(fields []FieldError) *APIError {
	message := "Paramètres invalides"
	if len(fields) == 1 {
		message = fields[0].Message
	}
	return NewWithDetails(http.StatusBadRequest, CodeValidation, message, map[string]any{"errors": fields})
}

// NotFound creates a 404 error naming the missing resource.
func NotFound(resource string, identifier any) *APIError {
	return NewWithDetails(http.StatusNotFound, CodeNotFound,
		fmt.Sprintf("%s non trouvé(e)", resource),
		map[string]any{"resource": resource, "identifier": identifier})
}

// Internal creates a 500 error. The cause is only exposed when expose is set.
func Internal(err error, expose bool) *APIError {
	message := "Erreur interne du serveur"
	if expose && err != nil {
		message = "Erreur interne: " + err.Error()
	}
	return New(http.StatusInternalServerError, CodeInternal, message)
}

// ErrorBody is the error object of the envelope
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse is the failure envelope
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     ErrorBody `json:"error"`
	Timestamp string    `json:"timestamp"`
	TraceID   string    `json:"trace_id,omitempty"`

	status int
}

// NewErrorResponse wraps err in the failure envelope
func NewErrorResponse(err *APIError) *ErrorResponse {
	return &ErrorResponse{
		Success: false,
		Error: ErrorBody{
			Message: err.Message,
			Code:    err.ErrorCode,
			Details: err.Details,
		},
		Timestamp: Timestamp(time.Now()),
		status:    err.StatusCode,
	}
}

// Render implements the render.Renderer interface
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.status)
	return nil
}

// Timestamp formats t the way envelopes carry it.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}
