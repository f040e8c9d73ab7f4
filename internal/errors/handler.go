package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"parisdash/internal/infrastructure"
	"parisdash/internal/services"
)

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger      *slog.Logger
	development bool
}

// NewErrorHandler creates a new error handler. In development internal error
// messages and panic stacks are returned to the client.
func NewErrorHandler(logger *slog.Logger, development bool) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{
		logger:      logger.With(slog.String("component", "error_handler")),
		development: development,
	}
}

// HandleError converts err to the error envelope and writes it
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	apiErr := h.ToAPIError(err)
	level := slog.LevelWarn
	if apiErr.StatusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", apiErr.StatusCode),
		slog.String("code", apiErr.ErrorCode),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	h.write(w, r, apiErr)
}

// ToAPIError maps service and context errors to their API form
func (h *ErrorHandler) ToAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return BadRequest(verr.Field, verr.Value, verr.Message)
	}

	var nf *services.NotFoundError
	if errors.As(err, &nf) {
		return NotFound(nf.Resource, nf.Identifier)
	}

	switch {
	case errors.Is(err, services.ErrDatasetUnavailable):
		return ErrServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, context.Canceled):
		return New(http.StatusBadRequest, CodeBadRequest, "Requête annulée par le client")
	default:
		return Internal(err, h.development)
	}
}

// HandlePanic answers a recovered panic with a 500 envelope
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered any) {
	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	apiErr := New(http.StatusInternalServerError, CodeInternal, "Erreur interne du serveur")
	if h.development {
		apiErr.Message = fmt.Sprintf("Erreur interne: %v", recovered)
	}
	h.write(w, r, apiErr)
}

// NotFound answers unknown routes
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, ErrNotFound)
}

// MethodNotAllowed answers known routes called with the wrong method
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, ErrMethodNotAllowed)
}

func (h *ErrorHandler) write(w http.ResponseWriter, r *http.Request, apiErr *APIError) {
	resp := NewErrorResponse(apiErr)
	resp.TraceID = infrastructure.GetTraceID(r.Context())
	if err := render.Render(w, r, resp); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render error", slog.String("error", err.Error()))
	}
}
