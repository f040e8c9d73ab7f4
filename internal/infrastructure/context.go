package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type ctxKey int

const (
	traceIDKey ctxKey = iota
	operationIDKey
)

// WithTraceID stores the request or span trace ID on ctx
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GetTraceID returns the trace ID stored on ctx, or ""
func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, traceIDKey)
}

// EnsureTraceID stores a fresh UUID when ctx has no trace ID yet
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) != "" {
		return ctx
	}
	return WithTraceID(ctx, uuid.NewString())
}

// WithOperationID tags ctx with the pipeline run it belongs to. Every record
// logged with that context carries operation_id.
func WithOperationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, operationIDKey, id)
}

// GetOperationID returns the pipeline run ID stored on ctx, or ""
func GetOperationID(ctx context.Context) string {
	return stringValue(ctx, operationIDKey)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// WithComponent tags logger with the emitting component (api, etl, warehouse...)
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = GetLogger()
	}
	return logger.With(slog.String("component", component))
}

// WithError tags logger with err; a nil err returns logger unchanged
func WithError(logger *slog.Logger, err error) *slog.Logger {
	if err == nil {
		return logger
	}
	return logger.With(slog.String("error", err.Error()))
}
