package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"parisdash/internal/config"
)

var (
	loggerMu   sync.Mutex
	appLogger  *slog.Logger
	appLogFile *os.File
)

// InitializeLogger builds the process logger from cfg, installs it as the
// slog default and returns it. Later calls return the first logger.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if appLogger != nil {
		return appLogger, nil
	}

	out, file, err := logOutput(cfg)
	if err != nil {
		return nil, err
	}
	appLogFile = file
	appLogger = NewLogger(out, cfg).With(
		slog.String("service", config.AppName),
		slog.String("version", config.AppVersion),
	)
	slog.SetDefault(appLogger)
	return appLogger, nil
}

// GetLogger returns the process logger, or the slog default before
// InitializeLogger ran.
func GetLogger() *slog.Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if appLogger == nil {
		return slog.Default()
	}
	return appLogger
}

// NewLogger builds a logger on w honoring the level, format and development
// settings of cfg. Records carry trace_id and operation_id from the context.
func NewLogger(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: cfg.Development,
		Level:     parseLogLevel(cfg.Level),
	}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(&contextHandler{Handler: slog.NewTextHandler(w, opts)})
	}
	return NewJSONLogger(w, opts)
}

// NewJSONLogger returns a JSON logger on w with context attribute injection
func NewJSONLogger(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	return slog.New(&contextHandler{Handler: slog.NewJSONHandler(w, opts)})
}

// contextHandler copies the IDs carried by the context onto each record
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetTraceID(ctx); id != "" {
		r.AddAttrs(slog.String("trace_id", id))
	}
	if id := GetOperationID(ctx); id != "" {
		r.AddAttrs(slog.String("operation_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// logOutput resolves cfg.Output: "file", "both", anything else is stdout
func logOutput(cfg config.LoggingConfig) (io.Writer, *os.File, error) {
	output := strings.ToLower(cfg.Output)
	if output != "file" && output != "both" {
		return os.Stdout, nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", cfg.FilePath, err)
	}
	if output == "both" {
		return io.MultiWriter(os.Stdout, file), file, nil
	}
	return file, file, nil
}

// CloseLogFile closes the log file opened by InitializeLogger, if any
func CloseLogFile() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if appLogFile == nil {
		return nil
	}
	err := appLogFile.Close()
	appLogFile = nil
	return err
}

// ResetLoggerForTesting closes the log file and forgets the process logger
func ResetLoggerForTesting() {
	_ = CloseLogFile()
	loggerMu.Lock()
	appLogger = nil
	loggerMu.Unlock()
}
