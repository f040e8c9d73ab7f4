package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "parisdash/internal/errors"
	"parisdash/internal/infrastructure"
	"parisdash/internal/shared/testutil"
)

type envelope struct {
	Success bool `json:"success"`
	Error   struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
	TraceID string `json:"trace_id"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func quietErrors() *apierrors.ErrorHandler {
	return apierrors.NewErrorHandler(slog.New(slog.NewJSONHandler(io.Discard, nil)), false)
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequestID(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "generated", header: ""},
		{name: "propagated", header: "client-id-42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seenReqID, seenTrace string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenReqID = middleware.GetReqID(r.Context())
				seenTrace = infrastructure.GetTraceID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(RequestIDHeader)
			if tt.header != "" {
				assert.Equal(t, tt.header, got)
			} else {
				_, err := uuid.Parse(got)
				assert.NoError(t, err)
			}
			assert.Equal(t, got, seenReqID)
			assert.Equal(t, got, seenTrace)
		})
	}
}

func TestGetRequestIDFallsBackToTraceID(t *testing.T) {
	ctx := infrastructure.WithTraceID(context.Background(), "trace-1")
	assert.Equal(t, "trace-1", GetRequestID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestStructuredLogger(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  slog.Level
	}{
		{name: "success", status: http.StatusOK, level: slog.LevelInfo},
		{name: "client error", status: http.StatusNotFound, level: slog.LevelWarn},
		{name: "server error", status: http.StatusServiceUnavailable, level: slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := RequestID(StructuredLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})))

			req := httptest.NewRequest(http.MethodGet, "/api/prix/m2/5", nil)
			req.Header.Set(RequestIDHeader, "req-1")
			h.ServeHTTP(httptest.NewRecorder(), req)

			testutil.AssertLogged(t, logs, tt.level, "request completed")
			assert.True(t, logs.HasAttr("status", int64(tt.status)))
			assert.True(t, logs.HasAttr("trace_id", "req-1"))
			assert.True(t, logs.HasAttr("path", "/api/prix/m2/5"))
		})
	}
}

func TestRecoverer(t *testing.T) {
	h := RequestID(Recoverer(quietErrors())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set(RequestIDHeader, "req-panic")
	rec := httptest.NewRecorder()
	require.NotPanics(t, func() { h.ServeHTTP(rec, req) })

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, apierrors.CodeInternal, env.Error.Code)
	assert.Equal(t, "Erreur interne du serveur", env.Error.Message)
	assert.Equal(t, "req-panic", env.TraceID)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2, quietErrors(), nil)
	h := rl.Handler(okHandler)

	call := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/arrondissements", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, call("10.0.0.1:1001").Code)

	rec := call("10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, apierrors.CodeRateLimited, decodeEnvelope(t, rec).Error.Code)

	// another client has its own bucket
	assert.Equal(t, http.StatusOK, call("10.0.0.2:1000").Code)
	assert.Equal(t, 2, rl.Clients())
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	rl := NewRateLimiter(10, 10, quietErrors(), nil)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.limiter("a")
	rl.limiter("b")
	now = now.Add(rl.ttl + time.Second)
	rl.limiter("c")

	assert.Equal(t, 1, rl.Clients())
}

func TestTimeout(t *testing.T) {
	t.Run("handler gives up silently", func(t *testing.T) {
		h := Timeout(10*time.Millisecond, quietErrors())(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
		assert.Equal(t, apierrors.CodeTimeout, decodeEnvelope(t, rec).Error.Code)
	})

	t.Run("fast handler untouched", func(t *testing.T) {
		h := Timeout(time.Second, quietErrors())(okHandler)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		origin     string
		preflight  bool
		wantStatus int
		wantOrigin string
	}{
		{name: "wildcard", origins: []string{"*"}, origin: "http://localhost:3000", wantStatus: http.StatusOK, wantOrigin: "*"},
		{name: "listed origin", origins: []string{"https://dash.example"}, origin: "https://dash.example", wantStatus: http.StatusOK, wantOrigin: "https://dash.example"},
		{name: "unlisted origin", origins: []string{"https://dash.example"}, origin: "https://evil.example", wantStatus: http.StatusOK, wantOrigin: ""},
		{name: "preflight", origins: []string{"*"}, origin: "http://localhost:3000", preflight: true, wantStatus: http.StatusNoContent, wantOrigin: "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORS(CORSConfig{AllowedOrigins: tt.origins})(okHandler)

			method := http.MethodGet
			if tt.preflight {
				method = http.MethodOptions
			}
			req := httptest.NewRequest(method, "/api/arrondissements", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "3600", rec.Header().Get("Access-Control-Max-Age"))
			assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), RequestIDHeader)
		})
	}
}

func TestSecureHeaders(t *testing.T) {
	h := DefaultSecureHeaders(false).Handler(okHandler)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"), "plain HTTP gets no HSTS")
}
