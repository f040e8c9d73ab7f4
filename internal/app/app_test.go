package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parisdash/internal/config"
	"parisdash/internal/shared/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Environment = config.EnvTesting
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Paths.LogsDir = filepath.Join(dir, "logs")
	cfg.Paths.WebDir = filepath.Join(dir, "web")
	cfg.Security.RateLimit.Enabled = false
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, withGold bool) *Application {
	t.Helper()

	if withGold {
		testutil.SampleGold().Write(t, cfg.GetPaths().GoldDir, cfg.Paths.GoldFile)
	}
	logger, _ := testutil.NewTestLogger(t)
	frontend := fstest.MapFS{
		"index.html": {Data: []byte("<html><body>Dashboard</body></html>")},
		"app.js":     {Data: []byte("console.log('ok')")},
	}

	application, err := New(cfg, logger, frontend)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = application.OTelProviders.Shutdown(context.Background())
	})
	return application
}

func serve(a *Application, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil, nil, nil)
	assert.Error(t, err)
}

func TestNew_WiresComponents(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(t, cfg, true)

	assert.NotNil(t, a.Router)
	assert.NotNil(t, a.Server)
	assert.NotNil(t, a.Metrics)
	require.NotNil(t, a.Services)
	assert.NotNil(t, a.Services.Dashboard)
	assert.NotNil(t, a.Services.Health)
	assert.Equal(t, "0.0.0.0:8080", a.Server.Addr)
	assert.DirExists(t, a.Paths.BronzeDir)
	assert.DirExists(t, a.Paths.SilverDir)
	assert.Equal(t, filepath.Join(cfg.Paths.DataDir, "gold", config.GoldFileName), a.Paths.GoldFile)
}

func TestRouter_Endpoints(t *testing.T) {
	a := newTestApp(t, testConfig(t), true)

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantCode   string
	}{
		{"health", http.MethodGet, "/api/health", http.StatusOK, ""},
		{"liveness", http.MethodGet, "/api/health/live", http.StatusOK, ""},
		{"readiness", http.MethodGet, "/api/health/ready", http.StatusOK, ""},
		{"version", http.MethodGet, "/api/version", http.StatusOK, ""},
		{"stats", http.MethodGet, "/api/stats", http.StatusOK, ""},
		{"list", http.MethodGet, "/api/arrondissements", http.StatusOK, ""},
		{"detail", http.MethodGet, "/api/arrondissements/5", http.StatusOK, ""},
		{"invalid arrondissement", http.MethodGet, "/api/arrondissements/21", http.StatusBadRequest, "BAD_REQUEST"},
		{"prix m2", http.MethodGet, "/api/prix/m2/3?annee=2024", http.StatusOK, ""},
		{"transport", http.MethodGet, "/api/transport/7", http.StatusOK, ""},
		{"pollution", http.MethodGet, "/api/pollution/7", http.StatusOK, ""},
		{"unknown route", http.MethodGet, "/api/inconnu", http.StatusNotFound, "NOT_FOUND"},
		{"wrong method", http.MethodPost, "/api/health", http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(a, tt.method, tt.target)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			body := decode(t, rec)
			assert.Contains(t, body, "timestamp")
			if tt.wantCode == "" {
				assert.Equal(t, true, body["success"])
				assert.Contains(t, body, "data")
				return
			}
			assert.Equal(t, false, body["success"])
			errBody, ok := body["error"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, errBody["code"])
		})
	}
}

func TestRouter_Root(t *testing.T) {
	a := newTestApp(t, testConfig(t), true)

	rec := serve(a, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "API Dashboard Immobilier Paris", body["message"])
	assert.Equal(t, config.AppVersion, body["version"])
	assert.Contains(t, body, "endpoints")
}

func TestRouter_HealthWithoutGold(t *testing.T) {
	a := newTestApp(t, testConfig(t), false)

	rec := serve(a, http.MethodGet, "/api/health")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decode(t, rec)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "SERVICE_UNAVAILABLE", errBody["code"])
	assert.Equal(t, config.ErrMsgDatasetUnavailable, errBody["message"])
}

func TestRouter_Headers(t *testing.T) {
	a := newTestApp(t, testConfig(t), true)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Metrics(t *testing.T) {
	a := newTestApp(t, testConfig(t), true)

	serve(a, http.MethodGet, "/api/health")
	rec := serve(a, http.MethodGet, "/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "http_requests_total"), "request counter exported")
}

func TestRouter_MetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.MetricExporter = "none"
	a := newTestApp(t, cfg, true)

	rec := serve(a, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Frontend(t *testing.T) {
	a := newTestApp(t, testConfig(t), true)

	rec := serve(a, http.MethodGet, "/app/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dashboard")

	rec = serve(a, http.MethodGet, "/app/arrondissement/5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dashboard")

	rec = serve(a, http.MethodGet, "/app")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1}
	a := newTestApp(t, cfg, true)

	first := serve(a, http.MethodGet, "/api/health/live")
	second := serve(a, http.MethodGet, "/api/health/live")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}
