package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"parisdash/internal/infrastructure"
)

// Health status values
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusAlive     = "alive"
	StatusReady     = "ready"
	StatusNotReady  = "not_ready"
	StatusDegraded  = "degraded"
)

// DatasetSource is what the health checks need from the dataset layer
type DatasetSource interface {
	DatasetProvider
	CacheStats() CacheStats
	GoldFile() string
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	data      DatasetSource
	system    *infrastructure.SystemMetricsCollector
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the liveness and readiness responses
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Message   string    `json:"message,omitempty"`
}

// DatasetStatus describes the gold table as seen by the API
type DatasetStatus struct {
	Loaded            bool       `json:"loaded"`
	Path              string     `json:"path"`
	NbArrondissements int        `json:"nb_arrondissements"`
	Colonnes          int        `json:"colonnes"`
	LoadedAt          *time.Time `json:"loaded_at,omitempty"`
	Error             string     `json:"error,omitempty"`
}

// RuntimeInfo describes the Go runtime
type RuntimeInfo struct {
	GoVersion  string `json:"go_version"`
	OS         string `json:"os"`
	Arch       string `json:"arch"`
	Goroutines int    `json:"goroutines"`
}

// DetailedHealth is the full health report
type DetailedHealth struct {
	Status        string                      `json:"status"`
	Timestamp     time.Time                   `json:"timestamp"`
	Version       string                      `json:"version"`
	UptimeSeconds float64                     `json:"uptime_seconds"`
	Dataset       DatasetStatus               `json:"dataset"`
	Cache         CacheStats                  `json:"cache"`
	System        *infrastructure.SystemStats `json:"system,omitempty"`
	Runtime       RuntimeInfo                 `json:"runtime"`
}

// VersionInfo is returned by /api/version
type VersionInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// NewHealthService creates a health service. system may be nil, in which
// case host statistics are left out of the detailed report.
func NewHealthService(version, buildTime string, data DatasetSource, system *infrastructure.SystemMetricsCollector, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime))

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		data:      data,
		system:    system,
		startTime: time.Now(),
		logger:    logger,
	}
}

// Liveness reports that the process is running.
func (hs *HealthService) Liveness(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusAlive,
		Timestamp: time.Now().UTC(),
		Version:   hs.version,
	}
}

// Readiness reports whether requests can be served, that is whether the gold
// dataset loads. The error is the dataset error when not ready.
func (hs *HealthService) Readiness(ctx context.Context) (HealthStatus, error) {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now().UTC(),
		Version:   hs.version,
	}
	if _, err := hs.data.Dataset(ctx); err != nil {
		hs.logger.WarnContext(ctx, "readiness check failed", slog.String("error", err.Error()))
		status.Status = StatusNotReady
		status.Message = "Service unhealthy - vérifiez que le fichier CSV Gold existe"
		return status, err
	}
	return status, nil
}

// Detailed builds the full health report. It never fails: a dataset error
// turns the status to degraded.
func (hs *HealthService) Detailed(ctx context.Context) *DetailedHealth {
	report := &DetailedHealth{
		Status:        StatusHealthy,
		Timestamp:     time.Now().UTC(),
		Version:       hs.version,
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		Dataset:       hs.datasetStatus(ctx),
		Cache:         hs.data.CacheStats(),
		Runtime: RuntimeInfo{
			GoVersion:  runtime.Version(),
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			Goroutines: runtime.NumGoroutine(),
		},
	}
	if !report.Dataset.Loaded {
		report.Status = StatusDegraded
	}
	if hs.system != nil {
		report.System = hs.system.Collect(ctx)
	}
	return report
}

func (hs *HealthService) datasetStatus(ctx context.Context) DatasetStatus {
	status := DatasetStatus{Path: hs.data.GoldFile()}
	ds, err := hs.data.Dataset(ctx)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Loaded = true
	status.NbArrondissements = ds.Len()
	status.Colonnes = len(ds.Columns)
	if !ds.LoadedAt.IsZero() {
		loadedAt := ds.LoadedAt.UTC()
		status.LoadedAt = &loadedAt
	}
	return status
}

// Version returns build information.
func (hs *HealthService) Version() VersionInfo {
	return VersionInfo{
		Version:   hs.version,
		BuildTime: hs.buildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Uptime returns how long the service has been running.
func (hs *HealthService) Uptime() time.Duration {
	return time.Since(hs.startTime)
}

var _ DatasetSource = (*DashboardService)(nil)
