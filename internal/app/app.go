package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"

	"parisdash/internal/config"
	apierrors "parisdash/internal/errors"
	"parisdash/internal/infrastructure"
	customMiddleware "parisdash/internal/middleware"
	"parisdash/internal/services"
	handlers "parisdash/internal/transport/http"
)

// BuildTime is set at link time with -ldflags "-X parisdash/internal/app.BuildTime=..."
var BuildTime = ""

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	Services      *ServiceContainer
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Errors        *apierrors.ErrorHandler
	FrontendFS    fs.FS // dashboard front end served under /app/
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Dashboard *services.DashboardService
	Prix      *services.PrixService
	Logement  *services.LogementService
	Transport *services.TransportService
	Pollution *services.PollutionService
	Stats     *services.StatsService
	Health    *services.HealthService
	System    *infrastructure.SystemMetricsCollector
}

// NewApplication loads the configuration and builds the application
func NewApplication(frontendFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger, frontendFS)
}

// New wires an application from an already loaded configuration
func New(cfg *config.Config, logger *slog.Logger, frontendFS fs.FS) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("environment", cfg.Environment))

	paths := cfg.GetPaths()
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	if !config.FileExists(paths.GoldFile) {
		logger.Warn("Gold file not found",
			slog.String("path", paths.GoldFile),
			slog.String("action", "run the etl binary to build it"))
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		Errors:        apierrors.NewErrorHandler(logger, !cfg.IsProduction()),
		FrontendFS:    frontendFS,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	system, err := infrastructure.NewSystemMetricsCollector(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to initialize system metrics: %w", err)
	}

	dashboard := services.NewDashboardService(a.Config, a.Metrics, a.Logger)

	a.Services = &ServiceContainer{
		Dashboard: dashboard,
		Prix:      services.NewPrixService(dashboard, a.Logger),
		Logement:  services.NewLogementService(dashboard, a.Logger),
		Transport: services.NewTransportService(dashboard, a.Logger),
		Pollution: services.NewPollutionService(dashboard, a.Logger),
		Stats:     services.NewStatsService(dashboard, a.Logger),
		Health:    services.NewHealthService(config.AppVersion, BuildTime, dashboard, system, a.Logger),
		System:    system,
	}
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// RequestID → RealIP → OTel → Logger → Recoverer → headers → CORS → rate limit → timeout
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Errors))
	r.Use(customMiddleware.DefaultSecureHeaders(!a.Config.IsProduction()).Handler)
	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(a.getCORSConfig()))
	}
	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Errors,
			a.Logger,
		).Handler)
	}
	if a.Config.Server.RequestTimeout > 0 {
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Errors))
	}

	r.NotFound(a.Errors.NotFound)
	r.MethodNotAllowed(a.Errors.MethodNotAllowed)

	r.Get("/", handlers.Root(config.AppVersion))
	r.Method(http.MethodGet, "/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.Errors))

	a.setupAPIRoutes(r)

	if a.FrontendFS != nil {
		r.Handle("/app", http.RedirectHandler("/app/", http.StatusMovedPermanently))
		r.Handle("/app/*", handlers.Static("/app", a.FrontendFS))
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	deps := handlers.Deps{
		Errors: a.Errors,
		Query:  customMiddleware.NewQueryValidator(a.Logger),
		Logger: a.Logger,
	}
	svc := a.Services

	health := handlers.NewHealthHandler(svc.Health, svc.Dashboard, deps)

	r.Route("/api", func(r chi.Router) {
		r.Use(customMiddleware.Compress(5))

		r.Mount("/health", health.Routes())
		r.Get("/version", health.Version)
		r.Mount("/stats", handlers.NewStatsHandler(svc.Dashboard, svc.Stats, deps).Routes())
		r.Mount("/arrondissements", handlers.NewArrondissementHandler(svc.Dashboard,
			a.Config.API.DefaultPageSize, a.Config.API.MaxPageSize, deps).Routes())
		r.Mount("/prix", handlers.NewPrixHandler(svc.Prix, deps).Routes())
		r.Mount("/logements", handlers.NewLogementHandler(svc.Logement, deps).Routes())
		r.Mount("/transport", handlers.NewTransportHandler(svc.Transport, deps).Routes())
		r.Mount("/pollution", handlers.NewPollutionHandler(svc.Pollution, deps).Routes())
	})
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	origins := a.Config.Security.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return customMiddleware.CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         3600,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           net.JoinHostPort(a.Config.Server.Host, strconv.Itoa(a.Config.Server.Port)),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts serving in the background. A listener failure cancels ctx
// through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	a.Logger.InfoContext(ctx, "Application paths",
		slog.String("data_dir", a.Paths.DataDir),
		slog.String("gold_file", a.Paths.GoldFile),
		slog.String("logs_dir", a.Paths.LogsDir))

	listener, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	go func() {
		if err := a.Server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	// Warm the dataset cache; a missing gold file only degrades health.
	if _, err := a.Services.Dashboard.Dataset(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Gold dataset not loaded at startup", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("url", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		a.Logger.ErrorContext(ctx, "Error closing log file", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(ctx)
}

