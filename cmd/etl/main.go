// Command etl runs the bronze → silver → gold pipeline, loads the SQLite
// warehouse and optionally publishes the artifacts to S3.
//
//	etl -data ./data                  full pipeline
//	etl -step gold                    a single step
//	etl -parallel -continue-on-error  independent steps concurrently
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"parisdash/internal/config"
	"parisdash/internal/etl"
	"parisdash/internal/infrastructure"
	"parisdash/internal/operations"
	"parisdash/internal/publish"
	"parisdash/internal/warehouse"
)

// ManifestFileName is written in the data directory after every run
const ManifestFileName = "pipeline_manifest.json"

type options struct {
	dataDir         string
	step            string
	parallel        bool
	continueOnError bool
	timeout         time.Duration
	noWarehouse     bool
	noPublish       bool
	verbose         bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("etl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.dataDir, "data", "", "data directory holding bronze/, silver/ and gold/ (default from config)")
	fs.StringVar(&opts.step, "step", operations.StepFullPipeline, "step ID to run, or full_pipeline")
	fs.BoolVar(&opts.parallel, "parallel", false, "run independent steps concurrently")
	fs.BoolVar(&opts.continueOnError, "continue-on-error", false, "keep running steps that do not depend on a failed one")
	fs.DurationVar(&opts.timeout, "timeout", 0, "timeout of each step (default from config)")
	fs.BoolVar(&opts.noWarehouse, "no-warehouse", false, "skip the SQLite warehouse step")
	fs.BoolVar(&opts.noPublish, "no-publish", false, "skip the S3 publish step even when a bucket is configured")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.timeout < 0 {
		return nil, errors.New("timeout must be positive")
	}
	return opts, nil
}

// apply overrides the loaded configuration with the command line
func (o *options) apply(cfg *config.Config) {
	if o.dataDir != "" {
		cfg.Paths.DataDir = o.dataDir
	}
	if o.parallel {
		cfg.Pipeline.Parallel = true
	}
	if o.continueOnError {
		cfg.Pipeline.ContinueOnError = true
	}
	if o.timeout > 0 {
		cfg.Pipeline.StepTimeout = o.timeout
	}
	if o.noWarehouse {
		cfg.Warehouse.Enabled = false
	}
	if o.noPublish {
		cfg.Publish.Bucket = ""
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := infrastructure.WithComponent(
		infrastructure.NewJSONLogger(stderr, &slog.HandlerOptions{Level: level}), "etl")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", slog.String("error", err.Error()))
		return 1
	}
	opts.apply(cfg)

	paths := cfg.GetPaths()
	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("Failed to create data directories", slog.String("error", err.Error()))
		return 1
	}
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg), logger)
	if err != nil {
		logger.Error("Failed to initialize OpenTelemetry", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := providers.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("OpenTelemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()
	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		logger.Error("Failed to create pipeline metrics", slog.String("error", err.Error()))
		return 1
	}

	manager, err := newManager(ctx, cfg, paths, providers, metrics, logger)
	if err != nil {
		logger.Error("Failed to set up pipeline", slog.String("error", err.Error()))
		return 1
	}

	ctx = infrastructure.EnsureTraceID(ctx)
	resp, execErr := manager.Execute(ctx, operations.OperationRequest{
		DataDir:    paths.DataDir,
		Parameters: map[string]any{operations.ContextKeyStep: opts.step},
	})
	if resp != nil {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			logger.Error("Failed to write response", slog.String("error", err.Error()))
		}
		if resp.Manifest != nil {
			manifestPath := filepath.Join(paths.DataDir, ManifestFileName)
			if err := resp.Manifest.SaveToFile(manifestPath); err != nil {
				logger.Warn("Failed to save manifest", slog.String("error", err.Error()))
			}
		}
	}
	if execErr != nil {
		infrastructure.WithError(logger, execErr).Error("Pipeline failed")
		return 1
	}
	return 0
}

// newManager registers the pipeline steps enabled by cfg
func newManager(ctx context.Context, cfg *config.Config, paths *config.Paths, providers *infrastructure.OTelProviders,
	metrics *infrastructure.BusinessMetrics, logger *slog.Logger) (*operations.Manager, error) {
	processor := etl.NewProcessor(paths, logger).WithMaxWorkers(cfg.Pipeline.MaxConcurrency)

	stageOpts := operations.StageOptions{Processor: processor}
	if cfg.Warehouse.Enabled {
		stageOpts.Warehouse = warehouse.NewBuilder(paths.WarehouseFile, processor, logger)
	}
	if cfg.Publish.Enabled() {
		publisher, err := publish.New(ctx, cfg.Publish, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create publisher: %w", err)
		}
		stageOpts.Publisher = publisher
	}

	registry := operations.NewRegistry()
	if err := operations.RegisterStages(registry, stageOpts, logger); err != nil {
		return nil, err
	}

	return operations.NewManager(registry, operations.FromPipelineConfig(cfg.Pipeline),
		operations.WithObserver(operations.NewOperationTracer(providers, metrics)),
		operations.WithLogger(logger),
	), nil
}
