package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "PARISDASH"

// Config represents the complete application configuration
type Config struct {
	Environment string          `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
	Server      ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security    SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging     LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths       PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Cache       CacheConfig     `yaml:"cache" envconfig:"CACHE"`
	API         APIConfig       `yaml:"api" envconfig:"API"`
	Pipeline    PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Warehouse   WarehouseConfig `yaml:"warehouse" envconfig:"WAREHOUSE"`
	Publish     PublishConfig   `yaml:"publish" envconfig:"PUBLISH"`
	Telemetry   TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST" default:"0.0.0.0"`
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"30s"`
}

// SecurityConfig contains CORS and rate limiting configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"*"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"true"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir  string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	GoldFile string `yaml:"gold_file" envconfig:"GOLD_FILE" default:"dashboard_arrondissements_paris.csv"`
	WebDir   string `yaml:"web_dir" envconfig:"WEB_DIR" default:"web"`
	LogsDir  string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// CacheConfig controls how long the gold dataset stays in memory before it is re-read.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl" envconfig:"TTL" default:"300s"`
}

// APIConfig contains REST API settings
type APIConfig struct {
	Version         string `yaml:"version" envconfig:"VERSION" default:"v1"`
	DefaultPageSize int    `yaml:"default_page_size" envconfig:"DEFAULT_PAGE_SIZE" default:"20"`
	MaxPageSize     int    `yaml:"max_page_size" envconfig:"MAX_PAGE_SIZE" default:"100"`
}

// PipelineConfig contains ETL execution settings
type PipelineConfig struct {
	Parallel        bool          `yaml:"parallel" envconfig:"PARALLEL" default:"false"`
	MaxConcurrency  int           `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY" default:"4"`
	ContinueOnError bool          `yaml:"continue_on_error" envconfig:"CONTINUE_ON_ERROR" default:"false"`
	StepTimeout     time.Duration `yaml:"step_timeout" envconfig:"STEP_TIMEOUT" default:"30m"`
}

// WarehouseConfig controls the SQLite warehouse built after the gold layer.
type WarehouseConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	File    string `yaml:"file" envconfig:"FILE" default:"dashboard.db"`
}

// PublishConfig describes the optional S3-compatible destination of gold artifacts.
// Publishing is disabled while Bucket is empty.
type PublishConfig struct {
	Bucket    string `yaml:"bucket" envconfig:"BUCKET"`
	Prefix    string `yaml:"prefix" envconfig:"PREFIX" default:"gold"`
	Region    string `yaml:"region" envconfig:"REGION" default:"eu-west-3"`
	Endpoint  string `yaml:"endpoint" envconfig:"ENDPOINT"`
	AccessKey string `yaml:"access_key" envconfig:"ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" envconfig:"SECRET_KEY"`
}

// Enabled reports whether a destination bucket is configured.
func (p PublishConfig) Enabled() bool {
	return strings.TrimSpace(p.Bucket) != ""
}

// TelemetryConfig contains OpenTelemetry settings
type TelemetryConfig struct {
	EnableTracing  bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING" default:"false"`
	EnableMetrics  bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS" default:"true"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" default:"prometheus"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1.0"`
}

// Load loads configuration from a .env file, environment variables and config file
func Load() (*Config, error) {
	// A missing .env file is the normal case outside development.
	_ = godotenv.Load()

	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := getConfigFilePath(); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs overlays the file config with every variable explicitly set in
// the environment. Defaults applied by envconfig do not override the file.
func mergeConfigs(fileConfig, envConfig Config) Config {
	merged := fileConfig
	set := func(name string) bool {
		_, ok := os.LookupEnv(EnvPrefix + "_" + name)
		return ok
	}
	pickString := func(name string, dst *string, env string) {
		if set(name) || *dst == "" {
			*dst = env
		}
	}
	pickInt := func(name string, dst *int, env int) {
		if set(name) || *dst == 0 {
			*dst = env
		}
	}
	pickDuration := func(name string, dst *time.Duration, env time.Duration) {
		if set(name) || *dst == 0 {
			*dst = env
		}
	}
	pickBool := func(name string, dst *bool, env bool) {
		if set(name) {
			*dst = env
		}
	}

	pickString("ENVIRONMENT", &merged.Environment, envConfig.Environment)

	pickString("SERVER_HOST", &merged.Server.Host, envConfig.Server.Host)
	pickInt("SERVER_PORT", &merged.Server.Port, envConfig.Server.Port)
	pickDuration("SERVER_READ_TIMEOUT", &merged.Server.ReadTimeout, envConfig.Server.ReadTimeout)
	pickDuration("SERVER_WRITE_TIMEOUT", &merged.Server.WriteTimeout, envConfig.Server.WriteTimeout)
	pickDuration("SERVER_IDLE_TIMEOUT", &merged.Server.IdleTimeout, envConfig.Server.IdleTimeout)
	pickInt("SERVER_MAX_HEADER_BYTES", &merged.Server.MaxHeaderBytes, envConfig.Server.MaxHeaderBytes)
	pickDuration("SERVER_SHUTDOWN_TIMEOUT", &merged.Server.ShutdownTimeout, envConfig.Server.ShutdownTimeout)
	pickDuration("SERVER_REQUEST_TIMEOUT", &merged.Server.RequestTimeout, envConfig.Server.RequestTimeout)

	if set("SECURITY_ALLOWED_ORIGINS") || len(merged.Security.AllowedOrigins) == 0 {
		merged.Security.AllowedOrigins = envConfig.Security.AllowedOrigins
	}
	pickBool("SECURITY_ENABLE_CORS", &merged.Security.EnableCORS, envConfig.Security.EnableCORS)
	pickBool("SECURITY_RATE_LIMIT_ENABLED", &merged.Security.RateLimit.Enabled, envConfig.Security.RateLimit.Enabled)
	if set("SECURITY_RATE_LIMIT_RPS") || merged.Security.RateLimit.RPS == 0 {
		merged.Security.RateLimit.RPS = envConfig.Security.RateLimit.RPS
	}
	pickInt("SECURITY_RATE_LIMIT_BURST", &merged.Security.RateLimit.Burst, envConfig.Security.RateLimit.Burst)

	pickString("LOGGING_LEVEL", &merged.Logging.Level, envConfig.Logging.Level)
	pickString("LOGGING_FORMAT", &merged.Logging.Format, envConfig.Logging.Format)
	pickString("LOGGING_OUTPUT", &merged.Logging.Output, envConfig.Logging.Output)
	pickString("LOGGING_FILE_PATH", &merged.Logging.FilePath, envConfig.Logging.FilePath)
	pickBool("LOGGING_DEVELOPMENT", &merged.Logging.Development, envConfig.Logging.Development)

	pickString("PATHS_DATA_DIR", &merged.Paths.DataDir, envConfig.Paths.DataDir)
	pickString("PATHS_GOLD_FILE", &merged.Paths.GoldFile, envConfig.Paths.GoldFile)
	pickString("PATHS_WEB_DIR", &merged.Paths.WebDir, envConfig.Paths.WebDir)
	pickString("PATHS_LOGS_DIR", &merged.Paths.LogsDir, envConfig.Paths.LogsDir)

	pickDuration("CACHE_TTL", &merged.Cache.TTL, envConfig.Cache.TTL)

	pickString("API_VERSION", &merged.API.Version, envConfig.API.Version)
	pickInt("API_DEFAULT_PAGE_SIZE", &merged.API.DefaultPageSize, envConfig.API.DefaultPageSize)
	pickInt("API_MAX_PAGE_SIZE", &merged.API.MaxPageSize, envConfig.API.MaxPageSize)

	pickBool("PIPELINE_PARALLEL", &merged.Pipeline.Parallel, envConfig.Pipeline.Parallel)
	pickInt("PIPELINE_MAX_CONCURRENCY", &merged.Pipeline.MaxConcurrency, envConfig.Pipeline.MaxConcurrency)
	pickBool("PIPELINE_CONTINUE_ON_ERROR", &merged.Pipeline.ContinueOnError, envConfig.Pipeline.ContinueOnError)
	pickDuration("PIPELINE_STEP_TIMEOUT", &merged.Pipeline.StepTimeout, envConfig.Pipeline.StepTimeout)

	pickBool("WAREHOUSE_ENABLED", &merged.Warehouse.Enabled, envConfig.Warehouse.Enabled)
	pickString("WAREHOUSE_FILE", &merged.Warehouse.File, envConfig.Warehouse.File)

	pickString("PUBLISH_BUCKET", &merged.Publish.Bucket, envConfig.Publish.Bucket)
	pickString("PUBLISH_PREFIX", &merged.Publish.Prefix, envConfig.Publish.Prefix)
	pickString("PUBLISH_REGION", &merged.Publish.Region, envConfig.Publish.Region)
	pickString("PUBLISH_ENDPOINT", &merged.Publish.Endpoint, envConfig.Publish.Endpoint)
	pickString("PUBLISH_ACCESS_KEY", &merged.Publish.AccessKey, envConfig.Publish.AccessKey)
	pickString("PUBLISH_SECRET_KEY", &merged.Publish.SecretKey, envConfig.Publish.SecretKey)

	pickBool("TELEMETRY_ENABLE_TRACING", &merged.Telemetry.EnableTracing, envConfig.Telemetry.EnableTracing)
	pickBool("TELEMETRY_ENABLE_METRICS", &merged.Telemetry.EnableMetrics, envConfig.Telemetry.EnableMetrics)
	pickString("TELEMETRY_TRACE_EXPORTER", &merged.Telemetry.TraceExporter, envConfig.Telemetry.TraceExporter)
	pickString("TELEMETRY_METRIC_EXPORTER", &merged.Telemetry.MetricExporter, envConfig.Telemetry.MetricExporter)
	if set("TELEMETRY_SAMPLE_RATIO") || merged.Telemetry.SampleRatio == 0 {
		merged.Telemetry.SampleRatio = envConfig.Telemetry.SampleRatio
	}

	return merged
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	switch c.Environment {
	case EnvDevelopment, EnvProduction, EnvTesting:
	default:
		return fmt.Errorf("invalid environment: %q", c.Environment)
	}

	if len(c.Security.AllowedOrigins) == 0 {
		c.Security.AllowedOrigins = []string{"*"}
	}

	if c.Paths.DataDir == "" {
		return fmt.Errorf("data directory must be set")
	}

	if c.Paths.GoldFile == "" {
		return fmt.Errorf("gold file name must be set")
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}

	if c.API.DefaultPageSize <= 0 || c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("invalid page sizes: default=%d max=%d", c.API.DefaultPageSize, c.API.MaxPageSize)
	}

	if c.Pipeline.MaxConcurrency <= 0 {
		c.Pipeline.MaxConcurrency = 1
	}

	// JSON logs only
	c.Logging.Format = "json"

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = filepath.Join(c.Paths.LogsDir, "app.log")
	}

	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetPaths resolves every data path from the configured data directory.
func (c *Config) GetPaths() *Paths {
	return NewPaths(c.Paths.DataDir, c.Paths.GoldFile, c.Paths.WebDir, c.Paths.LogsDir, c.Warehouse.File)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
		"../../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Environment: EnvDevelopment,
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  DefaultRequestTimeout,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"*"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:       DefaultLogLevel,
			Format:      DefaultLogFormat,
			Output:      "console",
			FilePath:    "logs/app.log",
			Development: true,
		},
		Paths: PathsConfig{
			DataDir:  DefaultDataDir,
			GoldFile: GoldFileName,
			WebDir:   DefaultWebDir,
			LogsDir:  DefaultLogsDir,
		},
		Cache: CacheConfig{TTL: DefaultCacheTTL},
		API: APIConfig{
			Version:         APIVersion,
			DefaultPageSize: DefaultPageSize,
			MaxPageSize:     MaxPageSize,
		},
		Pipeline: PipelineConfig{
			MaxConcurrency: 4,
			StepTimeout:    DefaultStepTimeout,
		},
		Warehouse: WarehouseConfig{
			Enabled: true,
			File:    WarehouseFileName,
		},
		Publish: PublishConfig{
			Prefix: "gold",
			Region: "eu-west-3",
		},
		Telemetry: TelemetryConfig{
			EnableMetrics:  true,
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
