package operations

import (
	"time"

	"parisdash/internal/config"
)

// Config represents the pipeline execution configuration
type Config struct {
	// Execution mode (sequential or parallel)
	ExecutionMode ExecutionMode `json:"execution_mode"`

	// Step-specific timeouts
	StepTimeouts map[string]time.Duration `json:"step_timeouts"`

	// Timeout of steps without a specific one
	DefaultTimeout time.Duration `json:"default_timeout"`

	// Retry configuration for steps
	RetryConfig RetryConfig `json:"retry_config"`

	// Whether to continue on Step failures
	ContinueOnError bool `json:"continue_on_error"`

	// Maximum concurrent steps (for parallel execution)
	MaxConcurrency int `json:"max_concurrency"`
}

// NewConfig returns the default pipeline configuration
func NewConfig() *Config {
	return &Config{
		ExecutionMode: ExecutionModeSequential,
		StepTimeouts: map[string]time.Duration{
			StepIDDVFClean:  DefaultDVFTimeout,
			StepIDGold:      DefaultGoldTimeout,
			StepIDWarehouse: DefaultWarehouseTimeout,
		},
		DefaultTimeout:  DefaultStepTimeout,
		RetryConfig:     NewRetryConfig(),
		ContinueOnError: false,
		MaxConcurrency:  1,
	}
}

// FromPipelineConfig maps the application settings onto a pipeline Config
func FromPipelineConfig(pc config.PipelineConfig) *Config {
	b := NewConfigBuilder().
		WithContinueOnError(pc.ContinueOnError).
		WithMaxConcurrency(pc.MaxConcurrency)
	if pc.Parallel {
		b.WithExecutionMode(ExecutionModeParallel)
	}
	if pc.StepTimeout > 0 {
		b.WithDefaultTimeout(pc.StepTimeout)
	}
	return b.Build()
}

// GetStepTimeout returns the timeout for a specific Step
func (c *Config) GetStepTimeout(stepID string) time.Duration {
	if timeout, ok := c.StepTimeouts[stepID]; ok && timeout > 0 {
		return timeout
	}
	if c.DefaultTimeout > 0 {
		return c.DefaultTimeout
	}
	return DefaultStepTimeout
}

// SetStepTimeout sets the timeout for a specific Step
func (c *Config) SetStepTimeout(stepID string, timeout time.Duration) {
	if c.StepTimeouts == nil {
		c.StepTimeouts = make(map[string]time.Duration)
	}
	c.StepTimeouts[stepID] = timeout
}

// ConfigBuilder provides a fluent interface for building configurations
type ConfigBuilder struct {
	config *Config
}

// NewConfigBuilder creates a new configuration builder
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: NewConfig(),
	}
}

// WithExecutionMode sets the execution mode
func (b *ConfigBuilder) WithExecutionMode(mode ExecutionMode) *ConfigBuilder {
	b.config.ExecutionMode = mode
	return b
}

// WithStepTimeout sets the timeout for a Step
func (b *ConfigBuilder) WithStepTimeout(stepID string, timeout time.Duration) *ConfigBuilder {
	b.config.SetStepTimeout(stepID, timeout)
	return b
}

// WithDefaultTimeout sets the timeout of steps without a specific one
func (b *ConfigBuilder) WithDefaultTimeout(timeout time.Duration) *ConfigBuilder {
	b.config.DefaultTimeout = timeout
	return b
}

// WithRetryConfig sets the retry configuration
func (b *ConfigBuilder) WithRetryConfig(config RetryConfig) *ConfigBuilder {
	b.config.RetryConfig = config
	return b
}

// WithContinueOnError sets whether to continue on errors
func (b *ConfigBuilder) WithContinueOnError(continueOnError bool) *ConfigBuilder {
	b.config.ContinueOnError = continueOnError
	return b
}

// WithMaxConcurrency sets the maximum concurrency
func (b *ConfigBuilder) WithMaxConcurrency(maxConcurrency int) *ConfigBuilder {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	b.config.MaxConcurrency = maxConcurrency
	return b
}

// Build returns the built configuration
func (b *ConfigBuilder) Build() *Config {
	return b.config
}
