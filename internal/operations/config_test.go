package operations_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"parisdash/internal/config"
	"parisdash/internal/operations"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := operations.NewConfig()

	assert.Equal(t, operations.ExecutionModeSequential, cfg.ExecutionMode)
	assert.Equal(t, 1, cfg.MaxConcurrency)
	assert.False(t, cfg.ContinueOnError)
	assert.Equal(t, operations.DefaultDVFTimeout, cfg.GetStepTimeout(operations.StepIDDVFClean))
	assert.Equal(t, operations.DefaultStepTimeout, cfg.GetStepTimeout(operations.StepIDTransit))
}

func TestFromPipelineConfig(t *testing.T) {
	cfg := operations.FromPipelineConfig(config.PipelineConfig{
		Parallel:        true,
		MaxConcurrency:  0,
		ContinueOnError: true,
		StepTimeout:     time.Minute,
	})

	assert.Equal(t, operations.ExecutionModeParallel, cfg.ExecutionMode)
	assert.Equal(t, 1, cfg.MaxConcurrency)
	assert.True(t, cfg.ContinueOnError)
	assert.Equal(t, time.Minute, cfg.GetStepTimeout(operations.StepIDTransit))
	assert.Equal(t, operations.DefaultGoldTimeout, cfg.GetStepTimeout(operations.StepIDGold))

	cfg.SetStepTimeout(operations.StepIDGold, 0)
	assert.Equal(t, time.Minute, cfg.GetStepTimeout(operations.StepIDGold))
}
