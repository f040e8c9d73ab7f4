package testutil

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"parisdash/internal/operations"
)

// CreateTestConfig returns a sequential configuration with fast retries
func CreateTestConfig() *operations.Config {
	return operations.NewConfigBuilder().
		WithDefaultTimeout(5 * time.Second).
		WithRetryConfig(operations.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: time.Millisecond,
			MaxDelay:     5 * time.Millisecond,
			Multiplier:   2,
		}).
		Build()
}

// CreateSuccessfulStage creates a step that always succeeds and reports a
// row count
func CreateSuccessfulStage(id, name string, deps ...string) *MockStage {
	return &MockStage{
		IDValue:           id,
		NameValue:         name,
		DependenciesValue: deps,
		ExecuteFunc: func(ctx context.Context, state *operations.OperationState) error {
			if stepState := state.GetStage(id); stepState != nil {
				stepState.SetMetadata("rows", 10)
				stepState.UpdateProgress(100, "Completed")
			}
			return nil
		},
	}
}

// CreateFailingStage creates a step that always fails
func CreateFailingStage(id, name string, err error, deps ...string) *MockStage {
	if err == nil {
		err = errors.New("step failed")
	}
	return &MockStage{
		IDValue:           id,
		NameValue:         name,
		DependenciesValue: deps,
		ExecuteFunc: func(context.Context, *operations.OperationState) error {
			return err
		},
	}
}

// CreateRetryableStage creates a step that fails failCount times with a
// retryable error, then succeeds
func CreateRetryableStage(id, name string, failCount int, deps ...string) *MockStage {
	var attempts atomic.Int32
	return &MockStage{
		IDValue:           id,
		NameValue:         name,
		DependenciesValue: deps,
		ExecuteFunc: func(context.Context, *operations.OperationState) error {
			if int(attempts.Add(1)) <= failCount {
				return operations.NewExecutionError(id, errors.New("temporary failure"), true)
			}
			return nil
		},
	}
}

// CreateSlowStage creates a step that takes duration unless cancelled
func CreateSlowStage(id, name string, duration time.Duration, deps ...string) *MockStage {
	return &MockStage{
		IDValue:           id,
		NameValue:         name,
		DependenciesValue: deps,
		ExecuteFunc: func(ctx context.Context, _ *operations.OperationState) error {
			select {
			case <-time.After(duration):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
}

// CreateValidationFailingStage creates a step that fails validation
func CreateValidationFailingStage(id, name string, validationErr error, deps ...string) *MockStage {
	if validationErr == nil {
		validationErr = errors.New("validation failed")
	}
	return &MockStage{
		IDValue:           id,
		NameValue:         name,
		DependenciesValue: deps,
		ValidateFunc: func(*operations.OperationState) error {
			return validationErr
		},
	}
}

// CreateMedallionStages mirrors the shape of the real pipeline: two
// independent silver steps feeding a gold step
func CreateMedallionStages() []*MockStage {
	return []*MockStage{
		CreateSuccessfulStage("silver_a", "Silver A"),
		CreateSuccessfulStage("silver_b", "Silver B"),
		CreateSuccessfulStage("gold", "Gold", "silver_a", "silver_b"),
	}
}

// RegisterStages registers steps in order and returns the registry
func RegisterStages(stages ...*MockStage) (*operations.Registry, error) {
	registry := operations.NewRegistry()
	for _, s := range stages {
		if err := registry.Register(s); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
