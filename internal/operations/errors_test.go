package operations_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"parisdash/internal/operations"
)

func TestOperationErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      *operations.OperationError
		expected string
	}{
		{
			name:     "validation",
			err:      operations.NewValidationError("gold", "no processor"),
			expected: "[validation] gold: no processor",
		},
		{
			name:     "execution with cause",
			err:      operations.NewExecutionError("transit", errors.New("bad header"), false),
			expected: "[execution] transit: step execution failed: bad header",
		},
		{
			name:     "timeout",
			err:      operations.NewTimeoutError("dvf_clean", "30m0s"),
			expected: "[timeout] dvf_clean: step exceeded timeout of 30m0s",
		},
		{
			name:     "fatal without step",
			err:      operations.NewFatalError("dependency cycle detected", nil),
			expected: "[fatal] dependency cycle detected",
		},
		{
			name: "missing input",
			err: operations.NewMissingInputError("dvf_clean", operations.DataRequirement{
				Type: operations.DataTypeDVFBronze, Pattern: "75_*.csv",
			}),
			expected: "[missing_input] dvf_clean: missing input dvf_bronze (75_*.csv)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestErrorClassification(t *testing.T) {
	retryable := operations.NewExecutionError("publish", errors.New("503"), true)
	wrapped := fmt.Errorf("run: %w", retryable)

	assert.True(t, operations.IsRetryable(wrapped))
	assert.False(t, operations.IsRetryable(errors.New("plain")))
	assert.False(t, operations.IsRetryable(operations.NewCancellationError("gold")))

	assert.Equal(t, operations.ErrorTypeExecution, operations.GetErrorType(wrapped))
	assert.Equal(t, operations.ErrorTypeExecution, operations.GetErrorType(errors.New("plain")))
	assert.Equal(t, operations.ErrorType(""), operations.GetErrorType(nil))

	cause := operations.NewExecutionError("publish", context.DeadlineExceeded, false)
	assert.ErrorIs(t, cause, context.DeadlineExceeded)
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, operations.WrapError(nil, "gold", ""))

	plain := operations.WrapError(errors.New("disk full"), "gold", "write failed")
	assert.Equal(t, operations.ErrorTypeExecution, plain.Type)
	assert.Equal(t, "gold", plain.Step)
	assert.Equal(t, "[execution] gold: write failed: disk full", plain.Error())

	timeout := operations.NewTimeoutError("", "1s")
	wrapped := operations.WrapError(timeout, "warehouse", "")
	assert.Same(t, timeout, wrapped)
	assert.Equal(t, "warehouse", wrapped.Step)
}

func TestErrorList(t *testing.T) {
	var list operations.ErrorList
	assert.False(t, list.HasErrors())
	assert.Equal(t, "no errors", list.Error())

	list.Add(nil)
	list.Add(operations.NewValidationError("transit", "bad"))
	assert.True(t, list.HasErrors())
	assert.Equal(t, "[validation] transit: bad", list.Error())

	list.Add(operations.NewValidationError("air_quality", "bad"))
	assert.Equal(t, "multiple errors: 2 steps failed", list.Error())
	assert.Len(t, list.GetByStep("transit"), 1)
	assert.Empty(t, list.GetByStep("gold"))
}
