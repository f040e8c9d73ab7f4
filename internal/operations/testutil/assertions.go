package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parisdash/internal/operations"
)

// AssertStepStatus checks the status of a step in a response
func AssertStepStatus(t *testing.T, resp *operations.OperationResponse, stepID string, expected operations.StepStatus) {
	t.Helper()
	require.NotNil(t, resp)
	step, ok := resp.Steps[stepID]
	require.True(t, ok, "step %s not in response", stepID)
	assert.Equal(t, expected, step.GetStatus(), "status of step %s", stepID)
}

// AssertErrorType checks the OperationError type carried by err
func AssertErrorType(t *testing.T, err error, expected operations.ErrorType) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, expected, operations.GetErrorType(err), "error: %v", err)
}
