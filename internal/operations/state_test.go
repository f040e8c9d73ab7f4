package operations_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parisdash/internal/operations"
	"parisdash/internal/operations/testutil"
)

func TestOperationStateLifecycle(t *testing.T) {
	state := operations.NewOperationState("run-1")
	assert.Equal(t, operations.OperationStatusPending, state.GetStatus())

	state.Start()
	assert.Equal(t, operations.OperationStatusRunning, state.GetStatus())

	state.Fail(errors.New("boom"))
	assert.Equal(t, operations.OperationStatusFailed, state.GetStatus())
	assert.EqualError(t, state.Error, "boom")
	assert.GreaterOrEqual(t, state.Duration().Nanoseconds(), int64(0))
}

func TestOperationStateValues(t *testing.T) {
	state := operations.NewOperationState("run-1")

	state.SetContext(operations.ContextKeyGoldRows, 20)
	v, ok := state.GetContext(operations.ContextKeyGoldRows)
	require.True(t, ok)
	assert.Equal(t, 20, v)
	_, ok = state.GetContext("absent")
	assert.False(t, ok)

	state.SetConfig(operations.ContextKeyStep, "gold")
	state.SetConfig("empty", "")
	state.SetConfig("number", 3)
	assert.Equal(t, "gold", state.GetConfigString(operations.ContextKeyStep, operations.StepFullPipeline))
	assert.Equal(t, "def", state.GetConfigString("empty", "def"))
	assert.Equal(t, "def", state.GetConfigString("number", "def"))
	assert.Equal(t, "def", state.GetConfigString("absent", "def"))
}

func TestOperationStateStages(t *testing.T) {
	state := operations.NewOperationState("run-1")

	done := operations.NewStepState("silver", "Silver")
	done.Start()
	done.SetMetadata("rows", int64(42))
	done.Complete()

	failed := operations.NewStepState("gold", "Gold")
	failed.Start()
	failed.Fail(errors.New("no input"))

	skipped := operations.NewStepState("publish", "Publish")
	skipped.Skip("dependency failed")

	state.SetStage(done.ID, done)
	state.SetStage(failed.ID, failed)
	state.SetStage(skipped.ID, skipped)

	completed := state.GetCompletedStages()
	require.Len(t, completed, 1)
	assert.Equal(t, "silver", completed[0].ID)
	assert.Equal(t, int64(42), completed[0].RowsWritten())
	assert.True(t, state.HasFailures())
	assert.Equal(t, "no input", state.GetFailedStages()[0].ErrorMessage)

	snap := state.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, operations.StepStatusSkipped, snap["publish"].Status)
	assert.Equal(t, "dependency failed", snap["publish"].Message)

	// Snapshots are copies
	snap["silver"].Metadata["rows"] = int64(0)
	assert.Equal(t, int64(42), state.GetStage("silver").RowsWritten())
}

func TestStepStateRetryKeepsStartTime(t *testing.T) {
	s := operations.NewStepState("publish", "Publish")
	s.Start()
	first := *s.StartTime
	s.Fail(errors.New("timeout"))
	s.Start()
	s.Complete()

	assert.Equal(t, 2, s.Attempts)
	assert.Equal(t, first, *s.StartTime)
	assert.Empty(t, s.ErrorMessage)
	assert.Equal(t, float64(100), s.Progress)
}

func TestRegistryListIDs(t *testing.T) {
	registry, err := testutil.RegisterStages(testutil.CreateMedallionStages()...)
	require.NoError(t, err)

	assert.Equal(t, []string{"silver_a", "silver_b", "gold"}, registry.ListIDs())
	assert.Equal(t, 3, registry.Count())
}

func TestManagerGetOperationWhileRunning(t *testing.T) {
	var manager *operations.Manager
	var seen map[string]*operations.StepState
	var seenErr error

	watcher := testutil.CreateSuccessfulStage("watcher", "Watcher")
	watcher.ExecuteFunc = func(ctx context.Context, state *operations.OperationState) error {
		assert.Equal(t, []string{"run-live"}, manager.ListOperations())
		seen, seenErr = manager.GetOperation("run-live")
		return nil
	}
	manager, _ = newTestManager(t, nil, watcher)

	_, err := manager.Execute(context.Background(), operations.OperationRequest{ID: "run-live"})
	require.NoError(t, err)

	require.NoError(t, seenErr)
	require.Contains(t, seen, "watcher")
	assert.Equal(t, operations.StepStatusActive, seen["watcher"].Status)

	_, err = manager.GetOperation("run-live")
	assert.Error(t, err, "finished operations are forgotten")
}
