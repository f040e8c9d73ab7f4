package operations_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parisdash/internal/operations"
	"parisdash/internal/operations/testutil"
)

func newTestManager(t *testing.T, cfg *operations.Config, stages ...*testutil.MockStage) (*operations.Manager, *testutil.MockObserver) {
	t.Helper()
	registry, err := testutil.RegisterStages(stages...)
	require.NoError(t, err)

	if cfg == nil {
		cfg = testutil.CreateTestConfig()
	}
	logger, _ := testutil.CreateTestSlogLogger()
	observer := testutil.NewMockObserver()
	return operations.NewManager(registry, cfg,
		operations.WithLogger(logger),
		operations.WithObserver(observer)), observer
}

func TestManagerExecuteModes(t *testing.T) {
	modes := []operations.ExecutionMode{
		operations.ExecutionModeSequential,
		operations.ExecutionModeParallel,
	}

	for _, mode := range modes {
		t.Run(string(mode), func(t *testing.T) {
			stages := testutil.CreateMedallionStages()
			cfg := testutil.CreateTestConfig()
			cfg.ExecutionMode = mode
			cfg.MaxConcurrency = 2
			manager, observer := newTestManager(t, cfg, stages...)

			resp, err := manager.Execute(context.Background(), operations.OperationRequest{ID: "run-1"})
			require.NoError(t, err)

			assert.Equal(t, "run-1", resp.ID)
			assert.Equal(t, operations.OperationStatusCompleted, resp.Status)
			for _, s := range stages {
				testutil.AssertStepStatus(t, resp, s.ID(), operations.StepStatusCompleted)
				assert.Equal(t, 1, s.GetExecuteCalls())
			}
			assert.Equal(t, int64(10), resp.Steps["gold"].RowsWritten())

			gold := stages[2]
			for _, silver := range stages[:2] {
				assert.False(t, gold.ExecutedAt[0].Before(silver.ExecutedAt[0]),
					"gold ran before %s", silver.ID())
			}

			assert.Equal(t, []string{"run-1"}, observer.Operations)
			assert.Equal(t, operations.OperationStatusCompleted, observer.Final)
			assert.Len(t, observer.EndedSteps(), 3)
			assert.True(t, resp.Manifest.IsStepCompleted("gold"))
			assert.Empty(t, manager.ListOperations())
		})
	}
}

func TestManagerGeneratesOperationID(t *testing.T) {
	manager, _ := newTestManager(t, nil, testutil.CreateSuccessfulStage("a", "A"))

	resp, err := manager.Execute(context.Background(), operations.OperationRequest{})
	require.NoError(t, err)
	assert.Contains(t, resp.ID, "pipeline-")
}

func TestManagerFailureSkipsDependents(t *testing.T) {
	for _, mode := range []operations.ExecutionMode{operations.ExecutionModeSequential, operations.ExecutionModeParallel} {
		t.Run(string(mode), func(t *testing.T) {
			cfg := testutil.CreateTestConfig()
			cfg.ExecutionMode = mode
			gold := testutil.CreateSuccessfulStage("gold", "Gold", "silver_a", "silver_b")
			manager, _ := newTestManager(t, cfg,
				testutil.CreateFailingStage("silver_a", "Silver A", errors.New("bad header")),
				testutil.CreateSuccessfulStage("silver_b", "Silver B"),
				gold,
			)

			resp, err := manager.Execute(context.Background(), operations.OperationRequest{})
			require.Error(t, err)
			assert.ErrorContains(t, err, "bad header")

			assert.Equal(t, operations.OperationStatusFailed, resp.Status)
			testutil.AssertStepStatus(t, resp, "silver_a", operations.StepStatusFailed)
			testutil.AssertStepStatus(t, resp, "gold", operations.StepStatusSkipped)
			assert.Equal(t, "Dependency silver_a failed", resp.Steps["gold"].Message)
			assert.Zero(t, gold.GetExecuteCalls())
		})
	}
}

func TestManagerContinueOnError(t *testing.T) {
	cfg := testutil.CreateTestConfig()
	cfg.ContinueOnError = true
	independent := testutil.CreateSuccessfulStage("publish_docs", "Docs")
	manager, _ := newTestManager(t, cfg,
		testutil.CreateFailingStage("silver_a", "Silver A", nil),
		testutil.CreateSuccessfulStage("silver_b", "Silver B"),
		testutil.CreateSuccessfulStage("gold", "Gold", "silver_a"),
		independent,
	)

	resp, err := manager.Execute(context.Background(), operations.OperationRequest{})
	require.Error(t, err)

	var list *operations.ErrorList
	require.ErrorAs(t, err, &list)
	assert.Len(t, list.Errors, 1)

	testutil.AssertStepStatus(t, resp, "silver_a", operations.StepStatusFailed)
	testutil.AssertStepStatus(t, resp, "silver_b", operations.StepStatusCompleted)
	testutil.AssertStepStatus(t, resp, "gold", operations.StepStatusSkipped)
	testutil.AssertStepStatus(t, resp, "publish_docs", operations.StepStatusCompleted)
	assert.Equal(t, 1, independent.GetExecuteCalls())
}

func TestManagerRetries(t *testing.T) {
	tests := []struct {
		name      string
		failCount int
		status    operations.StepStatus
		calls     int
	}{
		{name: "recovers", failCount: 2, status: operations.StepStatusCompleted, calls: 3},
		{name: "exhausted", failCount: 5, status: operations.StepStatusFailed, calls: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage := testutil.CreateRetryableStage("publish", "Publish", tt.failCount)
			manager, _ := newTestManager(t, nil, stage)

			resp, _ := manager.Execute(context.Background(), operations.OperationRequest{})

			testutil.AssertStepStatus(t, resp, "publish", tt.status)
			assert.Equal(t, tt.calls, stage.GetExecuteCalls())
			assert.Equal(t, tt.calls, resp.Steps["publish"].Attempts)
		})
	}
}

func TestManagerDoesNotRetryPlainErrors(t *testing.T) {
	stage := testutil.CreateFailingStage("gold", "Gold", errors.New("corrupt silver file"))
	manager, _ := newTestManager(t, nil, stage)

	_, err := manager.Execute(context.Background(), operations.OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, 1, stage.GetExecuteCalls())
}

func TestManagerStepTimeout(t *testing.T) {
	cfg := testutil.CreateTestConfig()
	cfg.SetStepTimeout("slow", 20*time.Millisecond)
	manager, _ := newTestManager(t, cfg, testutil.CreateSlowStage("slow", "Slow", time.Second))

	resp, err := manager.Execute(context.Background(), operations.OperationRequest{})
	testutil.AssertErrorType(t, err, operations.ErrorTypeTimeout)
	testutil.AssertStepStatus(t, resp, "slow", operations.StepStatusFailed)
}

func TestManagerCancelledContext(t *testing.T) {
	stage := testutil.CreateSuccessfulStage("a", "A")
	manager, _ := newTestManager(t, nil, stage)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := manager.Execute(ctx, operations.OperationRequest{})
	testutil.AssertErrorType(t, err, operations.ErrorTypeCancellation)
	assert.Equal(t, operations.OperationStatusCancelled, resp.Status)
	testutil.AssertStepStatus(t, resp, "a", operations.StepStatusSkipped)
	assert.Zero(t, stage.GetExecuteCalls())
}

func TestManagerValidationFailure(t *testing.T) {
	stage := testutil.CreateValidationFailingStage("gold", "Gold", errors.New("no processor"))
	manager, _ := newTestManager(t, nil, stage)

	resp, err := manager.Execute(context.Background(), operations.OperationRequest{})
	testutil.AssertErrorType(t, err, operations.ErrorTypeValidation)
	testutil.AssertStepStatus(t, resp, "gold", operations.StepStatusFailed)
	assert.Zero(t, stage.GetExecuteCalls())
}

func TestManagerInputRequirements(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "75_2024.csv"), []byte("x"), 0o644))

	present := testutil.CreateSuccessfulStage("dvf_clean", "DVF")
	present.Inputs = []operations.DataRequirement{
		{Type: operations.DataTypeDVFBronze, Location: dir, Pattern: "75_*.csv", MinCount: 1},
	}
	optional := testutil.CreateSuccessfulStage("transit", "Transit")
	optional.Inputs = []operations.DataRequirement{
		{Type: operations.DataTypeTransitBronze, Location: dir, Pattern: "trafic.csv", MinCount: 1, Optional: true},
	}
	gold := testutil.CreateSuccessfulStage("gold", "Gold", "dvf_clean", "transit")

	manager, _ := newTestManager(t, nil, present, optional, gold)
	resp, err := manager.Execute(context.Background(), operations.OperationRequest{})
	require.NoError(t, err)

	testutil.AssertStepStatus(t, resp, "dvf_clean", operations.StepStatusCompleted)
	testutil.AssertStepStatus(t, resp, "transit", operations.StepStatusSkipped)
	testutil.AssertStepStatus(t, resp, "gold", operations.StepStatusCompleted)
	assert.Zero(t, optional.GetExecuteCalls())

	info, ok := resp.Manifest.GetData(operations.DataTypeDVFBronze)
	require.True(t, ok)
	assert.Equal(t, []string{"75_2024.csv"}, info.Files)
}

func TestManagerMissingRequiredInput(t *testing.T) {
	stage := testutil.CreateSuccessfulStage("dvf_clean", "DVF")
	stage.Inputs = []operations.DataRequirement{
		{Type: operations.DataTypeDVFBronze, Location: t.TempDir(), Pattern: "75_*.csv", MinCount: 1},
	}
	manager, _ := newTestManager(t, nil, stage)

	resp, err := manager.Execute(context.Background(), operations.OperationRequest{})
	testutil.AssertErrorType(t, err, operations.ErrorTypeMissingInput)
	testutil.AssertStepStatus(t, resp, "dvf_clean", operations.StepStatusFailed)
	assert.Zero(t, stage.GetExecuteCalls())
}

func TestManagerSingleStep(t *testing.T) {
	stages := testutil.CreateMedallionStages()
	manager, _ := newTestManager(t, nil, stages...)

	resp, err := manager.Execute(context.Background(), operations.OperationRequest{
		Parameters: map[string]any{operations.ContextKeyStep: "silver_b"},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Steps, 1)
	testutil.AssertStepStatus(t, resp, "silver_b", operations.StepStatusCompleted)
	assert.Zero(t, stages[0].GetExecuteCalls())

	_, err = manager.Execute(context.Background(), operations.OperationRequest{
		Parameters: map[string]any{operations.ContextKeyStep: "unknown"},
	})
	testutil.AssertErrorType(t, err, operations.ErrorTypeNotFound)

	resp, err = manager.Execute(context.Background(), operations.OperationRequest{
		Parameters: map[string]any{operations.ContextKeyStep: operations.StepFullPipeline},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Steps, 3)
}

func TestManagerLogsRun(t *testing.T) {
	registry, err := testutil.RegisterStages(testutil.CreateMedallionStages()...)
	require.NoError(t, err)
	logger, handler := testutil.CreateTestSlogLogger()
	manager := operations.NewManager(registry, testutil.CreateTestConfig(), operations.WithLogger(logger))

	_, err = manager.Execute(context.Background(), operations.OperationRequest{DataDir: "data"})
	require.NoError(t, err)

	assert.True(t, handler.HasMessage("operation_start"))
	assert.Equal(t, 3, handler.CountMessage("stage_completed_successfully"))
	assert.True(t, handler.HasMessage("all_stages_completed"))
	assert.True(t, handler.HasMessage("operation_complete"))
}
