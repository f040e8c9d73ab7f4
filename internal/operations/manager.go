package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"parisdash/internal/infrastructure"
)

// Manager orchestrates pipeline execution
type Manager struct {
	registry *Registry
	config   *Config
	observer StepObserver
	logger   *slog.Logger

	// Active operations
	mu         sync.RWMutex
	operations map[string]*OperationState
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithObserver sets the observer notified around runs and steps
func WithObserver(observer StepObserver) ManagerOption {
	return func(m *Manager) {
		if observer != nil {
			m.observer = observer
		}
	}
}

// WithLogger sets the manager logger
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a new pipeline manager
func NewManager(registry *Registry, config *Config, opts ...ManagerOption) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}

	m := &Manager{
		registry:   registry,
		config:     config,
		observer:   noopObserver{},
		logger:     slog.Default(),
		operations: make(map[string]*OperationState),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(slog.String("component", "pipeline"))
	return m
}

// RegisterStage registers a Step with the pipeline
func (m *Manager) RegisterStage(step Step) error {
	return m.registry.Register(step)
}

// GetRegistry returns the registry of the manager
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// Execute runs a single step when Parameters["step"] names one, or every
// registered step in dependency order otherwise.
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (*OperationResponse, error) {
	if req.ID == "" {
		req.ID = "pipeline-" + uuid.NewString()
	}

	ctx = infrastructure.WithOperationID(ctx, req.ID)
	state := NewOperationState(req.ID)
	if req.DataDir != "" {
		state.SetConfig(ContextKeyDataDir, req.DataDir)
	}
	for k, v := range req.Parameters {
		state.SetConfig(k, v)
	}
	manifest := NewPipelineManifest(req.ID)

	m.storeOperation(state)
	defer m.removeOperation(req.ID)
	m.logOperationStart(ctx, req)

	levels, err := m.plan(req)
	if err != nil {
		m.logOperationError(ctx, req.ID, err)
		state.Fail(err)
		manifest.Finish(OperationStatusFailed, err)
		return m.createResponse(state, manifest), err
	}

	var steps []Step
	for _, level := range levels {
		for _, step := range level {
			state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
			steps = append(steps, step)
		}
	}

	ctx = m.observer.StartOperation(ctx, req.ID, len(steps))
	state.Start()

	if m.config.ExecutionMode == ExecutionModeParallel {
		err = m.executeParallel(ctx, state, manifest, levels)
	} else {
		err = m.executeSequential(ctx, state, manifest, steps)
	}

	switch {
	case err != nil && ctx.Err() != nil:
		state.Cancel(err)
	case err != nil:
		state.Fail(err)
	default:
		state.Complete()
	}
	manifest.Finish(state.GetStatus(), err)
	m.observer.EndOperation(ctx, state)
	m.logOperationComplete(ctx, req.ID, state.Duration(), string(state.GetStatus()))

	return m.createResponse(state, manifest), err
}

// plan returns the dependency levels to run for req
func (m *Manager) plan(req OperationRequest) ([][]Step, error) {
	stepParam, _ := req.Parameters[ContextKeyStep].(string)
	if stepParam != "" && stepParam != StepFullPipeline {
		step, err := m.registry.Get(stepParam)
		if err != nil {
			return nil, err
		}
		return [][]Step{{step}}, nil
	}

	levels, err := m.registry.Levels()
	if err != nil {
		return nil, fmt.Errorf("failed to get dependency order: %w", err)
	}
	return levels, nil
}

// executeSequential executes steps one by one
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, manifest *PipelineManifest, steps []Step) error {
	var failures ErrorList
	for i, step := range steps {
		if ctx.Err() != nil {
			m.logger.WarnContext(ctx, "operation_cancelled",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()))
			m.skipRemaining(state, steps[i:], "Operation cancelled")
			return NewCancellationError(step.ID())
		}

		if stepState := state.GetStage(step.ID()); stepState.GetStatus() == StepStatusSkipped {
			m.logger.InfoContext(ctx, "stage_skipped",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()),
				slog.Int("stage_number", i+1),
				slog.Int("total_stages", len(steps)))
			continue
		}

		m.logger.InfoContext(ctx, "executing_stage",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("stage_number", i+1),
			slog.Int("total_stages", len(steps)))

		if err := m.executeStage(ctx, state, manifest, step); err != nil {
			opErr := WrapError(err, step.ID(), "")
			if GetErrorType(err) == ErrorTypeCancellation || !m.config.ContinueOnError {
				m.skipDependentStages(state, steps, step.ID())
				m.skipRemaining(state, steps[i+1:], fmt.Sprintf("Pipeline stopped after %s failed", step.ID()))
				return opErr
			}
			failures.Add(opErr)
			m.skipDependentStages(state, steps, step.ID())
			m.logger.WarnContext(ctx, "stage_failed_continuing",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()),
				slog.String("error", err.Error()))
		}
	}

	if failures.HasErrors() {
		return &failures
	}
	m.logger.InfoContext(ctx, "all_stages_completed", slog.String("operation_id", state.ID))
	return nil
}

// executeParallel runs each dependency level with at most MaxConcurrency
// steps at a time. A level starts once the previous one has finished.
func (m *Manager) executeParallel(ctx context.Context, state *OperationState, manifest *PipelineManifest, levels [][]Step) error {
	var (
		mu       sync.Mutex
		failures ErrorList
		all      []Step
	)
	for _, level := range levels {
		all = append(all, level...)
	}

	for li, level := range levels {
		if ctx.Err() != nil {
			m.skipRemaining(state, all, "Operation cancelled")
			return NewCancellationError(level[0].ID())
		}

		m.logger.InfoContext(ctx, "executing_level",
			slog.String("operation_id", state.ID),
			slog.Int("level", li+1),
			slog.Int("steps", len(level)))

		var g errgroup.Group
		g.SetLimit(max(m.config.MaxConcurrency, 1))
		for _, step := range level {
			if state.GetStage(step.ID()).GetStatus() == StepStatusSkipped {
				continue
			}
			g.Go(func() error {
				err := m.executeStage(ctx, state, manifest, step)
				if err == nil {
					return nil
				}
				opErr := WrapError(err, step.ID(), "")
				if GetErrorType(err) == ErrorTypeCancellation || !m.config.ContinueOnError {
					return opErr
				}
				mu.Lock()
				failures.Add(opErr)
				mu.Unlock()
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			for _, failed := range state.GetFailedStages() {
				m.skipDependentStages(state, all, failed.ID)
			}
			m.skipRemaining(state, all, "Pipeline stopped after a failed level")
			return err
		}
		for _, failed := range state.GetFailedStages() {
			m.skipDependentStages(state, all, failed.ID)
		}
	}

	if failures.HasErrors() {
		return &failures
	}
	m.logger.InfoContext(ctx, "all_stages_completed", slog.String("operation_id", state.ID))
	return nil
}

// executeStage runs one step with its input checks, timeout and retries
func (m *Manager) executeStage(ctx context.Context, state *OperationState, manifest *PipelineManifest, step Step) error {
	stepState := state.GetStage(step.ID())
	if stepState == nil {
		return NewFatalError("step state not found", nil)
	}
	m.logStageStart(ctx, state.ID, step.ID())

	if err := step.Validate(state); err != nil {
		vErr := NewValidationError(step.ID(), err.Error())
		stepState.Fail(vErr)
		manifest.RecordStep(stepState, nil)
		m.logStageError(ctx, state.ID, step.ID(), vErr)
		return vErr
	}

	missing, err := manifest.Missing(step.RequiredInputs())
	if err != nil {
		stepState.Fail(err)
		manifest.RecordStep(stepState, nil)
		return NewExecutionError(step.ID(), err, false)
	}
	if len(missing) > 0 {
		if required := firstRequired(missing); required != nil {
			mErr := NewMissingInputError(step.ID(), *required)
			stepState.Fail(mErr)
			manifest.RecordStep(stepState, nil)
			m.logStageError(ctx, state.ID, step.ID(), mErr)
			return mErr
		}
		reason := fmt.Sprintf("Input %s not found in %s", missing[0].Pattern, missing[0].Location)
		stepState.Skip(reason)
		manifest.RecordStep(stepState, nil)
		m.logger.WarnContext(ctx, "stage_skipped_missing_input",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.String("reason", reason))
		return nil
	}

	timeout := m.config.GetStepTimeout(step.ID())
	retry := m.config.RetryConfig
	attempts := max(retry.MaxAttempts, 1)

	obsCtx := m.observer.StartStep(ctx, state.ID, step)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		stepState.Start()
		start := time.Now()
		lastErr = m.runWithTimeout(obsCtx, state, step, timeout)
		duration := time.Since(start)

		if lastErr == nil {
			stepState.Complete()
			outputs := manifest.RecordOutputs(step.ID(), step.ProducedOutputs())
			manifest.RecordStep(stepState, outputs)
			m.observer.EndStep(obsCtx, stepState, nil)
			m.logStageComplete(ctx, state.ID, step.ID(), duration)
			return nil
		}

		m.logger.ErrorContext(ctx, "stage_execution_failed",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("attempt", attempt),
			slog.Duration("duration", duration),
			slog.String("error", lastErr.Error()))

		if !IsRetryable(lastErr) || attempt == attempts {
			break
		}

		delay := m.calculateRetryDelay(attempt, retry)
		m.logger.WarnContext(ctx, "stage_retry",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			lastErr = NewCancellationError(step.ID())
			attempt = attempts
		}
	}

	stepState.Fail(lastErr)
	manifest.RecordStep(stepState, nil)
	m.observer.EndStep(obsCtx, stepState, lastErr)
	m.logStageError(ctx, state.ID, step.ID(), lastErr)
	return WrapError(lastErr, step.ID(), "")
}

// runWithTimeout executes one attempt and classifies context errors
func (m *Manager) runWithTimeout(ctx context.Context, state *OperationState, step Step, timeout time.Duration) error {
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := step.Execute(stepCtx, state)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return NewCancellationError(step.ID())
	case errors.Is(stepCtx.Err(), context.DeadlineExceeded):
		return NewTimeoutError(step.ID(), timeout.String())
	}
	return err
}

func firstRequired(reqs []DataRequirement) *DataRequirement {
	for i := range reqs {
		if !reqs[i].Optional {
			return &reqs[i]
		}
	}
	return nil
}

// skipDependentStages marks every pending step that depends, directly or
// not, on failedStepID as skipped
func (m *Manager) skipDependentStages(state *OperationState, steps []Step, failedStepID string) {
	for _, step := range steps {
		if !slices.Contains(step.GetDependencies(), failedStepID) {
			continue
		}
		stepState := state.GetStage(step.ID())
		if stepState != nil && stepState.GetStatus() == StepStatusPending {
			stepState.Skip(fmt.Sprintf("Dependency %s failed", failedStepID))
			m.skipDependentStages(state, steps, step.ID())
		}
	}
}

func (m *Manager) skipRemaining(state *OperationState, steps []Step, reason string) {
	for _, step := range steps {
		if stepState := state.GetStage(step.ID()); stepState != nil && stepState.GetStatus() == StepStatusPending {
			stepState.Skip(reason)
		}
	}
}

// calculateRetryDelay grows the delay geometrically up to MaxDelay
func (m *Manager) calculateRetryDelay(attempt int, config RetryConfig) time.Duration {
	multiplier := config.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	delay := time.Duration(float64(config.InitialDelay) * math.Pow(multiplier, float64(attempt-1)))
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}

// createResponse creates an operation response from state
func (m *Manager) createResponse(state *OperationState, manifest *PipelineManifest) *OperationResponse {
	resp := &OperationResponse{
		ID:       state.ID,
		Status:   state.GetStatus(),
		Duration: state.Duration(),
		Steps:    state.Snapshot(),
		Manifest: manifest,
	}
	if state.Error != nil {
		resp.Error = state.Error.Error()
	}
	return resp
}

// GetOperation retrieves the step states of a running operation
func (m *Manager) GetOperation(id string) (map[string]*StepState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.operations[id]
	if !exists {
		return nil, fmt.Errorf("operation %s not found", id)
	}
	return state.Snapshot(), nil
}

// ListOperations returns the IDs of the running operations
func (m *Manager) ListOperations() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.operations))
	for id := range m.operations {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (m *Manager) storeOperation(state *OperationState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations[state.ID] = state
}

func (m *Manager) removeOperation(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.operations, id)
}
