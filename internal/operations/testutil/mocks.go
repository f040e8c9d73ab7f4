package testutil

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"parisdash/internal/operations"
)

// MockStage is a configurable implementation of the step interface
type MockStage struct {
	IDValue           string
	NameValue         string
	DependenciesValue []string
	Inputs            []operations.DataRequirement
	Outputs           []operations.DataOutput

	// Configurable functions
	ExecuteFunc  func(ctx context.Context, state *operations.OperationState) error
	ValidateFunc func(state *operations.OperationState) error

	// Call tracking
	mu            sync.Mutex
	ExecuteCalls  int
	ValidateCalls int
	ExecutedAt    []time.Time
}

// ID returns the step ID
func (m *MockStage) ID() string {
	return m.IDValue
}

// Name returns the step name
func (m *MockStage) Name() string {
	return m.NameValue
}

// GetDependencies returns the step dependencies
func (m *MockStage) GetDependencies() []string {
	if m.DependenciesValue == nil {
		return []string{}
	}
	return m.DependenciesValue
}

// Execute runs the mock execute function
func (m *MockStage) Execute(ctx context.Context, state *operations.OperationState) error {
	m.mu.Lock()
	m.ExecuteCalls++
	m.ExecutedAt = append(m.ExecutedAt, time.Now())
	m.mu.Unlock()

	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, state)
	}
	return nil
}

// Validate runs the mock validate function
func (m *MockStage) Validate(state *operations.OperationState) error {
	m.mu.Lock()
	m.ValidateCalls++
	m.mu.Unlock()

	if m.ValidateFunc != nil {
		return m.ValidateFunc(state)
	}
	return nil
}

// GetExecuteCalls returns the number of Execute calls
func (m *MockStage) GetExecuteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ExecuteCalls
}

// GetValidateCalls returns the number of Validate calls
func (m *MockStage) GetValidateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ValidateCalls
}

// RequiredInputs returns the configured requirements
func (m *MockStage) RequiredInputs() []operations.DataRequirement {
	return m.Inputs
}

// ProducedOutputs returns the configured outputs
func (m *MockStage) ProducedOutputs() []operations.DataOutput {
	return m.Outputs
}

// MockObserver records the observer callbacks of a run
type MockObserver struct {
	mu         sync.Mutex
	Operations []string
	Started    []string
	Ended      map[string]error
	Final      operations.OperationStatusValue
}

// NewMockObserver creates an empty observer
func NewMockObserver() *MockObserver {
	return &MockObserver{Ended: make(map[string]error)}
}

// StartOperation records the run ID
func (o *MockObserver) StartOperation(ctx context.Context, operationID string, _ int) context.Context {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Operations = append(o.Operations, operationID)
	return ctx
}

// EndOperation records the final status
func (o *MockObserver) EndOperation(_ context.Context, state *operations.OperationState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Final = state.GetStatus()
}

// StartStep records the step ID
func (o *MockObserver) StartStep(ctx context.Context, _ string, step operations.Step) context.Context {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Started = append(o.Started, step.ID())
	return ctx
}

// EndStep records the step error
func (o *MockObserver) EndStep(_ context.Context, state *operations.StepState, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Ended[state.ID] = err
}

// EndedSteps returns a copy of the recorded step results
func (o *MockObserver) EndedSteps() map[string]error {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]error, len(o.Ended))
	for k, v := range o.Ended {
		out[k] = v
	}
	return out
}

// MockSlogHandler captures slog messages for testing
type MockSlogHandler struct {
	mu      sync.Mutex
	records []MockLogRecord
}

// MockLogRecord represents a captured slog record
type MockLogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// NewMockSlogHandler creates a new mock slog handler
func NewMockSlogHandler() *MockSlogHandler {
	return &MockSlogHandler{}
}

// Handle implements slog.Handler
func (h *MockSlogHandler) Handle(_ context.Context, record slog.Record) error {
	attrs := make(map[string]any)
	record.Attrs(func(attr slog.Attr) bool {
		attrs[attr.Key] = attr.Value.Any()
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, MockLogRecord{
		Level:   record.Level,
		Message: record.Message,
		Attrs:   attrs,
	})
	return nil
}

// Enabled implements slog.Handler
func (h *MockSlogHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

// WithAttrs implements slog.Handler. Base attributes are dropped.
func (h *MockSlogHandler) WithAttrs([]slog.Attr) slog.Handler {
	return h
}

// WithGroup implements slog.Handler
func (h *MockSlogHandler) WithGroup(string) slog.Handler {
	return h
}

// GetRecords returns all captured log records
func (h *MockSlogHandler) GetRecords() []MockLogRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]MockLogRecord(nil), h.records...)
}

// HasMessage checks if any record carries the given message
func (h *MockSlogHandler) HasMessage(message string) bool {
	for _, record := range h.GetRecords() {
		if record.Message == message {
			return true
		}
	}
	return false
}

// CountMessage counts the records carrying message
func (h *MockSlogHandler) CountMessage(message string) int {
	n := 0
	for _, record := range h.GetRecords() {
		if record.Message == message {
			n++
		}
	}
	return n
}

// CreateTestSlogLogger creates a slog.Logger with a MockSlogHandler
func CreateTestSlogLogger() (*slog.Logger, *MockSlogHandler) {
	handler := NewMockSlogHandler()
	return slog.New(handler), handler
}
