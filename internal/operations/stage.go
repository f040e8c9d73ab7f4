package operations

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DataRequirement specifies data needed for a step to run
type DataRequirement struct {
	Type     string `json:"type"`      // e.g. "dvf_bronze"
	Location string `json:"location"`  // directory holding the files
	Pattern  string `json:"pattern"`   // glob inside Location
	MinCount int    `json:"min_count"` // minimum number of matching files
	Optional bool   `json:"optional"`  // missing files skip the step instead of failing it
}

// DataOutput specifies data produced by a step
type DataOutput struct {
	Type     string `json:"type"`
	Location string `json:"location"`
	Pattern  string `json:"pattern"`
}

// Step is one transformation of the pipeline. Steps read the files listed
// by RequiredInputs and write the ones listed by ProducedOutputs; the
// manager checks the inputs before Execute is called.
type Step interface {
	ID() string
	Name() string
	Execute(ctx context.Context, state *OperationState) error
	Validate(state *OperationState) error
	// GetDependencies lists the step IDs that must finish first
	GetDependencies() []string
	RequiredInputs() []DataRequirement
	ProducedOutputs() []DataOutput
}

type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepState is the runtime record of one step, reported in the run response
// and the manifest
type StepState struct {
	mu           sync.RWMutex
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Status       StepStatus     `json:"status"`
	StartTime    *time.Time     `json:"start_time,omitempty"`
	EndTime      *time.Time     `json:"end_time,omitempty"`
	Attempts     int            `json:"attempts"`
	Progress     float64        `json:"progress"`
	Message      string         `json:"message,omitempty"`
	Error        error          `json:"-"`
	ErrorMessage string         `json:"error,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func NewStepState(id, name string) *StepState {
	return &StepState{
		ID:       id,
		Name:     name,
		Status:   StepStatusPending,
		Metadata: make(map[string]any),
	}
}

// Start begins an attempt. StartTime keeps the first attempt's time so
// Duration covers retries.
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.StartTime == nil {
		now := time.Now()
		s.StartTime = &now
	}
	s.Status = StepStatusActive
	s.Attempts++
	s.Progress = 0
}

// finish records the terminal status; the caller holds s.mu
func (s *StepState) finish(status StepStatus) {
	now := time.Now()
	s.EndTime = &now
	s.Status = status
}

func (s *StepState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.finish(StepStatusCompleted)
	s.Progress = 100
	s.Error, s.ErrorMessage = nil, ""
}

func (s *StepState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.finish(StepStatusFailed)
	s.Error = err
	if err != nil {
		s.ErrorMessage = err.Error()
	}
}

// Skip marks a step that never ran, either for a missing optional input or
// a failed dependency
func (s *StepState) Skip(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.finish(StepStatusSkipped)
	s.Message = reason
}

// UpdateProgress updates the Step progress and message
func (s *StepState) UpdateProgress(progress float64, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Progress = progress
	s.Message = message
}

// SetMetadata records a value reported by the step, such as a row count
func (s *StepState) SetMetadata(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Metadata == nil {
		s.Metadata = make(map[string]any)
	}
	s.Metadata[key] = value
}

// GetStatus returns the current status
func (s *StepState) GetStatus() StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Duration returns the duration of the Step execution
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}

// RowsWritten returns the "rows" metadata when a step reported one
func (s *StepState) RowsWritten() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch v := s.Metadata["rows"].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	}
	return 0
}

// BaseStage holds the identity of a step; embedding types override the
// methods they need
type BaseStage struct {
	id           string
	name         string
	dependencies []string
}

func NewBaseStage(id, name string, dependencies []string) BaseStage {
	if dependencies == nil {
		dependencies = []string{}
	}
	return BaseStage{id: id, name: name, dependencies: dependencies}
}

func (b *BaseStage) ID() string {
	if b == nil {
		return ""
	}
	return b.id
}

func (b *BaseStage) Name() string {
	if b == nil {
		return ""
	}
	return b.name
}

func (b *BaseStage) GetDependencies() []string {
	if b == nil {
		return nil
	}
	return b.dependencies
}

func (b *BaseStage) Validate(*OperationState) error {
	if b == nil {
		return errors.New("nil step")
	}
	return nil
}

func (b *BaseStage) RequiredInputs() []DataRequirement { return nil }

func (b *BaseStage) ProducedOutputs() []DataOutput { return nil }
