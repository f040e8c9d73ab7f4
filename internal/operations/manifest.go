package operations

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// PipelineManifest tracks the files available to a run and what each step did
type PipelineManifest struct {
	mu sync.RWMutex

	ID          string    `json:"id"`
	OperationID string    `json:"operation_id"`
	StartTime   time.Time `json:"start_time"`

	AvailableData map[string]*DataInfo `json:"available_data"`
	Steps         []StepExecution      `json:"steps"`

	Status      string    `json:"status"`
	LastUpdated time.Time `json:"last_updated"`
	Error       string    `json:"error,omitempty"`
}

// DataInfo describes the files found for a data type
type DataInfo struct {
	Type        string    `json:"type"`
	Location    string    `json:"location"`
	FilePattern string    `json:"file_pattern"`
	FileCount   int       `json:"file_count"`
	TotalSize   int64     `json:"total_size"`
	Files       []string  `json:"files"`
	ScannedAt   time.Time `json:"scanned_at"`
	CreatedBy   string    `json:"created_by,omitempty"`
}

// StepExecution is the manifest entry of one step
type StepExecution struct {
	StepID     string         `json:"step_id"`
	StepName   string         `json:"step_name"`
	StartTime  time.Time      `json:"start_time"`
	EndTime    time.Time      `json:"end_time"`
	Duration   string         `json:"duration"`
	Status     StepStatus     `json:"status"`
	OutputData []string       `json:"output_data,omitempty"`
	Error      string         `json:"error,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewPipelineManifest creates a new pipeline manifest
func NewPipelineManifest(operationID string) *PipelineManifest {
	now := time.Now()
	return &PipelineManifest{
		ID:            fmt.Sprintf("manifest-%d", now.Unix()),
		OperationID:   operationID,
		StartTime:     now,
		AvailableData: make(map[string]*DataInfo),
		Status:        string(OperationStatusPending),
		LastUpdated:   now,
	}
}

// GetData returns information about available data
func (m *PipelineManifest) GetData(dataType string) (*DataInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, exists := m.AvailableData[dataType]
	return data, exists
}

// Scan globs location/pattern and records the result under dataType
func (m *PipelineManifest) Scan(dataType, location, pattern, createdBy string) (*DataInfo, error) {
	files, err := filepath.Glob(filepath.Join(location, pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", location, err)
	}

	info := &DataInfo{
		Type:        dataType,
		Location:    location,
		FilePattern: pattern,
		Files:       make([]string, 0, len(files)),
		ScannedAt:   time.Now(),
		CreatedBy:   createdBy,
	}
	for _, file := range files {
		st, err := os.Stat(file)
		if err != nil || st.IsDir() {
			continue
		}
		info.TotalSize += st.Size()
		info.Files = append(info.Files, filepath.Base(file))
	}
	info.FileCount = len(info.Files)

	m.mu.Lock()
	m.AvailableData[dataType] = info
	m.LastUpdated = time.Now()
	m.mu.Unlock()
	return info, nil
}

// Missing scans every requirement and returns those with too few files
func (m *PipelineManifest) Missing(reqs []DataRequirement) ([]DataRequirement, error) {
	var missing []DataRequirement
	for _, req := range reqs {
		info, err := m.Scan(req.Type, req.Location, req.Pattern, "")
		if err != nil {
			return nil, err
		}
		minCount := max(req.MinCount, 1)
		if info.FileCount < minCount {
			missing = append(missing, req)
		}
	}
	return missing, nil
}

// RecordOutputs scans the outputs a step declared
func (m *PipelineManifest) RecordOutputs(stepID string, outputs []DataOutput) []string {
	types := make([]string, 0, len(outputs))
	for _, out := range outputs {
		if _, err := m.Scan(out.Type, out.Location, out.Pattern, stepID); err == nil {
			types = append(types, out.Type)
		}
	}
	return types
}

// RecordStep stores the final state of a step
func (m *PipelineManifest) RecordStep(state *StepState, outputData []string) {
	state.mu.RLock()
	exec := StepExecution{
		StepID:     state.ID,
		StepName:   state.Name,
		Status:     state.Status,
		OutputData: outputData,
		Error:      state.ErrorMessage,
	}
	if state.StartTime != nil {
		exec.StartTime = *state.StartTime
	}
	if state.EndTime != nil {
		exec.EndTime = *state.EndTime
		if state.StartTime != nil {
			exec.Duration = state.EndTime.Sub(*state.StartTime).String()
		}
	}
	if len(state.Metadata) > 0 {
		exec.Metadata = make(map[string]any, len(state.Metadata))
		for k, v := range state.Metadata {
			exec.Metadata[k] = v
		}
	}
	state.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Steps {
		if m.Steps[i].StepID == exec.StepID {
			m.Steps[i] = exec
			m.LastUpdated = time.Now()
			return
		}
	}
	m.Steps = append(m.Steps, exec)
	m.LastUpdated = time.Now()
}

// Finish sets the final status of the run
func (m *PipelineManifest) Finish(status OperationStatusValue, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Status = string(status)
	if err != nil {
		m.Error = err.Error()
	}
	m.LastUpdated = time.Now()
}

// IsStepCompleted checks if a step has been completed
func (m *PipelineManifest) IsStepCompleted(stepID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, step := range m.Steps {
		if step.StepID == stepID && step.Status == StepStatusCompleted {
			return true
		}
	}
	return false
}

// SaveToFile saves the manifest to a JSON file
func (m *PipelineManifest) SaveToFile(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}
	return nil
}

// LoadManifestFromFile loads a manifest from a JSON file
func LoadManifestFromFile(path string) (*PipelineManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var manifest PipelineManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	if manifest.AvailableData == nil {
		manifest.AvailableData = make(map[string]*DataInfo)
	}
	return &manifest, nil
}
