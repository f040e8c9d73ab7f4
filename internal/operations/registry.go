package operations

import (
	"fmt"
	"slices"
	"sync"
)

// Registry manages registered pipeline steps
type Registry struct {
	mu    sync.RWMutex
	steps map[string]Step
	order []string // registration order
}

// NewRegistry creates an empty step registry
func NewRegistry() *Registry {
	return &Registry{
		steps: make(map[string]Step),
		order: make([]string, 0),
	}
}

// Register adds a Step to the registry
func (r *Registry) Register(step Step) error {
	if step == nil {
		return fmt.Errorf("cannot register nil step")
	}

	id := step.ID()
	if id == "" {
		return fmt.Errorf("step ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.steps[id]; exists {
		return fmt.Errorf("step with ID %s already registered", id)
	}

	r.steps[id] = step
	r.order = append(r.order, id)
	return nil
}

// Unregister removes a Step from the registry
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.steps[id]; !exists {
		return fmt.Errorf("step with ID %s not found", id)
	}

	delete(r.steps, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	return nil
}

// Get retrieves a Step by ID
func (r *Registry) Get(id string) (Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	step, exists := r.steps[id]
	if !exists {
		return nil, &OperationError{Type: ErrorTypeNotFound, Step: id, Message: "step not found"}
	}
	return step, nil
}

// Has checks if a Step is registered
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.steps[id]
	return exists
}

// List returns all registered steps in registration order
func (r *Registry) List() []Step {
	r.mu.RLock()
	defer r.mu.RUnlock()

	steps := make([]Step, 0, len(r.order))
	for _, id := range r.order {
		steps = append(steps, r.steps[id])
	}
	return steps
}

// ListIDs returns all registered Step IDs in registration order
func (r *Registry) ListIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.order)
}

// Count returns the number of registered steps
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.steps)
}

// GetDependencyOrder returns steps ordered by dependencies. Steps that
// become ready at the same time keep their registration order.
func (r *Registry) GetDependencyOrder() ([]Step, error) {
	levels, err := r.Levels()
	if err != nil {
		return nil, err
	}

	var ordered []Step
	for _, level := range levels {
		ordered = append(ordered, level...)
	}
	return ordered, nil
}

// Levels groups steps by dependency depth. Every step of a level only
// depends on steps of earlier levels, so a level can run concurrently.
func (r *Registry) Levels() ([][]Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	graph := make(map[string][]string, len(r.steps))
	inDegree := make(map[string]int, len(r.steps))
	for id := range r.steps {
		inDegree[id] = 0
	}

	for _, id := range r.order {
		for _, dep := range r.steps[id].GetDependencies() {
			if _, exists := r.steps[dep]; !exists {
				return nil, NewDependencyError(id, dep, fmt.Sprintf("depends on non-existent step %s", dep))
			}
			graph[dep] = append(graph[dep], id)
			inDegree[id]++
		}
	}

	// Kahn's algorithm, one frontier at a time
	var frontier []string
	for _, id := range r.order {
		if inDegree[id] == 0 {
			frontier = append(frontier, id)
		}
	}

	var levels [][]Step
	processed := 0
	for len(frontier) > 0 {
		level := make([]Step, 0, len(frontier))
		ready := make(map[string]bool)
		for _, id := range frontier {
			level = append(level, r.steps[id])
			processed++
			for _, dependent := range graph[id] {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					ready[dependent] = true
				}
			}
		}
		levels = append(levels, level)

		frontier = frontier[:0]
		for _, id := range r.order {
			if ready[id] {
				frontier = append(frontier, id)
			}
		}
	}

	if processed != len(r.steps) {
		return nil, NewFatalError("dependency cycle detected", nil)
	}
	return levels, nil
}

// ValidateDependencies checks that every dependency exists and that the
// graph has no cycle
func (r *Registry) ValidateDependencies() error {
	_, err := r.Levels()
	return err
}

// GetDependents returns the steps that directly depend on stepID
func (r *Registry) GetDependents(stepID string) []Step {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var dependents []Step
	for _, id := range r.order {
		step := r.steps[id]
		if slices.Contains(step.GetDependencies(), stepID) {
			dependents = append(dependents, step)
		}
	}
	return dependents
}
