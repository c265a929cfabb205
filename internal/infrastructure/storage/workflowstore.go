package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/graflow/graflow/internal/domain"
)

// WorkflowStore holds registered workflow definitions in memory and
// implements orchestrator.WorkflowLoader, letting the REST surface and
// the workflow_executor sub-workflow dispatch share one lookup path.
// Grounded on the teacher's MemoryStore workflow map, generalized from
// its domain.Storage contract to the narrower Load-by-id the orchestrator
// actually needs.
type WorkflowStore struct {
	mu        sync.RWMutex
	workflows map[string]*domain.Workflow
}

// NewWorkflowStore constructs an empty WorkflowStore.
func NewWorkflowStore() *WorkflowStore {
	return &WorkflowStore{workflows: make(map[string]*domain.Workflow)}
}

// Put registers or replaces a workflow definition.
func (s *WorkflowStore) Put(w *domain.Workflow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[w.ID] = w
}

// Load implements orchestrator.WorkflowLoader.
func (s *WorkflowStore) Load(ctx context.Context, workflowID string) (*domain.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.workflows[workflowID]
	if !ok {
		return nil, fmt.Errorf("workflow '%s' not found", workflowID)
	}
	return w, nil
}

// List returns every registered workflow.
func (s *WorkflowStore) List() []*domain.Workflow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Workflow, 0, len(s.workflows))
	for _, w := range s.workflows {
		out = append(out, w)
	}
	return out
}

// Delete removes a registered workflow definition.
func (s *WorkflowStore) Delete(workflowID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.workflows, workflowID)
}
