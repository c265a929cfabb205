package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/graflow/graflow/internal/domain"
)

// MemoryJournal is the per-request, dry-run Execution Journal backing
// (spec §4.3): it lives inside a single process and is discarded with
// the process, useful for dry-run requests and tests. Grounded on the
// teacher's MemoryStore, generalized to the journal.Journal contract.
type MemoryJournal struct {
	mu             sync.RWMutex
	executions     map[string]*domain.Execution
	nodeExecutions map[string][]*domain.NodeExecution
}

// NewMemoryJournal constructs an empty MemoryJournal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{
		executions:     make(map[string]*domain.Execution),
		nodeExecutions: make(map[string][]*domain.NodeExecution),
	}
}

func (s *MemoryJournal) SaveExecution(ctx context.Context, execution *domain.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *execution
	s.executions[execution.ID] = &cp
	return nil
}

func (s *MemoryJournal) GetExecution(ctx context.Context, id string) (*domain.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.executions[id]
	if !ok {
		return nil, fmt.Errorf("execution '%s' not found", id)
	}
	cp := *e
	return &cp, nil
}

func (s *MemoryJournal) SaveNodeExecution(ctx context.Context, ne *domain.NodeExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *ne
	rows := s.nodeExecutions[ne.ExecutionID]
	for i, existing := range rows {
		if existing.ID == ne.ID {
			rows[i] = &cp
			return nil
		}
	}
	s.nodeExecutions[ne.ExecutionID] = append(rows, &cp)
	return nil
}

func (s *MemoryJournal) ListNodeExecutions(ctx context.Context, executionID string) ([]*domain.NodeExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.nodeExecutions[executionID]
	out := make([]*domain.NodeExecution, len(rows))
	for i, r := range rows {
		cp := *r
		out[i] = &cp
	}
	return out, nil
}
