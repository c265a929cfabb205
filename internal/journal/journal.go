// Package journal defines the Execution Journal (spec §4.3): the
// interface over persistence of execution and node-execution records,
// implemented by both a durable backing and a per-request in-memory
// (dry-run) backing behind the same contract.
package journal

import (
	"context"

	"github.com/graflow/graflow/internal/domain"
)

// Journal persists and retrieves execution and node-execution records.
// Implementations must expose status transitions atomically enough that
// an observer reading an execution never sees a partially-updated record.
type Journal interface {
	// SaveExecution creates an execution record or updates the existing
	// record with the same id.
	SaveExecution(ctx context.Context, execution *domain.Execution) error
	// GetExecution looks up an execution by id.
	GetExecution(ctx context.Context, id string) (*domain.Execution, error)

	// SaveNodeExecution creates a node-execution record or updates the
	// existing record with the same id.
	SaveNodeExecution(ctx context.Context, nodeExecution *domain.NodeExecution) error
	// ListNodeExecutions lists node-execution records for an execution id,
	// in creation order.
	ListNodeExecutions(ctx context.Context, executionID string) ([]*domain.NodeExecution, error)
}
