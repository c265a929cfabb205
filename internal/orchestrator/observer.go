package orchestrator

import (
	"time"

	"github.com/graflow/graflow/internal/domain"
)

// Observer is notified of execution and node lifecycle transitions, in
// addition to whatever reaches the stream.Sink. Grounded on the
// teacher's ExecutionObserver/safeNotify pattern (root executor.go,
// backend/pkg/engine/event.go before it was pruned as a duplicate
// generation) — spec.md's non-goals don't name observers, so this is a
// supplemented feature, not a required one.
type Observer interface {
	OnExecutionStarted(execution *domain.Execution)
	OnExecutionCompleted(execution *domain.Execution, duration time.Duration)
	OnExecutionFailed(execution *domain.Execution, err error, duration time.Duration)
	OnNodeStarted(executionID string, node *domain.Node)
	OnNodeCompleted(executionID string, node *domain.Node, output any, duration time.Duration)
	OnNodeFailed(executionID string, node *domain.Node, err error, duration time.Duration)
}

// safeNotify invokes fn and recovers any panic so a misbehaving observer
// never aborts traversal.
func safeNotify(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}
