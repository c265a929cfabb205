package monitoring_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/graflow/graflow/internal/domain"
	"github.com/graflow/graflow/internal/infrastructure/monitoring"
)

func TestMetricsCollector_AggregatesAcrossExecutionsAndNodeTypes(t *testing.T) {
	m := monitoring.NewMetricsCollector()

	exec1 := &domain.Execution{ID: "e1", WorkflowID: "wf-1"}
	exec2 := &domain.Execution{ID: "e2", WorkflowID: "wf-1"}
	m.OnExecutionCompleted(exec1, 10*time.Millisecond)
	m.OnExecutionFailed(exec2, assertableErr{}, 5*time.Millisecond)

	node := &domain.Node{ID: "n1", Type: "transform"}
	m.OnNodeCompleted("e1", node, nil, 3*time.Millisecond)
	m.OnNodeFailed("e2", node, assertableErr{}, 2*time.Millisecond)

	summary := m.Summary()
	wf := summary.Workflows["wf-1"]
	assert.Equal(t, int64(2), wf.Executions)
	assert.Equal(t, int64(1), wf.Failures)
	assert.Equal(t, 15*time.Millisecond, wf.TotalTime)

	nt := summary.NodeTypes["transform"]
	assert.Equal(t, int64(2), nt.Executions)
	assert.Equal(t, int64(1), nt.Failures)
	assert.Equal(t, 5*time.Millisecond, nt.TotalTime)
}

func TestMetricsCollector_SummaryIsASnapshotCopy(t *testing.T) {
	m := monitoring.NewMetricsCollector()
	m.OnExecutionCompleted(&domain.Execution{WorkflowID: "wf-1"}, time.Millisecond)

	first := m.Summary()
	m.OnExecutionCompleted(&domain.Execution{WorkflowID: "wf-1"}, time.Millisecond)

	assert.Equal(t, int64(1), first.Workflows["wf-1"].Executions)
}

type assertableErr struct{}

func (assertableErr) Error() string { return "boom" }
