package monitoring

import (
	"sync"
	"time"

	"github.com/graflow/graflow/internal/domain"
)

// NodeTypeMetrics aggregates execution counts/durations for one node type.
type NodeTypeMetrics struct {
	Executions int64
	Failures   int64
	TotalTime  time.Duration
}

// WorkflowMetrics aggregates execution counts/durations for one workflow.
type WorkflowMetrics struct {
	Executions int64
	Failures   int64
	TotalTime  time.Duration
}

// MetricsSummary is a point-in-time snapshot of collected metrics.
type MetricsSummary struct {
	Workflows map[string]WorkflowMetrics
	NodeTypes map[string]NodeTypeMetrics
}

// MetricsCollector implements orchestrator.Observer, recording
// per-workflow and per-node-type execution counts/durations.
type MetricsCollector struct {
	mu        sync.Mutex
	workflows map[string]WorkflowMetrics
	nodeTypes map[string]NodeTypeMetrics
	nodeTypeByID map[string]string
}

// NewMetricsCollector constructs an empty MetricsCollector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		workflows:    make(map[string]WorkflowMetrics),
		nodeTypes:    make(map[string]NodeTypeMetrics),
		nodeTypeByID: make(map[string]string),
	}
}

func (m *MetricsCollector) OnExecutionStarted(execution *domain.Execution) {}

func (m *MetricsCollector) OnExecutionCompleted(execution *domain.Execution, duration time.Duration) {
	m.recordWorkflow(execution.WorkflowID, duration, false)
}

func (m *MetricsCollector) OnExecutionFailed(execution *domain.Execution, err error, duration time.Duration) {
	m.recordWorkflow(execution.WorkflowID, duration, true)
}

func (m *MetricsCollector) OnNodeStarted(executionID string, node *domain.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodeTypeByID[executionID+"/"+node.ID] = node.Type
}

func (m *MetricsCollector) OnNodeCompleted(executionID string, node *domain.Node, output any, duration time.Duration) {
	m.recordNode(node.Type, duration, false)
}

func (m *MetricsCollector) OnNodeFailed(executionID string, node *domain.Node, err error, duration time.Duration) {
	m.recordNode(node.Type, duration, true)
}

func (m *MetricsCollector) recordWorkflow(workflowID string, duration time.Duration, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wm := m.workflows[workflowID]
	wm.Executions++
	wm.TotalTime += duration
	if failed {
		wm.Failures++
	}
	m.workflows[workflowID] = wm
}

func (m *MetricsCollector) recordNode(nodeType string, duration time.Duration, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	nm := m.nodeTypes[nodeType]
	nm.Executions++
	nm.TotalTime += duration
	if failed {
		nm.Failures++
	}
	m.nodeTypes[nodeType] = nm
}

// Summary returns a snapshot of all collected metrics.
func (m *MetricsCollector) Summary() MetricsSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	workflows := make(map[string]WorkflowMetrics, len(m.workflows))
	for k, v := range m.workflows {
		workflows[k] = v
	}
	nodeTypes := make(map[string]NodeTypeMetrics, len(m.nodeTypes))
	for k, v := range m.nodeTypes {
		nodeTypes[k] = v
	}
	return MetricsSummary{Workflows: workflows, NodeTypes: nodeTypes}
}
