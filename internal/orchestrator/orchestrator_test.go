package orchestrator_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graflow/graflow/internal/domain"
	"github.com/graflow/graflow/internal/domain/errs"
	"github.com/graflow/graflow/internal/infrastructure/storage"
	"github.com/graflow/graflow/internal/orchestrator"
	"github.com/graflow/graflow/internal/registry"
	"github.com/graflow/graflow/internal/stream"
)

// passthroughExecutor echoes its config back as output and counts calls.
type passthroughExecutor struct {
	nodeType string
	calls    int
}

func (e *passthroughExecutor) Type() string                 { return e.nodeType }
func (e *passthroughExecutor) ConfigSchema() map[string]any { return nil }
func (e *passthroughExecutor) Run(ctx context.Context, config, input map[string]any) (any, error) {
	e.calls++
	return config, nil
}

func newTestOrchestrator(t *testing.T, loader orchestrator.WorkflowLoader) (*orchestrator.Orchestrator, *registry.Registry) {
	t.Helper()
	r := registry.New()
	o := orchestrator.New(storage.NewMemoryJournal(), r, loader, zerolog.Nop(), 0)
	return o, r
}

func TestExecute_LinearStaticWorkflow(t *testing.T) {
	w := domain.NewWorkflow("wf-linear", "linear", nil)
	require.NoError(t, w.AddNode(domain.NewNode("a", "echo", "A", map[string]any{"step": "a"})))
	require.NoError(t, w.AddNode(domain.NewNode("b", "echo", "B", map[string]any{"step": "b"})))
	require.NoError(t, w.AddNode(domain.NewNode("c", "echo", "C", map[string]any{"step": "c"})))
	w.StartNode, w.EndNode = "a", "c"
	w.AddEdge(domain.NewStaticEdge("e1", "a", "b"))
	w.AddEdge(domain.NewStaticEdge("e2", "b", "c"))

	o, r := newTestOrchestrator(t, nil)
	echo := &passthroughExecutor{nodeType: "echo"}
	r.RegisterBuiltin(echo)

	execution := domain.NewExecution("exec-1", w.ID, nil, nil, "")
	result, err := o.Execute(context.Background(), w, execution, stream.Context{Sink: stream.NoopSink{}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"step": "c"}, result)
	assert.Equal(t, domain.StatusCompleted, execution.Status)
	assert.Equal(t, 3, echo.calls)
}

func TestExecute_SelfLoopWithinBound(t *testing.T) {
	w := domain.NewWorkflow("wf-counter", "counter", nil)
	require.NoError(t, w.AddNode(domain.NewNode("loop", "echo", "Loop", nil)))
	require.NoError(t, w.AddNode(domain.NewNode("done", "echo", "Done", nil)))
	w.StartNode, w.EndNode = "loop", "done"
	w.MaxIterations = 3
	w.InitialState = map[string]any{"count": 0}
	w.Nodes[0].SetState = []domain.StateAssignment{
		{Key: "count", Rule: []domain.RuleStep{{HasReturn: true, Return: "state.count + 1"}}},
	}
	w.AddEdge(domain.NewDynamicRuleEdge("e1", "loop", []domain.RuleStep{
		{HasIf: true, If: "state.count < 2", HasThen: true, Then: `"loop"`, HasElse: true, Else: `"done"`},
	}))

	o, r := newTestOrchestrator(t, nil)
	r.RegisterBuiltin(&passthroughExecutor{nodeType: "echo"})

	execution := domain.NewExecution("exec-2", w.ID, nil, nil, "")
	_, err := o.Execute(context.Background(), w, execution, stream.Context{Sink: stream.NoopSink{}})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, execution.Status)
}

func TestExecute_SelfLoopExceedingMaxIterationsFails(t *testing.T) {
	w := domain.NewWorkflow("wf-infinite", "infinite", nil)
	require.NoError(t, w.AddNode(domain.NewNode("loop", "echo", "Loop", nil)))
	w.StartNode, w.EndNode = "loop", "done"
	require.NoError(t, w.AddNode(domain.NewNode("done", "echo", "Done", nil)))
	w.MaxIterations = 3
	w.AddEdge(domain.NewStaticEdge("e1", "loop", "loop"))

	o, r := newTestOrchestrator(t, nil)
	r.RegisterBuiltin(&passthroughExecutor{nodeType: "echo"})

	execution := domain.NewExecution("exec-3", w.ID, nil, nil, "")
	_, err := o.Execute(context.Background(), w, execution, stream.Context{Sink: stream.NoopSink{}})
	require.Error(t, err)
	var iterErr *errs.IterationLimitError
	require.ErrorAs(t, err, &iterErr)
	assert.Equal(t, "Workflow execution exceeded maximum iterations (3)", err.Error())
	assert.Equal(t, domain.StatusFailed, execution.Status)
}

func TestExecute_ConfiguredDefaultMaxIterationsAppliesWhenWorkflowDeclaresNone(t *testing.T) {
	w := domain.NewWorkflow("wf-configured-default", "configured-default", nil)
	require.NoError(t, w.AddNode(domain.NewNode("loop", "echo", "Loop", nil)))
	w.StartNode, w.EndNode = "loop", "done"
	require.NoError(t, w.AddNode(domain.NewNode("done", "echo", "Done", nil)))
	w.MaxIterations = 0 // undeclared: orchestrator's configured default should apply, not domain.DefaultMaxIterations
	w.AddEdge(domain.NewStaticEdge("e1", "loop", "loop"))

	r := registry.New()
	r.RegisterBuiltin(&passthroughExecutor{nodeType: "echo"})
	o := orchestrator.New(storage.NewMemoryJournal(), r, nil, zerolog.Nop(), 2)

	execution := domain.NewExecution("exec-default-iter", w.ID, nil, nil, "")
	_, err := o.Execute(context.Background(), w, execution, stream.Context{Sink: stream.NoopSink{}})
	require.Error(t, err)
	assert.Equal(t, "Workflow execution exceeded maximum iterations (2)", err.Error())
}

func TestExecute_ConditionalBranch(t *testing.T) {
	w := domain.NewWorkflow("wf-branch", "branch", nil)
	require.NoError(t, w.AddNode(domain.NewNode("start", "echo", "Start", nil)))
	require.NoError(t, w.AddNode(domain.NewNode("big", "echo", "Big", map[string]any{"branch": "big"})))
	require.NoError(t, w.AddNode(domain.NewNode("small", "echo", "Small", map[string]any{"branch": "small"})))
	w.StartNode, w.EndNode = "start", "small"
	w.AddEdge(domain.NewDynamicConditionsEdge("e1", "start", []domain.Condition{
		{Condition: "parameters.n > 10", Node: "big"},
		{Condition: "true", Node: "small"},
	}))

	o, r := newTestOrchestrator(t, nil)
	r.RegisterBuiltin(&passthroughExecutor{nodeType: "echo"})

	execution := domain.NewExecution("exec-4", w.ID, map[string]any{"n": 1}, nil, "")
	result, err := o.Execute(context.Background(), w, execution, stream.Context{Sink: stream.NoopSink{}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"branch": "small"}, result)
}

func TestExecute_InvalidDynamicEdgeTargetFails(t *testing.T) {
	w := domain.NewWorkflow("wf-bad-edge", "bad-edge", nil)
	require.NoError(t, w.AddNode(domain.NewNode("start", "echo", "Start", nil)))
	require.NoError(t, w.AddNode(domain.NewNode("end", "echo", "End", nil)))
	w.StartNode, w.EndNode = "start", "end"
	w.AddEdge(domain.NewDynamicRuleEdge("e1", "start", []domain.RuleStep{
		{HasReturn: true, Return: `"nonexistent"`},
	}))

	o, r := newTestOrchestrator(t, nil)
	r.RegisterBuiltin(&passthroughExecutor{nodeType: "echo"})

	execution := domain.NewExecution("exec-5", w.ID, nil, nil, "")
	_, err := o.Execute(context.Background(), w, execution, stream.Context{Sink: stream.NoopSink{}})
	require.Error(t, err)
	var navErr *errs.GraphNavigationError
	assert.ErrorAs(t, err, &navErr)
}

func TestExecute_StartEqualsEndRunsExactlyOnce(t *testing.T) {
	w := domain.NewWorkflow("wf-single", "single", nil)
	require.NoError(t, w.AddNode(domain.NewNode("only", "echo", "Only", map[string]any{"k": "v"})))
	w.StartNode, w.EndNode = "only", "only"

	o, r := newTestOrchestrator(t, nil)
	echo := &passthroughExecutor{nodeType: "echo"}
	r.RegisterBuiltin(echo)

	execution := domain.NewExecution("exec-6", w.ID, nil, nil, "")
	result, err := o.Execute(context.Background(), w, execution, stream.Context{Sink: stream.NoopSink{}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": "v"}, result)
	assert.Equal(t, 1, echo.calls)
}

func TestExecute_ParentContextPropagatesAcrossNodes(t *testing.T) {
	w := domain.NewWorkflow("wf-parent", "parent", nil)
	require.NoError(t, w.AddNode(domain.NewNode("a", "echo", "A", map[string]any{"value": "from-a"})))
	require.NoError(t, w.AddNode(domain.NewNode("b", "echo", "B", map[string]any{"seen": "{{ parent.a.value }}"})))
	w.StartNode, w.EndNode = "a", "b"
	w.AddEdge(domain.NewStaticEdge("e1", "a", "b"))

	o, r := newTestOrchestrator(t, nil)
	r.RegisterBuiltin(&passthroughExecutor{nodeType: "echo"})

	execution := domain.NewExecution("exec-7", w.ID, nil, nil, "")
	result, err := o.Execute(context.Background(), w, execution, stream.Context{Sink: stream.NoopSink{}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"seen": "from-a"}, result)
}

func TestExecute_CancellationReturnsCancellationError(t *testing.T) {
	w := domain.NewWorkflow("wf-cancel", "cancel", nil)
	require.NoError(t, w.AddNode(domain.NewNode("a", "echo", "A", nil)))
	w.StartNode, w.EndNode = "a", "a"

	o, r := newTestOrchestrator(t, nil)
	r.RegisterBuiltin(&passthroughExecutor{nodeType: "echo"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	execution := domain.NewExecution("exec-8", w.ID, nil, nil, "")
	_, err := o.Execute(ctx, w, execution, stream.Context{Sink: stream.NoopSink{}})
	require.Error(t, err)
	var cancelErr *errs.CancellationError
	assert.ErrorAs(t, err, &cancelErr)
}

func TestExecute_SubWorkflowRecursionViaWorkflowExecutor(t *testing.T) {
	sub := domain.NewWorkflow("wf-sub", "sub", nil)
	require.NoError(t, sub.AddNode(domain.NewNode("inner", "echo", "Inner", map[string]any{"from": "sub"})))
	sub.StartNode, sub.EndNode = "inner", "inner"

	store := storage.NewWorkflowStore()
	store.Put(sub)

	parent := domain.NewWorkflow("wf-parent-exec", "parent-exec", nil)
	require.NoError(t, parent.AddNode(domain.NewNode("call", domain.WorkflowExecutorType, "Call", map[string]any{
		"workflow_id": "wf-sub",
		"parameters":  map[string]any{},
	})))
	parent.StartNode, parent.EndNode = "call", "call"

	o, r := newTestOrchestrator(t, store)
	r.RegisterBuiltin(&passthroughExecutor{nodeType: "echo"})

	execution := domain.NewExecution("exec-9", parent.ID, nil, nil, "")
	result, err := o.Execute(context.Background(), parent, execution, stream.Context{Sink: stream.NoopSink{}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"from": "sub"}, result)
}

func TestExecute_StreamingEmitsExpectedEventOrder(t *testing.T) {
	w := domain.NewWorkflow("wf-stream", "stream", nil)
	require.NoError(t, w.AddNode(domain.NewNode("a", "echo", "A", nil)))
	w.StartNode, w.EndNode = "a", "a"

	o, r := newTestOrchestrator(t, nil)
	r.RegisterBuiltin(&passthroughExecutor{nodeType: "echo"})

	sink := stream.NewChannelSink(16)
	execution := domain.NewExecution("exec-10", w.ID, nil, nil, "")

	_, err := o.Execute(context.Background(), w, execution, stream.Context{Sink: sink})
	require.NoError(t, err)
	sink.Close()

	var types []stream.EventType
	for ev := range sink.Events() {
		types = append(types, ev.Type)
	}
	require.GreaterOrEqual(t, len(types), 4)
	assert.Equal(t, stream.EventWorkflowStart, types[0])
	assert.Equal(t, stream.EventNodeStart, types[1])
	assert.Equal(t, stream.EventWorkflowComplete, types[len(types)-1])
}

func TestExecute_ObserverIsNotifiedAndPanicRecovered(t *testing.T) {
	w := domain.NewWorkflow("wf-observer", "observer", nil)
	require.NoError(t, w.AddNode(domain.NewNode("a", "echo", "A", nil)))
	w.StartNode, w.EndNode = "a", "a"

	o, r := newTestOrchestrator(t, nil)
	r.RegisterBuiltin(&passthroughExecutor{nodeType: "echo"})
	o.AddObserver(panickingObserver{})

	completed := make(chan struct{}, 1)
	o.AddObserver(signalingObserver{done: completed})

	execution := domain.NewExecution("exec-11", w.ID, nil, nil, "")
	_, err := o.Execute(context.Background(), w, execution, stream.Context{Sink: stream.NoopSink{}})
	require.NoError(t, err)

	select {
	case <-completed:
	case <-time.After(time.Second):
		t.Fatal("observer was not notified")
	}
}

type panickingObserver struct{}

func (panickingObserver) OnExecutionStarted(*domain.Execution)                      { panic("boom") }
func (panickingObserver) OnExecutionCompleted(*domain.Execution, time.Duration)     { panic("boom") }
func (panickingObserver) OnExecutionFailed(*domain.Execution, error, time.Duration) { panic("boom") }
func (panickingObserver) OnNodeStarted(string, *domain.Node)                        { panic("boom") }
func (panickingObserver) OnNodeCompleted(string, *domain.Node, any, time.Duration)  { panic("boom") }
func (panickingObserver) OnNodeFailed(string, *domain.Node, error, time.Duration)   { panic("boom") }

type signalingObserver struct {
	done chan struct{}
}

func (o signalingObserver) OnExecutionStarted(*domain.Execution)  {}
func (o signalingObserver) OnExecutionCompleted(*domain.Execution, time.Duration) {
	o.done <- struct{}{}
}
func (o signalingObserver) OnExecutionFailed(*domain.Execution, error, time.Duration) {}
func (o signalingObserver) OnNodeStarted(string, *domain.Node)                        {}
func (o signalingObserver) OnNodeCompleted(string, *domain.Node, any, time.Duration)   {}
func (o signalingObserver) OnNodeFailed(string, *domain.Node, error, time.Duration)    {}

// panickingExecutor simulates a misbehaving built-in or custom executor
// (a type-assertion panic, a nil-map access from malformed config).
type panickingExecutor struct{}

func (panickingExecutor) Type() string                 { return "panicky" }
func (panickingExecutor) ConfigSchema() map[string]any { return nil }
func (panickingExecutor) Run(ctx context.Context, config, input map[string]any) (any, error) {
	panic("executor exploded")
}

func TestExecute_ExecutorPanicIsRecoveredAsExecutorError(t *testing.T) {
	w := domain.NewWorkflow("wf-panic", "panic", nil)
	require.NoError(t, w.AddNode(domain.NewNode("a", "panicky", "A", nil)))
	w.StartNode, w.EndNode = "a", "a"

	o, r := newTestOrchestrator(t, nil)
	r.RegisterBuiltin(panickingExecutor{})

	execution := domain.NewExecution("exec-panic", w.ID, nil, nil, "")

	require.NotPanics(t, func() {
		_, err := o.Execute(context.Background(), w, execution, stream.Context{Sink: stream.NoopSink{}})
		require.Error(t, err)
		var execErr *errs.ExecutorError
		assert.ErrorAs(t, err, &execErr)
	})
	assert.Equal(t, domain.StatusFailed, execution.Status)
}

func TestCustomExecutorWrapper_TypeReturnsNodeTypeNotSourceWorkflowID(t *testing.T) {
	o, r := newTestOrchestrator(t, nil)
	r.SetCustomExecutorFactory(o.CustomExecutorFactory())
	r.RegisterCustom("my_custom_node_type", "wf-source-id", nil)

	resolved, err := r.Resolve("my_custom_node_type")
	require.NoError(t, err)
	assert.Equal(t, "my_custom_node_type", resolved.Type())
}
