// Package orchestrator implements the Orchestrator / Graph Traversal
// Engine (spec §4.4), the heart of the system: it validates the graph,
// walks nodes from start to end, resolves edges, invokes executors,
// updates state, emits stream events, recurses into sub-workflows,
// enforces iteration limits, and reconciles the journal.
//
// This is NOT the teacher's wave/DAG engine (internal/application/executor's
// former engine.go, deleted — see DESIGN.md): spec §9 explicitly marks
// the dependency-based DAG + topological-sort variant superseded. This
// orchestrator performs single-path sequential traversal with legal
// cycles, exactly as spec §4.4 describes.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/graflow/graflow/internal/domain"
	"github.com/graflow/graflow/internal/domain/errs"
	"github.com/graflow/graflow/internal/journal"
	"github.com/graflow/graflow/internal/registry"
	"github.com/graflow/graflow/internal/stream"
	"github.com/graflow/graflow/internal/template"
	"github.com/graflow/graflow/internal/validator"
)

// WorkflowLoader resolves a workflow id to its definition, used both by
// workflow_executor sub-workflow invocation and by custom-executor
// resolution.
type WorkflowLoader interface {
	Load(ctx context.Context, workflowID string) (*domain.Workflow, error)
}

// Orchestrator drives workflow executions. One instance is shared across
// all concurrent top-level and nested executions; it holds no
// per-execution state itself (spec §5: separate executions share no
// in-process state).
type Orchestrator struct {
	journal              journal.Journal
	registry             *registry.Registry
	evaluator            *template.Evaluator
	loader               WorkflowLoader
	observers            []Observer
	logger               zerolog.Logger
	tracer               trace.Tracer
	defaultMaxIterations int
}

// New constructs an Orchestrator. defaultMaxIterations is the
// MAX_ITERATIONS_DEFAULT-configured fallback applied to a workflow that
// declares no positive MaxIterations of its own; pass 0 to fall back to
// domain.DefaultMaxIterations.
func New(j journal.Journal, r *registry.Registry, loader WorkflowLoader, logger zerolog.Logger, defaultMaxIterations int) *Orchestrator {
	return &Orchestrator{
		journal:              j,
		registry:             r,
		evaluator:            template.NewEvaluator(),
		loader:               loader,
		logger:               logger,
		tracer:               otel.Tracer("github.com/graflow/graflow/internal/orchestrator"),
		defaultMaxIterations: defaultMaxIterations,
	}
}

// effectiveMaxIterations resolves the iteration bound for workflow: its
// own declared MaxIterations if positive, else the orchestrator's
// configured default, else domain.DefaultMaxIterations.
func (o *Orchestrator) effectiveMaxIterations(w *domain.Workflow) int {
	if w.MaxIterations > 0 {
		return w.MaxIterations
	}
	if o.defaultMaxIterations > 0 {
		return o.defaultMaxIterations
	}
	return domain.DefaultMaxIterations
}

// AddObserver registers an Observer notified alongside stream events.
func (o *Orchestrator) AddObserver(obs Observer) {
	o.observers = append(o.observers, obs)
}

// Execute drives execution from workflow.StartNode to workflow.EndNode,
// implementing spec §4.4's eight-step algorithm. streamCtx.Sink receives
// the live event stream; pass stream.Context{Sink: stream.NoopSink{}}
// for a non-streaming request.
func (o *Orchestrator) Execute(ctx context.Context, workflow *domain.Workflow, execution *domain.Execution, streamCtx stream.Context) (any, error) {
	started := time.Now()

	spanCtx, span := o.tracer.Start(ctx, "workflow.execute",
		trace.WithAttributes(
			attribute.String("workflow.id", workflow.ID),
			attribute.String("execution.id", execution.ID),
		))
	defer span.End()
	ctx = spanCtx

	// Step 1: validate.
	if err := validator.Validate(workflow); err != nil {
		execution.MarkFailed(err)
		_ = o.journal.SaveExecution(ctx, execution)
		o.notifyFailed(execution, err, time.Since(started))
		return nil, err
	}

	// Step 2: build context.
	execCtx := domain.NewContext(execution.Parameters, execution.Config, workflow.InitialState)

	// Step 4: status -> running.
	execution.MarkRunning()
	if err := o.journal.SaveExecution(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to persist execution '%s': %w", execution.ID, err)
	}
	o.notifyStarted(execution)
	if streamCtx.Sink != nil {
		streamCtx.Sink.Emit(o.envelope(streamCtx, execution, stream.EventWorkflowStart, nil, nil))
	}

	// Step 5: traversal loop.
	current := workflow.StartNode
	iterations := 0
	maxIterations := o.effectiveMaxIterations(workflow)

	for {
		if err := ctx.Err(); err != nil {
			cancelErr := errs.NewCancellationError(execution.ID)
			return o.fail(ctx, workflow, execution, streamCtx, started, cancelErr)
		}

		if iterations >= maxIterations {
			err := errs.NewIterationLimitError(maxIterations)
			return o.fail(ctx, workflow, execution, streamCtx, started, err)
		}
		iterations++

		node := workflow.NodeByID(current)
		if node == nil {
			err := errs.NewGraphNavigationError(current, "node not found during execution")
			return o.fail(ctx, workflow, execution, streamCtx, started, err)
		}

		output, nerr := o.visitNode(ctx, workflow, execution, execCtx, node, streamCtx)
		if nerr != nil {
			return o.fail(ctx, workflow, execution, streamCtx, started, nerr)
		}

		// Step 5i: terminal check.
		if current == workflow.EndNode {
			break
		}

		// Step 5j: edge.
		edge := workflow.EdgeFrom(current)
		if edge == nil {
			err := errs.NewGraphNavigationError(current, fmt.Sprintf("no outgoing edge found from '%s'", current))
			return o.fail(ctx, workflow, execution, streamCtx, started, err)
		}

		if edge.IsStatic() {
			current = edge.To
			continue
		}

		next, rerr := o.evaluator.ResolveDynamicEdge(edge, execCtx.Env())
		if rerr != nil {
			err := errs.NewGraphNavigationError(current, rerr.Error())
			return o.fail(ctx, workflow, execution, streamCtx, started, err)
		}
		if workflow.NodeByID(next) == nil {
			err := errs.NewGraphNavigationError(current, fmt.Sprintf("Dynamic edge '%s' returned invalid node ID '%s'", edge.ID, next))
			return o.fail(ctx, workflow, execution, streamCtx, started, err)
		}
		current = next
		_ = output // output already recorded into execCtx.Parent by visitNode
	}

	// Step 7: finalize.
	result := execCtx.Parent[workflow.EndNode]
	execution.MarkCompleted(result)
	if err := o.journal.SaveExecution(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to persist execution '%s': %w", execution.ID, err)
	}
	if streamCtx.Sink != nil {
		streamCtx.Sink.Emit(o.envelope(streamCtx, execution, stream.EventWorkflowComplete, result, nil))
	}
	o.notifyCompleted(execution, time.Since(started))

	return result, nil
}

// fail implements step 8: mark the execution failed, persist, emit an
// error event, notify observers, and propagate the error.
func (o *Orchestrator) fail(ctx context.Context, workflow *domain.Workflow, execution *domain.Execution, streamCtx stream.Context, started time.Time, err error) (any, error) {
	execution.MarkFailed(err)
	_ = o.journal.SaveExecution(ctx, execution)
	if streamCtx.Sink != nil {
		streamCtx.Sink.Emit(o.envelope(streamCtx, execution, stream.EventError, nil, map[string]any{"error": err.Error()}))
	}
	o.notifyFailed(execution, err, time.Since(started))
	o.logger.Error().
		Str("execution_id", execution.ID).
		Str("workflow_id", workflow.ID).
		Err(err).
		Msg("workflow execution failed")
	return nil, err
}

func (o *Orchestrator) envelope(streamCtx stream.Context, execution *domain.Execution, t stream.EventType, data any, metadata map[string]any) stream.Event {
	return stream.Event{
		Type:              t,
		Timestamp:         time.Now(),
		WorkflowID:        execution.WorkflowID,
		ExecutionID:       execution.ID,
		Depth:             streamCtx.Depth,
		Path:              streamCtx.Path,
		ParentExecutionID: streamCtx.ParentExecutionID,
		Data:              data,
		Metadata:          metadata,
	}
}

func (o *Orchestrator) notifyStarted(execution *domain.Execution) {
	for _, obs := range o.observers {
		obs := obs
		safeNotify(func() { obs.OnExecutionStarted(execution) })
	}
}

func (o *Orchestrator) notifyCompleted(execution *domain.Execution, d time.Duration) {
	for _, obs := range o.observers {
		obs := obs
		safeNotify(func() { obs.OnExecutionCompleted(execution, d) })
	}
}

func (o *Orchestrator) notifyFailed(execution *domain.Execution, err error, d time.Duration) {
	for _, obs := range o.observers {
		obs := obs
		safeNotify(func() { obs.OnExecutionFailed(execution, err, d) })
	}
}

// newID generates an id for execution-scoped records (sub-executions,
// node-executions) created during traversal.
func newID() string {
	return uuid.NewString()
}
