// Package graflow is the public facade over the workflow execution
// engine: construct an Engine, register workflow definitions and
// built-in executors, then Execute. Everything here is a thin wrapper
// over internal/orchestrator, internal/registry, and internal/journal —
// grounded on the teacher's root mbflow.go facade, generalized from its
// repository-backed domain model (Workflow/Node/Edge as interfaces over
// a SQL-shaped Storage) to the graph-traversal domain model spec.md
// describes.
package graflow

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/graflow/graflow/internal/domain"
	"github.com/graflow/graflow/internal/infrastructure/monitoring"
	"github.com/graflow/graflow/internal/infrastructure/storage"
	"github.com/graflow/graflow/internal/journal"
	"github.com/graflow/graflow/internal/orchestrator"
	"github.com/graflow/graflow/internal/registry"
	"github.com/graflow/graflow/internal/stream"
)

// Re-exported domain types so callers need only import this package for
// the common path.
type (
	Workflow      = domain.Workflow
	Node          = domain.Node
	Edge          = domain.Edge
	Execution     = domain.Execution
	NodeExecution = domain.NodeExecution
)

// Re-exported node/executor contracts.
type (
	NodeExecutor      = registry.NodeExecutor
	StreamingExecutor = registry.StreamingExecutor
)

// Re-exported streaming types.
type (
	Event   = stream.Event
	Sink    = stream.Sink
	NoopSink = stream.NoopSink
)

// Engine bundles a WorkflowStore, Registry, Journal, and Orchestrator
// into one constructible unit, the equivalent of the teacher's
// NewMemoryStorage/NewPostgresStorage + Executor pairing.
type Engine struct {
	Workflows *storage.WorkflowStore
	Registry  *registry.Registry
	Journal   journal.Journal
	Orch      *orchestrator.Orchestrator
}

// NewEngine constructs an Engine backed by j (pass
// storage.NewMemoryJournal() for a dry-run engine or
// storage.NewPostgresJournal(dsn) for a durable one), wiring the
// registry's custom-executor factory back into the orchestrator so
// sub-workflow node types resolve correctly. defaultMaxIterations is the
// MAX_ITERATIONS_DEFAULT-configured fallback applied to a workflow that
// declares no positive maxIterations of its own; pass 0 to fall back to
// domain.DefaultMaxIterations.
func NewEngine(j journal.Journal, logger zerolog.Logger, defaultMaxIterations int) *Engine {
	workflows := storage.NewWorkflowStore()
	reg := registry.New()
	orch := orchestrator.New(j, reg, workflows, logger, defaultMaxIterations)
	reg.SetCustomExecutorFactory(orch.CustomExecutorFactory())
	orch.AddObserver(monitoring.NewMetricsCollector())

	return &Engine{
		Workflows: workflows,
		Registry:  reg,
		Journal:   j,
		Orch:      orch,
	}
}

// RegisterWorkflow makes w resolvable by id, both for direct execution
// and as a workflow_executor sub-workflow target.
func (e *Engine) RegisterWorkflow(w *Workflow) {
	e.Workflows.Put(w)
}

// RegisterExecutor installs a built-in NodeExecutor.
func (e *Engine) RegisterExecutor(ex NodeExecutor) {
	e.Registry.RegisterBuiltin(ex)
}

// Execute runs workflowID to completion with the given parameters,
// optionally streaming events to sink (pass stream.NoopSink{} for a
// non-streaming run).
func (e *Engine) Execute(ctx context.Context, workflowID string, parameters map[string]any, sink Sink) (*Execution, any, error) {
	workflow, err := e.Workflows.Load(ctx, workflowID)
	if err != nil {
		return nil, nil, err
	}
	execution := domain.NewExecution(uuid.NewString(), workflowID, parameters, nil, workflow.DefaultConfigID)
	result, err := e.Orch.Execute(ctx, workflow, execution, stream.Context{Sink: sink})
	return execution, result, err
}
