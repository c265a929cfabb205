package orchestrator

import (
	"context"
	"fmt"

	"github.com/graflow/graflow/internal/domain"
	"github.com/graflow/graflow/internal/registry"
	"github.com/graflow/graflow/internal/stream"
)

// customExecutorWrapper adapts a stored workflow into a registry.NodeExecutor
// (spec §4.2 "Custom-executor lifecycle"): on Run, it executes the
// referenced workflow as a non-streaming, non-nested sub-execution and
// returns its result as this node's output.
type customExecutorWrapper struct {
	orch             *Orchestrator
	nodeType         string
	sourceWorkflowID string
	configSchema     map[string]any
}

func (w *customExecutorWrapper) Type() string                 { return w.nodeType }
func (w *customExecutorWrapper) ConfigSchema() map[string]any { return w.configSchema }

func (w *customExecutorWrapper) Run(ctx context.Context, parsedConfig map[string]any, input map[string]any) (any, error) {
	subWorkflow, err := w.orch.loader.Load(ctx, w.sourceWorkflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to load custom executor workflow '%s': %w", w.sourceWorkflowID, err)
	}

	parameters := parsedConfig
	if parameters == nil {
		if p, ok := input["parameters"].(map[string]any); ok {
			parameters = p
		} else {
			parameters = map[string]any{}
		}
	}

	subExecution := domain.NewExecution(newID(), w.sourceWorkflowID, parameters, nil, "")
	return w.orch.Execute(ctx, subWorkflow, subExecution, stream.Context{Sink: stream.NoopSink{}})
}

// CustomExecutorFactory returns the registry.CustomExecutorFactory this
// Orchestrator should be wired with via Registry.SetCustomExecutorFactory,
// so custom executors recurse back through this same Orchestrator.
func (o *Orchestrator) CustomExecutorFactory() registry.CustomExecutorFactory {
	return func(nodeType, sourceWorkflowID string, configSchema map[string]any) (registry.NodeExecutor, error) {
		return &customExecutorWrapper{orch: o, nodeType: nodeType, sourceWorkflowID: sourceWorkflowID, configSchema: configSchema}, nil
	}
}
