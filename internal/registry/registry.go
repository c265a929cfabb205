// Package registry implements the Executor Registry (spec §4.2): it maps
// a node's type string to a runnable executor, built-ins first, then
// custom executors backed by a stored sub-workflow.
package registry

import (
	"context"
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/graflow/graflow/internal/domain"
)

// NodeExecutor is the contract every built-in or custom executor exposes
// (spec §4.2).
type NodeExecutor interface {
	Type() string
	ConfigSchema() map[string]any
	Run(ctx context.Context, parsedConfig map[string]any, input map[string]any) (any, error)
}

// StreamingExecutor is a NodeExecutor that can additionally deliver
// incremental chunks via onChunk.
type StreamingExecutor interface {
	NodeExecutor
	SupportsStreaming() bool
	RunStreaming(ctx context.Context, parsedConfig map[string]any, input map[string]any, onChunk func(chunk any)) (any, error)
}

// CustomExecutorFactory builds a NodeExecutor wrapping sourceWorkflowID
// for the given custom nodeType, typically an orchestrator-backed
// sub-execution wrapper. Registry does not import the orchestrator
// package itself (that would be a cycle); whoever wires the two together
// supplies this factory.
type CustomExecutorFactory func(nodeType, sourceWorkflowID string, configSchema map[string]any) (NodeExecutor, error)

type customSpec struct {
	sourceWorkflowID string
	configSchema     map[string]any
}

// Registry resolves node.Type to a NodeExecutor. Built-ins are searched
// first, then custom executors; custom-executor wrappers are cached
// keyed by type in a concurrent-safe map since many goroutines may
// resolve the same type across concurrent executions (spec §5: "Built-in
// executor instances cached in the registry must be safe for concurrent
// invocation; custom-executor cache entries likewise").
type Registry struct {
	builtins    *xsync.MapOf[string, NodeExecutor]
	customSpecs *xsync.MapOf[string, customSpec]
	customCache *xsync.MapOf[string, NodeExecutor]
	factory     CustomExecutorFactory
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{
		builtins:    xsync.NewMapOf[string, NodeExecutor](),
		customSpecs: xsync.NewMapOf[string, customSpec](),
		customCache: xsync.NewMapOf[string, NodeExecutor](),
	}
}

// SetCustomExecutorFactory installs the factory used to materialize a
// custom executor from its (sourceWorkflowID, configSchema) record.
func (r *Registry) SetCustomExecutorFactory(f CustomExecutorFactory) {
	r.factory = f
}

// RegisterBuiltin registers a built-in executor instance by its Type().
func (r *Registry) RegisterBuiltin(e NodeExecutor) {
	r.builtins.Store(e.Type(), e)
}

// RegisterCustom records a custom-executor spec: {type, sourceWorkflowId,
// configSchema}. On first Resolve of this type the registry builds the
// wrapper via the installed factory and caches it; the referenced
// workflow is not loaded at resolution time but by the wrapper each
// time it runs.
func (r *Registry) RegisterCustom(nodeType, sourceWorkflowID string, configSchema map[string]any) {
	r.customSpecs.Store(nodeType, customSpec{sourceWorkflowID: sourceWorkflowID, configSchema: configSchema})
}

// Resolve maps node.Type to a NodeExecutor, built-ins first. The reserved
// workflow_executor type is never resolved here — the orchestrator
// handles it directly.
func (r *Registry) Resolve(nodeType string) (NodeExecutor, error) {
	if nodeType == domain.WorkflowExecutorType {
		return nil, fmt.Errorf("executor not found for node type: %s", nodeType)
	}

	if e, ok := r.builtins.Load(nodeType); ok {
		return e, nil
	}

	if e, ok := r.customCache.Load(nodeType); ok {
		return e, nil
	}

	if spec, ok := r.customSpecs.Load(nodeType); ok {
		if r.factory == nil {
			return nil, fmt.Errorf("executor not found for node type: %s", nodeType)
		}
		wrapper, err := r.factory(nodeType, spec.sourceWorkflowID, spec.configSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to load custom executor '%s': %w", nodeType, err)
		}
		r.customCache.Store(nodeType, wrapper)
		return wrapper, nil
	}

	return nil, fmt.Errorf("executor not found for node type: %s", nodeType)
}

// ClearCache evicts one custom-executor cache entry, or all of them when
// nodeType is empty.
func (r *Registry) ClearCache(nodeType string) {
	if nodeType == "" {
		r.customCache.Clear()
		return
	}
	r.customCache.Delete(nodeType)
}
