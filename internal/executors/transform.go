package executors

import (
	"context"

	"github.com/graflow/graflow/internal/template"
)

// TransformExecutor produces its output by expanding config["output"] (a
// template tree) against the node's input context — the simplest
// possible executor, used throughout the end-to-end scenarios spec §8
// describes (pass-through and pure-computation nodes).
type TransformExecutor struct {
	evaluator *template.Evaluator
}

// NewTransformExecutor constructs a TransformExecutor with its own
// evaluator instance (stateless beyond its compile cache, safe to share,
// but each executor keeps its own cache to avoid cross-component
// coupling).
func NewTransformExecutor() *TransformExecutor {
	return &TransformExecutor{evaluator: template.NewEvaluator()}
}

func (e *TransformExecutor) Type() string                 { return "transform" }
func (e *TransformExecutor) ConfigSchema() map[string]any { return nil }

func (e *TransformExecutor) Run(ctx context.Context, config map[string]any, input map[string]any) (any, error) {
	output, ok := config["output"]
	if !ok {
		return map[string]any{}, nil
	}
	return e.evaluator.Parse(output, input)
}
