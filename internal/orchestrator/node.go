package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/graflow/graflow/internal/domain"
	"github.com/graflow/graflow/internal/domain/errs"
	"github.com/graflow/graflow/internal/registry"
	"github.com/graflow/graflow/internal/stream"
)

// visitNode implements spec §4.4 steps 5d-5h for one node visit: create
// the node-execution record, expand config, dispatch to the registry or
// recurse into a sub-workflow, apply setState, and record the output.
func (o *Orchestrator) visitNode(ctx context.Context, workflow *domain.Workflow, execution *domain.Execution, execCtx *domain.Context, node *domain.Node, streamCtx stream.Context) (any, error) {
	nodeStarted := time.Now()

	spanCtx, span := o.tracer.Start(ctx, "node.execute", trace.WithAttributes(
		attribute.String("node.id", node.ID),
		attribute.String("node.type", node.Type),
	))
	defer span.End()
	ctx = spanCtx

	// 5d: enter node.
	ne := domain.NewNodeExecution(newID(), execution.ID, node.ID)
	if err := o.journal.SaveNodeExecution(ctx, ne); err != nil {
		return nil, fmt.Errorf("failed to persist node execution '%s': %w", ne.ID, err)
	}
	for _, obs := range o.observers {
		obs := obs
		safeNotify(func() { obs.OnNodeStarted(execution.ID, node) })
	}
	if streamCtx.Sink != nil {
		streamCtx.Sink.Emit(stream.Event{
			Type: stream.EventNodeStart, Timestamp: time.Now(),
			WorkflowID: workflow.ID, ExecutionID: execution.ID,
			Depth: streamCtx.Depth, Path: streamCtx.Path,
			ParentExecutionID: streamCtx.ParentExecutionID,
			Data:              map[string]any{"nodeId": node.ID, "nodeType": node.Type},
		})
	}

	output, err := o.safeDispatch(ctx, workflow, execution, execCtx, node, streamCtx)
	if err != nil {
		ne.MarkFailed(err)
		_ = o.journal.SaveNodeExecution(ctx, ne)
		for _, obs := range o.observers {
			obs := obs
			safeNotify(func() { obs.OnNodeFailed(execution.ID, node, err, time.Since(nodeStarted)) })
		}
		return nil, err
	}

	// 5g: setState, applied atomically per node (see DESIGN.md open
	// question decision): every rule is evaluated into a scratch map
	// first; only once all succeed are they copied into the live state.
	if len(node.SetState) > 0 {
		scratch := map[string]any{}
		for _, assignment := range node.SetState {
			env := execCtx.EnvWithOutput(output)
			env["state"] = mergeMaps(execCtx.State, scratch)
			value, evalErr := o.evaluator.EvaluateRule(assignment.Rule, env)
			if evalErr != nil {
				stateErr := errs.NewStateUpdateError(assignment.Key, evalErr)
				ne.MarkFailed(stateErr)
				_ = o.journal.SaveNodeExecution(ctx, ne)
				return nil, stateErr
			}
			scratch[assignment.Key] = value
		}
		for k, v := range scratch {
			execCtx.State[k] = v
		}
		if streamCtx.Sink != nil {
			streamCtx.Sink.Emit(stream.Event{
				Type: stream.EventStateUpdated, Timestamp: time.Now(),
				WorkflowID: workflow.ID, ExecutionID: execution.ID,
				Depth: streamCtx.Depth, Path: streamCtx.Path,
				ParentExecutionID: streamCtx.ParentExecutionID,
				Data:              execCtx.State,
			})
		}
	}

	// 5h: record.
	ne.MarkCompleted(output)
	if err := o.journal.SaveNodeExecution(ctx, ne); err != nil {
		return nil, fmt.Errorf("failed to persist node execution '%s': %w", ne.ID, err)
	}
	execCtx.Parent[node.ID] = output

	duration := time.Since(nodeStarted)
	if streamCtx.Sink != nil && node.Streaming.ShouldSendOnComplete() {
		streamCtx.Sink.Emit(stream.Event{
			Type: stream.EventNodeComplete, Timestamp: time.Now(),
			WorkflowID: workflow.ID, ExecutionID: execution.ID,
			Depth: streamCtx.Depth, Path: streamCtx.Path,
			ParentExecutionID: streamCtx.ParentExecutionID,
			Data:              output,
			Metadata:          map[string]any{"duration": duration.String()},
		})
	}
	for _, obs := range o.observers {
		obs := obs
		safeNotify(func() { obs.OnNodeCompleted(execution.ID, node, output, duration) })
	}

	return output, nil
}

// safeDispatch wraps dispatch with panic recovery: an executor panic (a
// type-assertion panic in a custom executor, a panic surfaced from
// go-openai, a nil-map access from malformed node config) is converted
// into an ExecutorError instead of crashing the process, since streamed
// executions run dispatch from a goroutine net/http's own recovery never
// sees.
func (o *Orchestrator) safeDispatch(ctx context.Context, workflow *domain.Workflow, execution *domain.Execution, execCtx *domain.Context, node *domain.Node, streamCtx stream.Context) (output any, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().
				Interface("panic", r).
				Str("node_id", node.ID).
				Str("execution_id", execution.ID).
				Msg("recovered panic in node executor")
			err = errs.NewExecutorError(node.ID, fmt.Errorf("executor panicked: %v", r))
		}
	}()
	return o.dispatch(ctx, workflow, execution, execCtx, node, streamCtx)
}

// dispatch implements spec §4.4 step 5f: workflow_executor sub-workflow
// recursion, or resolution through the Executor Registry.
func (o *Orchestrator) dispatch(ctx context.Context, workflow *domain.Workflow, execution *domain.Execution, execCtx *domain.Context, node *domain.Node, streamCtx stream.Context) (any, error) {
	parsed, err := o.evaluator.Parse(node.Config, execCtx.Env())
	if err != nil {
		return nil, errs.NewTemplateError(node.ID, err)
	}
	parsedConfig, _ := parsed.(map[string]any)
	if parsedConfig == nil {
		parsedConfig = map[string]any{}
	}

	if node.Type == domain.WorkflowExecutorType {
		return o.dispatchSubWorkflow(ctx, execution, parsedConfig, node, streamCtx)
	}

	exec, err := o.registry.Resolve(node.Type)
	if err != nil {
		return nil, errs.NewExecutorError(node.ID, err)
	}

	input := map[string]any{
		"parameters": execCtx.Parameters,
		"config":     execCtx.Config,
		"state":      execCtx.State,
		"parent":     execCtx.Parent,
	}
	shouldStream := streamCtx.Sink != nil && node.Streaming.Enabled
	if streamingExec, ok := exec.(registry.StreamingExecutor); ok && shouldStream && streamingExec.SupportsStreaming() {
		input["context"] = map[string]any{
			"executionId": execution.ID,
			"depth":       streamCtx.Depth,
			"path":        streamCtx.Path,
		}
		output, runErr := streamingExec.RunStreaming(ctx, parsedConfig, input, func(chunk any) {
			streamCtx.Sink.Emit(stream.Event{
				Type: stream.EventNodeChunk, Timestamp: time.Now(),
				WorkflowID: workflow.ID, ExecutionID: execution.ID,
				Depth: streamCtx.Depth, Path: streamCtx.Path,
				ParentExecutionID: streamCtx.ParentExecutionID,
				Data:              map[string]any{"nodeId": node.ID, "nodeType": node.Type, "data": chunk},
			})
		})
		if runErr != nil {
			return nil, errs.NewExecutorError(node.ID, runErr)
		}
		return output, nil
	}

	output, runErr := exec.Run(ctx, parsedConfig, input)
	if runErr != nil {
		return nil, errs.NewExecutorError(node.ID, runErr)
	}
	return output, nil
}

func (o *Orchestrator) dispatchSubWorkflow(ctx context.Context, execution *domain.Execution, parsedConfig map[string]any, node *domain.Node, streamCtx stream.Context) (any, error) {
	workflowID, _ := parsedConfig["workflow_id"].(string)
	if workflowID == "" {
		return nil, errs.NewExecutorError(node.ID, fmt.Errorf("workflow_id is required for workflow_executor node"))
	}
	parameters, _ := parsedConfig["parameters"].(map[string]any)
	if parameters == nil {
		return nil, errs.NewExecutorError(node.ID, fmt.Errorf("parameters is required for workflow_executor node"))
	}

	subWorkflow, err := o.loader.Load(ctx, workflowID)
	if err != nil {
		return nil, errs.NewSubWorkflowError(workflowID, err)
	}

	subExecution := domain.NewExecution(newID(), workflowID, parameters, execution.Config, execution.ConfigID)
	subExecution.ParentExecutionID = execution.ID
	subExecution.InvokingNodeID = node.ID
	if err := o.journal.SaveExecution(ctx, subExecution); err != nil {
		return nil, fmt.Errorf("failed to persist sub-execution '%s': %w", subExecution.ID, err)
	}

	subStreamCtx := stream.Context{Sink: stream.NoopSink{}}
	if streamCtx.Sink != nil {
		subStreamCtx = streamCtx.Child(node.ID, execution.ID)
	}

	result, err := o.Execute(ctx, subWorkflow, subExecution, subStreamCtx)
	if err != nil {
		return nil, errs.NewSubWorkflowError(workflowID, err)
	}
	return result, nil
}

func mergeMaps(a, b map[string]any) map[string]any {
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
