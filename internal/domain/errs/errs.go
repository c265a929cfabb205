// Package errs defines the error taxonomy surfaced by the workflow core.
//
// The eight types below cover validation, navigation, iteration-limit,
// template, executor, sub-workflow, state-update and cancellation
// failures; a journal persistence failure reaches the caller as a plain
// wrapped error instead. TemplateError, ExecutorError, SubWorkflowError
// and StateUpdateError wrap an underlying cause via Unwrap so callers can
// still errors.Is/errors.As through to the original failure; the other
// four carry no cause.
package errs

import "fmt"

// ValidationError reports a pre-traversal structural failure (see the
// Workflow Validator).
type ValidationError struct {
	WorkflowID string
	Message    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("workflow '%s' failed validation: %s", e.WorkflowID, e.Message)
}

// NewValidationError constructs a ValidationError.
func NewValidationError(workflowID, message string) *ValidationError {
	return &ValidationError{WorkflowID: workflowID, Message: message}
}

// GraphNavigationError reports a missing node, missing edge, or an
// unresolved dynamic edge target encountered during traversal.
type GraphNavigationError struct {
	NodeID  string
	Message string
}

func (e *GraphNavigationError) Error() string { return e.Message }

// NewGraphNavigationError constructs a GraphNavigationError.
func NewGraphNavigationError(nodeID, message string) *GraphNavigationError {
	return &GraphNavigationError{NodeID: nodeID, Message: message}
}

// IterationLimitError reports that a traversal exhausted maxIterations.
type IterationLimitError struct {
	MaxIterations int
}

func (e *IterationLimitError) Error() string {
	return fmt.Sprintf("Workflow execution exceeded maximum iterations (%d)", e.MaxIterations)
}

// NewIterationLimitError constructs an IterationLimitError.
func NewIterationLimitError(max int) *IterationLimitError {
	return &IterationLimitError{MaxIterations: max}
}

// TemplateError reports a parse or evaluation failure in the Evaluator.
// RefID is the failing expression's source text when the Evaluator raises
// it, and the node id when the orchestrator wraps a config-expansion
// failure.
type TemplateError struct {
	RefID string
	Cause error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template error at '%s': %s", e.RefID, e.Cause)
}

func (e *TemplateError) Unwrap() error { return e.Cause }

// NewTemplateError constructs a TemplateError.
func NewTemplateError(refID string, cause error) *TemplateError {
	return &TemplateError{RefID: refID, Cause: cause}
}

// ExecutorError reports a failure raised by an executor, wrapped with the
// node id that invoked it.
type ExecutorError struct {
	NodeID string
	Cause  error
}

func (e *ExecutorError) Error() string {
	return fmt.Sprintf("executor error at node '%s': %s", e.NodeID, e.Cause)
}

func (e *ExecutorError) Unwrap() error { return e.Cause }

// NewExecutorError constructs an ExecutorError.
func NewExecutorError(nodeID string, cause error) *ExecutorError {
	return &ExecutorError{NodeID: nodeID, Cause: cause}
}

// SubWorkflowError reports a terminal failure of a nested execution,
// wrapped with the sub-workflow id.
type SubWorkflowError struct {
	WorkflowID string
	Cause      error
}

func (e *SubWorkflowError) Error() string {
	return fmt.Sprintf("Workflow execution failed for workflow_id '%s': %s", e.WorkflowID, e.Cause)
}

func (e *SubWorkflowError) Unwrap() error { return e.Cause }

// NewSubWorkflowError constructs a SubWorkflowError.
func NewSubWorkflowError(workflowID string, cause error) *SubWorkflowError {
	return &SubWorkflowError{WorkflowID: workflowID, Cause: cause}
}

// StateUpdateError reports a setState rule failure, wrapped with the
// offending state key.
type StateUpdateError struct {
	Key   string
	Cause error
}

func (e *StateUpdateError) Error() string {
	return fmt.Sprintf("Failed to execute setState for key '%s': %s", e.Key, e.Cause)
}

func (e *StateUpdateError) Unwrap() error { return e.Cause }

// NewStateUpdateError constructs a StateUpdateError.
func NewStateUpdateError(key string, cause error) *StateUpdateError {
	return &StateUpdateError{Key: key, Cause: cause}
}

// CancellationError reports cooperative cancellation of an execution.
type CancellationError struct {
	ExecutionID string
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("execution '%s' was cancelled", e.ExecutionID)
}

// NewCancellationError constructs a CancellationError.
func NewCancellationError(executionID string) *CancellationError {
	return &CancellationError{ExecutionID: executionID}
}
