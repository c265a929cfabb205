package domain

import "time"

// ExecutionStatus is the lifecycle status shared by Execution and
// NodeExecution records.
type ExecutionStatus string

const (
	StatusPending   ExecutionStatus = "pending"
	StatusRunning   ExecutionStatus = "running"
	StatusCompleted ExecutionStatus = "completed"
	StatusFailed    ExecutionStatus = "failed"
)

// IsTerminal reports whether the status ends the record's lifecycle.
func (s ExecutionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Execution is one run of a Workflow. Never reused: once terminal, a new
// Execution record is created for any re-run.
type Execution struct {
	ID          string
	WorkflowID  string
	Status      ExecutionStatus
	Parameters  map[string]any
	Config      map[string]any
	ConfigID    string
	Result      any
	Error       string
	CreatedAt   time.Time
	CompletedAt *time.Time

	// ParentExecutionID and InvokingNodeID are set on sub-executions
	// created by the workflow_executor node type; empty for top-level
	// executions.
	ParentExecutionID string
	InvokingNodeID    string
}

// NewExecution constructs a pending Execution.
func NewExecution(id, workflowID string, parameters, config map[string]any, configID string) *Execution {
	if parameters == nil {
		parameters = map[string]any{}
	}
	if config == nil {
		config = map[string]any{}
	}
	return &Execution{
		ID:         id,
		WorkflowID: workflowID,
		Status:     StatusPending,
		Parameters: parameters,
		Config:     config,
		ConfigID:   configID,
		CreatedAt:  time.Now(),
	}
}

// MarkRunning transitions pending -> running.
func (e *Execution) MarkRunning() {
	e.Status = StatusRunning
}

// MarkCompleted transitions running -> completed, recording the final
// result and completion time.
func (e *Execution) MarkCompleted(result any) {
	now := time.Now()
	e.Status = StatusCompleted
	e.Result = result
	e.CompletedAt = &now
}

// MarkFailed transitions running (or pending, on early validation
// failure) -> failed, recording the error message and completion time.
func (e *Execution) MarkFailed(err error) {
	now := time.Now()
	e.Status = StatusFailed
	if err != nil {
		e.Error = err.Error()
	}
	e.CompletedAt = &now
}

// NodeExecution is one invocation of one Node inside one Execution.
// Multiple rows for the same (ExecutionID, NodeID) pair are legal: a
// cyclic workflow revisits nodes and each revisit creates a new row.
type NodeExecution struct {
	ID          string
	ExecutionID string
	NodeID      string
	Status      ExecutionStatus
	Output      any
	Error       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// NewNodeExecution constructs a running NodeExecution, created on
// entering the node.
func NewNodeExecution(id, executionID, nodeID string) *NodeExecution {
	return &NodeExecution{
		ID:          id,
		ExecutionID: executionID,
		NodeID:      nodeID,
		Status:      StatusRunning,
		CreatedAt:   time.Now(),
	}
}

// MarkCompleted transitions running -> completed with the produced output.
func (ne *NodeExecution) MarkCompleted(output any) {
	now := time.Now()
	ne.Status = StatusCompleted
	ne.Output = output
	ne.CompletedAt = &now
}

// MarkFailed transitions running -> failed with the error message.
func (ne *NodeExecution) MarkFailed(err error) {
	now := time.Now()
	ne.Status = StatusFailed
	if err != nil {
		ne.Error = err.Error()
	}
	ne.CompletedAt = &now
}
