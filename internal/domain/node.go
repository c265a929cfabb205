package domain

// StateAssignment is one entry of a node's setState list: after the node
// completes, Rule is evaluated against the node-execution context
// (augmented with the node's just-produced output) and its result is
// assigned to state[Key].
type StateAssignment struct {
	Key  string
	Rule []RuleStep
}

// StreamingPolicy controls whether a node's execution emits stream
// events and whether a node_complete event fires once it finishes.
type StreamingPolicy struct {
	Enabled        bool
	SendOnComplete bool // defaults true; only false is meaningful
	sendOnCompleteSet bool
}

// NewStreamingPolicy builds a StreamingPolicy with SendOnComplete
// explicitly set (so a false value is distinguishable from the zero value).
func NewStreamingPolicy(enabled, sendOnComplete bool) StreamingPolicy {
	return StreamingPolicy{Enabled: enabled, SendOnComplete: sendOnComplete, sendOnCompleteSet: true}
}

// ShouldSendOnComplete reports whether a node_complete event should be
// emitted once the node finishes. Absent an explicit policy this is true.
func (p StreamingPolicy) ShouldSendOnComplete() bool {
	if !p.sendOnCompleteSet {
		return true
	}
	return p.SendOnComplete
}

// Node is a single processing step in a Workflow.
//
// Type is the reserved keyword "workflow_executor" for a sub-workflow
// invocation, handled directly by the orchestrator, or any string the
// Executor Registry knows how to resolve.
type Node struct {
	ID        string
	Type      string
	Name      string
	Config    map[string]any
	SetState  []StateAssignment
	Streaming StreamingPolicy
}

// NewNode constructs a Node.
func NewNode(id, nodeType, name string, config map[string]any) *Node {
	if config == nil {
		config = map[string]any{}
	}
	return &Node{ID: id, Type: nodeType, Name: name, Config: config}
}

// WorkflowExecutorType is the reserved node type the orchestrator
// interprets itself instead of delegating to the Executor Registry.
const WorkflowExecutorType = "workflow_executor"
