// Package stream defines the streaming event envelope emitted by the
// orchestrator (spec §4.4) and the Sink abstraction events are delivered
// through.
package stream

import "time"

// EventType enumerates the streaming event kinds spec §4.4 names.
type EventType string

const (
	EventWorkflowStart    EventType = "workflow_start"
	EventWorkflowComplete EventType = "workflow_complete"
	EventNodeStart        EventType = "node_start"
	EventNodeChunk        EventType = "node_chunk"
	EventNodeComplete     EventType = "node_complete"
	EventStateUpdated     EventType = "state_updated"
	EventError            EventType = "error"
)

// Event is the envelope every stream event carries (spec §4.4).
type Event struct {
	Type              EventType      `json:"type"`
	Timestamp         time.Time      `json:"timestamp"`
	WorkflowID        string         `json:"workflowId"`
	ExecutionID       string         `json:"executionId"`
	Depth             int            `json:"depth"`
	Path              []string       `json:"path"`
	ParentExecutionID string         `json:"parentExecutionId,omitempty"`
	Data              any            `json:"data,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// Context carries the nested-execution envelope spec §4.4 requires:
// depth increases by 1 per sub-workflow recursion, path appends the
// invoking node id, and nested events inherit the parent's Sink.
type Context struct {
	Sink              Sink
	Depth             int
	Path              []string
	ParentExecutionID string
}

// Child returns the Context a sub-workflow invocation from nodeID should
// use: same Sink, Depth+1, Path+nodeID, ParentExecutionID set to the
// invoking execution id.
func (c Context) Child(nodeID, parentExecutionID string) Context {
	path := make([]string, len(c.Path)+1)
	copy(path, c.Path)
	path[len(c.Path)] = nodeID
	return Context{
		Sink:              c.Sink,
		Depth:             c.Depth + 1,
		Path:              path,
		ParentExecutionID: parentExecutionID,
	}
}

// Sink receives stream events. Implementations may apply back-pressure;
// the orchestrator may suspend at Emit (spec §5).
type Sink interface {
	Emit(event Event)
}

// NoopSink discards every event; used when a request does not ask for
// streaming.
type NoopSink struct{}

func (NoopSink) Emit(Event) {}

// ChannelSink delivers events to a buffered channel, for SSE/websocket
// transports to drain.
type ChannelSink struct {
	ch chan Event
}

// NewChannelSink constructs a ChannelSink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{ch: make(chan Event, buffer)}
}

func (s *ChannelSink) Emit(event Event) {
	s.ch <- event
}

// Events returns the channel events are delivered on.
func (s *ChannelSink) Events() <-chan Event { return s.ch }

// Close closes the underlying channel; callers must stop calling Emit
// first.
func (s *ChannelSink) Close() { close(s.ch) }
