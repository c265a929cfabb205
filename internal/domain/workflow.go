package domain

import (
	"fmt"
	"time"

	"github.com/graflow/graflow/internal/domain/errs"
)

// Workflow is the static program: a directed graph of Nodes joined by
// Edges, with designated start/end nodes and an initial mutable state.
//
// Unlike the teacher's aggregate, cycles (including self-loops) are
// legal by design — see spec §4.5/§9 — so Workflow performs no
// reachability or cycle analysis anywhere in its construction or
// validation path.
type Workflow struct {
	ID            string
	Name          string
	ParameterSchema map[string]any
	Nodes         []*Node
	Edges         []*Edge
	StartNode     string
	EndNode       string
	InitialState  map[string]any
	MaxIterations int
	DefaultConfigID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DefaultMaxIterations is applied when a workflow does not declare one.
const DefaultMaxIterations = 100

// NewWorkflow constructs a Workflow with sane defaults; MaxIterations
// starts at DefaultMaxIterations.
func NewWorkflow(id, name string, parameterSchema map[string]any) *Workflow {
	now := time.Now()
	return &Workflow{
		ID:              id,
		Name:            name,
		ParameterSchema: parameterSchema,
		InitialState:    map[string]any{},
		MaxIterations:   DefaultMaxIterations,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// AddNode appends a node, rejecting duplicate ids.
func (w *Workflow) AddNode(n *Node) error {
	for _, existing := range w.Nodes {
		if existing.ID == n.ID {
			return errs.NewValidationError(w.ID, fmt.Sprintf("duplicate node id '%s'", n.ID))
		}
	}
	w.Nodes = append(w.Nodes, n)
	return nil
}

// AddEdge appends an edge. Self-loops and cyclic edges are accepted
// without restriction; uniqueness of From is enforced by ValidateStructure,
// not here, so callers may build a workflow incrementally.
func (w *Workflow) AddEdge(e *Edge) {
	w.Edges = append(w.Edges, e)
}

// NodeByID returns the node with the given id, or nil.
func (w *Workflow) NodeByID(id string) *Node {
	for _, n := range w.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// EdgeFrom returns the outgoing edge from the given node id, or nil if
// none exists.
func (w *Workflow) EdgeFrom(nodeID string) *Edge {
	for _, e := range w.Edges {
		if e.From == nodeID {
			return e
		}
	}
	return nil
}

// ValidateStructure performs exactly the checks spec §4.5 names: no
// reachability or cycle analysis is attempted, cycles are legal by design.
func (w *Workflow) ValidateStructure() error {
	nodeIDs := make(map[string]bool, len(w.Nodes))
	for _, n := range w.Nodes {
		nodeIDs[n.ID] = true
	}

	if !nodeIDs[w.StartNode] {
		return errs.NewValidationError(w.ID, fmt.Sprintf("Start node '%s' does not exist in workflow", w.StartNode))
	}
	if !nodeIDs[w.EndNode] {
		return errs.NewValidationError(w.ID, fmt.Sprintf("End node '%s' does not exist in workflow", w.EndNode))
	}

	outgoingCount := make(map[string]int, len(w.Nodes))
	for _, e := range w.Edges {
		if !nodeIDs[e.From] {
			return errs.NewValidationError(w.ID, fmt.Sprintf("Edge '%s' references non-existent 'from' node: %s", e.ID, e.From))
		}
		if e.IsStatic() && !nodeIDs[e.To] {
			return errs.NewValidationError(w.ID, fmt.Sprintf("Edge '%s' references non-existent 'to' node: %s", e.ID, e.To))
		}
		outgoingCount[e.From]++
	}

	for nodeID, count := range outgoingCount {
		if count > 1 {
			return errs.NewValidationError(w.ID, fmt.Sprintf("Node '%s' has %d outgoing edges. Each node can only have one outgoing edge.", nodeID, count))
		}
	}

	return nil
}

// EffectiveMaxIterations returns MaxIterations, or DefaultMaxIterations
// when the workflow did not declare a positive one.
func (w *Workflow) EffectiveMaxIterations() int {
	if w.MaxIterations <= 0 {
		return DefaultMaxIterations
	}
	return w.MaxIterations
}
