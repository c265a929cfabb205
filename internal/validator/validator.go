// Package validator implements the Workflow Validator (spec §4.5):
// structural checks performed on a workflow prior to traversal. It
// deliberately performs no reachability or cycle analysis — cycles are
// legal by design.
package validator

import "github.com/graflow/graflow/internal/domain"

// Validate runs the four structural checks spec §4.5 names, in order:
// start/end node existence, edge 'from'/'to' existence, and at most one
// outgoing edge per node.
func Validate(w *domain.Workflow) error {
	return w.ValidateStructure()
}
