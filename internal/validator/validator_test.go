package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graflow/graflow/internal/domain"
	"github.com/graflow/graflow/internal/validator"
)

func TestValidate_AcceptsCyclicWorkflow(t *testing.T) {
	w := domain.NewWorkflow("wf-1", "demo", nil)
	require.NoError(t, w.AddNode(domain.NewNode("a", "transform", "A", nil)))
	require.NoError(t, w.AddNode(domain.NewNode("b", "transform", "B", nil)))
	w.StartNode, w.EndNode = "a", "b"
	w.AddEdge(domain.NewStaticEdge("e1", "a", "b"))
	w.AddEdge(domain.NewDynamicRuleEdge("e2", "b", []domain.RuleStep{
		{HasReturn: true, Return: `"a"`},
	}))

	assert.NoError(t, validator.Validate(w))
}

func TestValidate_RejectsMissingStartNode(t *testing.T) {
	w := domain.NewWorkflow("wf-1", "demo", nil)
	w.StartNode, w.EndNode = "missing", "missing"
	assert.Error(t, validator.Validate(w))
}
