package workflowfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graflow/graflow/internal/infrastructure/workflowfile"
)

const yamlDoc = `
id: wf-yaml
name: from-yaml
startNode: a
endNode: b
maxIterations: 10
initialState:
  count: 0
nodes:
  - id: a
    type: transform
    name: A
    config:
      output:
        greeting: "hi"
    setState:
      - key: count
        rule:
          - return: "state.count + 1"
  - id: b
    type: transform
    name: B
edges:
  - id: e1
    from: a
    to: b
`

func TestLoad_YAML_DecodesStaticWorkflow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	w, err := workflowfile.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "wf-yaml", w.ID)
	assert.Equal(t, "a", w.StartNode)
	assert.Equal(t, "b", w.EndNode)
	assert.Equal(t, 10, w.MaxIterations)
	assert.Len(t, w.Nodes, 2)
	assert.Len(t, w.Edges, 1)
	assert.True(t, w.Edges[0].IsStatic())
	assert.Equal(t, "b", w.Edges[0].To)

	nodeA := w.NodeByID("a")
	require.NotNil(t, nodeA)
	require.Len(t, nodeA.SetState, 1)
	assert.Equal(t, "count", nodeA.SetState[0].Key)
	assert.True(t, nodeA.SetState[0].Rule[0].HasReturn)
}

const jsonDoc = `{
  "id": "wf-json",
  "name": "from-json",
  "startNode": "start",
  "endNode": "end",
  "nodes": [
    {"id": "start", "type": "transform", "name": "Start"},
    {"id": "end", "type": "transform", "name": "End"}
  ],
  "edges": [
    {"id": "e1", "from": "start", "conditions": [
      {"condition": "true", "node": "end"}
    ]}
  ]
}`

func TestLoad_JSON_DecodesDynamicConditionsEdge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wf.json")
	require.NoError(t, os.WriteFile(path, []byte(jsonDoc), 0o644))

	w, err := workflowfile.Load(path)
	require.NoError(t, err)
	require.Len(t, w.Edges, 1)
	assert.True(t, w.Edges[0].IsDynamic())
	assert.Equal(t, "end", w.Edges[0].Conditions[0].Node)
}

func TestLoad_UnsupportedExtensionErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wf.txt")
	require.NoError(t, os.WriteFile(path, []byte("irrelevant"), 0o644))

	_, err := workflowfile.Load(path)
	assert.Error(t, err)
}

func TestDecode_RuleEdgeSurvivesRoundTrip(t *testing.T) {
	ret := `"next"`
	doc := &workflowfile.Document{
		ID:        "wf-rule",
		StartNode: "a",
		EndNode:   "b",
		Nodes: []workflowfile.NodeDocument{
			{ID: "a", Type: "transform"},
			{ID: "b", Type: "transform"},
		},
		Edges: []workflowfile.EdgeDocument{
			{ID: "e1", From: "a", Rule: []workflowfile.RuleStepDoc{{Return: &ret}}},
		},
	}

	w, err := workflowfile.Decode(doc)
	require.NoError(t, err)
	require.Len(t, w.Edges, 1)
	assert.True(t, w.Edges[0].IsDynamic())
	assert.True(t, w.Edges[0].Rule[0].HasReturn)
	assert.Equal(t, `"next"`, w.Edges[0].Rule[0].Return)
}
