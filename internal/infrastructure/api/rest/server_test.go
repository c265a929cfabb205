package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graflow/graflow/internal/domain"
	"github.com/graflow/graflow/internal/infrastructure/api/rest"
	"github.com/graflow/graflow/internal/infrastructure/storage"
	"github.com/graflow/graflow/internal/orchestrator"
	"github.com/graflow/graflow/internal/registry"
)

type echoExecutor struct{}

func (echoExecutor) Type() string                 { return "echo" }
func (echoExecutor) ConfigSchema() map[string]any { return nil }
func (echoExecutor) Run(ctx context.Context, config, input map[string]any) (any, error) {
	return config, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *storage.WorkflowStore) {
	t.Helper()
	workflows := storage.NewWorkflowStore()
	reg := registry.New()
	reg.RegisterBuiltin(echoExecutor{})
	j := storage.NewMemoryJournal()
	orch := orchestrator.New(j, reg, workflows, zerolog.Nop(), 0)
	reg.SetCustomExecutorFactory(orch.CustomExecutorFactory())

	srv := rest.NewServer(workflows, orch, j, reg, zerolog.Nop())
	return httptest.NewServer(srv), workflows
}

func TestServer_PutAndGetWorkflow_JSONRoundTrip(t *testing.T) {
	ts, _ := newTestServer(t)
	defer ts.Close()

	doc := map[string]any{
		"id":        "wf-http",
		"name":      "http-demo",
		"startNode": "a",
		"endNode":   "a",
		"nodes": []map[string]any{
			{"id": "a", "type": "echo", "name": "A", "config": map[string]any{"hello": "world"}},
		},
	}
	body, err := json.Marshal(doc)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/v1/workflows/wf-http", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	getResp, err := ts.Client().Get(ts.URL + "/api/v1/workflows/wf-http")
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusOK, getResp.StatusCode)

	var got domain.Workflow
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&got))
	assert.Equal(t, "http-demo", got.Name)
}

func TestServer_GetWorkflow_NotFound(t *testing.T) {
	ts, _ := newTestServer(t)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/v1/workflows/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_ExecuteWorkflow_NonStreamingReturnsCompletedExecution(t *testing.T) {
	ts, workflows := newTestServer(t)
	defer ts.Close()

	w := domain.NewWorkflow("wf-exec", "exec-demo", nil)
	require.NoError(t, w.AddNode(domain.NewNode("a", "echo", "A", map[string]any{"k": "v"})))
	w.StartNode, w.EndNode = "a", "a"
	workflows.Put(w)

	resp, err := ts.Client().Post(ts.URL+"/api/v1/workflows/wf-exec/executions", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var execution domain.Execution
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&execution))
	assert.Equal(t, domain.StatusCompleted, execution.Status)
}

func TestServer_ListWorkflows(t *testing.T) {
	ts, workflows := newTestServer(t)
	defer ts.Close()

	workflows.Put(domain.NewWorkflow("wf-a", "a", nil))
	workflows.Put(domain.NewWorkflow("wf-b", "b", nil))

	resp, err := ts.Client().Get(ts.URL + "/api/v1/workflows")
	require.NoError(t, err)
	defer resp.Body.Close()

	var list []*domain.Workflow
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Len(t, list, 2)
}

func TestServer_GetExecution_NotFound(t *testing.T) {
	ts, _ := newTestServer(t)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/v1/executions/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
