package executors_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graflow/graflow/internal/executors"
)

func TestHTTPExecutor_Run_ParsesJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	e := executors.NewHTTPExecutor()
	out, err := e.Run(context.Background(), map[string]any{"method": "GET", "url": srv.URL}, nil)
	require.NoError(t, err)

	result := out.(map[string]any)
	assert.Equal(t, http.StatusOK, result["statusCode"])
	assert.Equal(t, map[string]any{"ok": true}, result["body"])
}

func TestHTTPExecutor_Run_RequiresURL(t *testing.T) {
	e := executors.NewHTTPExecutor()
	_, err := e.Run(context.Background(), map[string]any{}, nil)
	assert.Error(t, err)
}

func TestHTTPExecutor_Run_NonJSONBodyFallsBackToString(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain text"))
	}))
	defer srv.Close()

	e := executors.NewHTTPExecutor()
	out, err := e.Run(context.Background(), map[string]any{"method": "GET", "url": srv.URL}, nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text", out.(map[string]any)["body"])
}
