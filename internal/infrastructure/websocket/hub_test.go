package websocket_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graflow/graflow/internal/infrastructure/websocket"
	"github.com/graflow/graflow/internal/stream"
)

func TestServe_StreamsEventsUntilWorkflowComplete(t *testing.T) {
	events := make(chan stream.Event, 2)
	events <- stream.Event{Type: stream.EventNodeStart, WorkflowID: "wf-1"}
	events <- stream.Event{Type: stream.EventWorkflowComplete, WorkflowID: "wf-1"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := websocket.Serve(w, r, events, func() {})
		require.NoError(t, err)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var first, second stream.Event
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))

	assert.Equal(t, stream.EventNodeStart, first.Type)
	assert.Equal(t, stream.EventWorkflowComplete, second.Type)
}

func TestServe_CancelMessageInvokesCancel(t *testing.T) {
	events := make(chan stream.Event)
	cancelled := make(chan struct{}, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = websocket.Serve(w, r, events, func() { cancelled <- struct{}{} })
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "cancel"}))

	select {
	case <-cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("cancel was not invoked")
	}
}
