package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/graflow/graflow/internal/domain"
	"github.com/graflow/graflow/internal/infrastructure/websocket"
	"github.com/graflow/graflow/internal/stream"
)

// handleStreamWebsocket handles GET /api/v1/workflows/{id}/stream,
// upgrading to a duplex websocket connection carrying the same event
// envelope the SSE path sends, plus a client-to-server cancel message.
func (s *Server) handleStreamWebsocket(w http.ResponseWriter, r *http.Request) {
	workflow, err := s.workflows.Load(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, "workflow not found", http.StatusNotFound)
		return
	}

	var req executeRequest
	if raw := r.URL.Query().Get("parameters"); raw != "" {
		_ = json.Unmarshal([]byte(raw), &req.Parameters)
	}

	execution := domain.NewExecution(uuid.NewString(), workflow.ID, req.Parameters, nil, req.ConfigID)
	sink := stream.NewChannelSink(32)

	execCtx, cancel := context.WithCancel(r.Context())
	go func() {
		defer sink.Close()
		defer s.recoverStream(execution)
		_, _ = s.orch.Execute(execCtx, workflow, execution, stream.Context{Sink: sink})
	}()

	if err := websocket.Serve(w, r, sink.Events(), cancel); err != nil {
		s.logger.Warn().Err(err).Str("execution_id", execution.ID).Msg("websocket stream ended")
	}
}
