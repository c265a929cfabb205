package rest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/graflow/graflow/internal/domain"
	"github.com/graflow/graflow/internal/stream"
)

// executeRequest is the body of POST /api/v1/workflows/{id}/executions.
type executeRequest struct {
	Parameters map[string]any `json:"parameters"`
	ConfigID   string         `json:"configId"`
	Stream     bool           `json:"stream"`
}

// handleExecuteWorkflow handles POST /api/v1/workflows/{id}/executions
// (spec §6): a truthy "stream" switches the response to SSE framing,
// otherwise the final execution record is returned as JSON.
func (s *Server) handleExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workflowID := r.PathValue("id")

	workflow, err := s.workflows.Load(ctx, workflowID)
	if err != nil {
		s.respondError(w, "workflow not found", http.StatusNotFound)
		return
	}

	var req executeRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	execution := domain.NewExecution(uuid.NewString(), workflow.ID, req.Parameters, nil, req.ConfigID)

	if !req.Stream {
		_, _ = s.orch.Execute(ctx, workflow, execution, stream.Context{Sink: stream.NoopSink{}})
		s.respondJSON(w, execution, http.StatusOK)
		return
	}

	s.streamSSE(w, r, workflow, execution)
}

func (s *Server) streamSSE(w http.ResponseWriter, r *http.Request, workflow *domain.Workflow, execution *domain.Execution) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sink := stream.NewChannelSink(32)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer sink.Close()
		defer s.recoverStream(execution)
		_, _ = s.orch.Execute(r.Context(), workflow, execution, stream.Context{Sink: sink})
	}()

	for {
		select {
		case event, ok := <-sink.Events():
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		case <-r.Context().Done():
			return
		case <-done:
			return
		}
	}
}

// handleGetExecution handles GET /api/v1/executions/{id}.
func (s *Server) handleGetExecution(w http.ResponseWriter, r *http.Request) {
	execution, err := s.journal.GetExecution(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, "execution not found", http.StatusNotFound)
		return
	}
	s.respondJSON(w, execution, http.StatusOK)
}

// handleListNodeExecutions handles GET /api/v1/executions/{id}/nodes.
func (s *Server) handleListNodeExecutions(w http.ResponseWriter, r *http.Request) {
	rows, err := s.journal.ListNodeExecutions(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, "failed to list node executions", http.StatusInternalServerError)
		return
	}
	s.respondJSON(w, rows, http.StatusOK)
}
