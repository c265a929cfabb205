package rest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/graflow/graflow/internal/domain"
)

func (s *Server) respondJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, message string, status int) {
	s.respondJSON(w, map[string]string{"error": message}, status)
}

// recoverStream is the streaming-goroutine counterpart to the teacher's
// recoveryMiddleware: the SSE and websocket execution paths run
// orchestrator.Execute from a goroutine the per-request net/http recovery
// never sees, so a panic there would otherwise crash the whole process.
func (s *Server) recoverStream(execution *domain.Execution) {
	if r := recover(); r != nil {
		s.logger.Error().
			Interface("panic", r).
			Str("execution_id", execution.ID).
			Msg("panic recovered in streaming execution goroutine")
		execution.MarkFailed(fmt.Errorf("execution panicked: %v", r))
	}
}
