// Package rest implements the HTTP surface of spec §6: workflow
// registration, execution submission (plain JSON, SSE streaming, or a
// websocket duplex channel), grounded on the teacher's
// internal/infrastructure/api/rest server (method-prefixed
// http.ServeMux routing, respondJSON/respondError helpers) generalized
// from its domain.Storage-backed CRUD surface to the orchestrator.
package rest

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/graflow/graflow/internal/infrastructure/storage"
	"github.com/graflow/graflow/internal/journal"
	"github.com/graflow/graflow/internal/orchestrator"
	"github.com/graflow/graflow/internal/registry"
)

// Server is the HTTP entrypoint wiring a WorkflowStore, an Orchestrator,
// and a Journal into the routes spec §6 describes.
type Server struct {
	workflows *storage.WorkflowStore
	orch      *orchestrator.Orchestrator
	journal   journal.Journal
	registry  *registry.Registry
	logger    zerolog.Logger
	mux       *http.ServeMux
}

// NewServer constructs a Server and registers its routes.
func NewServer(workflows *storage.WorkflowStore, orch *orchestrator.Orchestrator, j journal.Journal, reg *registry.Registry, logger zerolog.Logger) *Server {
	s := &Server{
		workflows: workflows,
		orch:      orch,
		journal:   j,
		registry:  reg,
		logger:    logger,
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/v1/workflows", s.handleListWorkflows)
	s.mux.HandleFunc("PUT /api/v1/workflows/{id}", s.handlePutWorkflow)
	s.mux.HandleFunc("GET /api/v1/workflows/{id}", s.handleGetWorkflow)
	s.mux.HandleFunc("POST /api/v1/workflows/{id}/executions", s.handleExecuteWorkflow)
	s.mux.HandleFunc("GET /api/v1/workflows/{id}/stream", s.handleStreamWebsocket)
	s.mux.HandleFunc("GET /api/v1/executions/{id}", s.handleGetExecution)
	s.mux.HandleFunc("GET /api/v1/executions/{id}/nodes", s.handleListNodeExecutions)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logger.Info().Str("method", r.Method).Str("path", r.URL.Path).Msg("request received")
	s.mux.ServeHTTP(w, r)
}
