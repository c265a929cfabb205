package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/graflow/graflow/internal/infrastructure/workflowfile"
)

// handleListWorkflows handles GET /api/v1/workflows.
func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, s.workflows.List(), http.StatusOK)
}

// handleGetWorkflow handles GET /api/v1/workflows/{id}.
func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	workflow, err := s.workflows.Load(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, "workflow not found", http.StatusNotFound)
		return
	}
	s.respondJSON(w, workflow, http.StatusOK)
}

// handlePutWorkflow handles PUT /api/v1/workflows/{id}, accepting either
// application/json or application/x-yaml bodies (spec §6): the body is
// decoded into the same Document tree either way before being handed to
// the domain layer.
func (s *Server) handlePutWorkflow(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	var doc workflowfile.Document
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		err = yaml.Unmarshal(body, &doc)
	} else {
		err = json.Unmarshal(body, &doc)
	}
	if err != nil {
		s.respondError(w, "invalid workflow document: "+err.Error(), http.StatusBadRequest)
		return
	}

	if doc.ID == "" {
		doc.ID = r.PathValue("id")
	}

	workflow, err := workflowfile.Decode(&doc)
	if err != nil {
		s.respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.workflows.Put(workflow)
	s.respondJSON(w, workflow, http.StatusCreated)
}
