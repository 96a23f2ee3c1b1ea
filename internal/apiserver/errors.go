package apiserver

import (
	"net/http"

	"github.com/moolen/agentdesk/internal/api"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	api.Respond(w, status, data)
}

// handleMethodNotAllowed handles 405 responses
func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	api.WriteError(w, api.NewMethodNotAllowedError("Method %s not allowed for %s", r.Method, r.URL.Path))
}

// handleNotFound handles 404 responses for unknown API paths
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	api.WriteError(w, api.NewNotFoundError("Endpoint not found: %s", r.URL.Path))
}
