package apiserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/moolen/agentdesk/internal/agent/runner"
	"github.com/moolen/agentdesk/internal/api"
	"github.com/moolen/agentdesk/internal/logging"
)

// AskRequest is the body of POST /api/{agent_name}.
type AskRequest struct {
	Prompt    string `json:"prompt"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// AskResponse is returned for a completed turn.
type AskResponse struct {
	Response  string   `json:"response"`
	SessionID string   `json:"session_id"`
	ToolCalls []string `json:"tool_calls,omitempty"`
}

type agentsResponse struct {
	Agents interface{} `json:"agents"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("agent_name")
	if name == "" {
		name = strings.TrimPrefix(r.URL.Path, "/api/")
	}

	cat := s.agents.Current()
	if cat == nil {
		api.WriteError(w, api.NewUnavailableError("Agents are not loaded"))
		return
	}
	if _, ok := cat.Get(name); !ok {
		api.WriteError(w, api.NewNotFoundError("Agent not found"))
		return
	}

	req, apiErr := s.decodeAskRequest(w, r)
	if apiErr != nil {
		api.WriteError(w, apiErr)
		return
	}

	result, err := s.runner.Ask(r.Context(), runner.Request{
		Agent:     name,
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Prompt:    req.Prompt,
	})
	if err != nil {
		s.writeRunError(w, r, name, err)
		return
	}

	respondJSON(w, http.StatusOK, AskResponse{
		Response:  result.Response,
		SessionID: result.SessionID,
		ToolCalls: result.ToolCalls,
	})
}

func (s *Server) decodeAskRequest(w http.ResponseWriter, r *http.Request) (*AskRequest, *api.APIError) {
	body := http.MaxBytesReader(w, r.Body, s.config.MaxRequestBytes)
	defer body.Close()

	var req AskRequest
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, api.NewRequestTooLargeError("Request body exceeds %d bytes", tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return nil, api.NewInvalidRequestError("Request body is empty")
		default:
			return nil, api.NewInvalidRequestError("Invalid JSON body: %v", err)
		}
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, api.NewInvalidRequestError("Field 'prompt' is required")
	}
	return &req, nil
}

func (s *Server) writeRunError(w http.ResponseWriter, r *http.Request, agentName string, err error) {
	switch {
	case errors.Is(err, runner.ErrAgentNotFound):
		api.WriteError(w, api.NewNotFoundError("Agent not found"))
		return
	case errors.Is(err, runner.ErrEmptyPrompt):
		api.WriteError(w, api.NewInvalidRequestError("Field 'prompt' is required"))
		return
	case errors.Is(err, runner.ErrSessionConflict):
		api.WriteError(w, api.NewConflictError("Session belongs to another user"))
		return
	case errors.Is(r.Context().Err(), context.Canceled):
		s.logger.Debug("Client canceled request to agent %s", agentName)
		return
	}

	s.logger.ErrorWithFields("Agent run failed",
		logging.Field("agent", agentName),
		logging.Field("error", err.Error()))
	api.WriteError(w, api.NewUpstreamError("Agent run failed: %v", err))
}

func (s *Server) handleListAgents(w http.ResponseWriter, _ *http.Request) {
	cat := s.agents.Current()
	if cat == nil {
		api.WriteError(w, api.NewUnavailableError("Agents are not loaded"))
		return
	}
	respondJSON(w, http.StatusOK, agentsResponse{Agents: cat.List()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("session_id")
	info, err := s.runner.Session(r.Context(), id)
	if err != nil {
		if errors.Is(err, runner.ErrSessionNotFound) {
			api.WriteError(w, api.NewNotFoundError("Session not found"))
			return
		}
		api.WriteError(w, api.NewInternalServerError("Failed to load session: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, info)
}
