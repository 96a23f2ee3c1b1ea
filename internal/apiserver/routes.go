package apiserver

import (
	"net/http"
)

// registerHandlers registers all routes. The static UI is the catch-all.
func (s *Server) registerHandlers() {
	s.registerAPIHandlers()
	s.registerMCPHandler()
	s.registerHealthEndpoints()
	s.registerStaticUIHandlers()
}

func (s *Server) registerAPIHandlers() {
	// "/api/agents" shadows an agent named "agents"; POST still reaches it.
	s.router.HandleFunc("/api/agents", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			s.handleAsk(w, r)
			return
		}
		s.withMethod(http.MethodGet, s.handleListAgents)(w, r)
	})
	s.router.HandleFunc("/api/sessions/{session_id}", s.withMethod(http.MethodGet, s.handleGetSession))
	s.router.HandleFunc("/api/{agent_name}", s.withMethod(http.MethodPost, s.handleAsk))
	s.router.HandleFunc("/api/", s.handleNotFound)
}

// registerMCPHandler adds the MCP endpoint (must be BEFORE static UI catch-all)
func (s *Server) registerMCPHandler() {
	if s.mcp == nil {
		s.logger.Debug("MCP server not configured, skipping %s endpoint", MCPEndpointPath)
		return
	}
	s.router.Handle(MCPEndpointPath, s.mcp)
	s.logger.Info("MCP endpoint registered at %s", MCPEndpointPath)
}

func (s *Server) registerHealthEndpoints() {
	s.router.HandleFunc("/health", s.withMethod(http.MethodGet, s.handleHealth))
	s.router.HandleFunc("/ready", s.withMethod(http.MethodGet, s.handleReady))
	if s.metrics != nil {
		s.router.Handle("/metrics", s.withMethod(http.MethodGet, s.metrics.Handler().ServeHTTP))
	}
}

func (s *Server) registerStaticUIHandlers() {
	s.router.HandleFunc("/", s.withMethod(http.MethodGet, s.serveStaticUI))
}
