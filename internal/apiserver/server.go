package apiserver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/moolen/agentdesk/internal/agent/catalog"
	"github.com/moolen/agentdesk/internal/agent/runner"
	"github.com/moolen/agentdesk/internal/logging"
	"github.com/moolen/agentdesk/internal/metrics"
)

// MCPEndpointPath is where the MCP transport is mounted.
const MCPEndpointPath = "/mcp"

// DefaultMaxRequestBytes limits request bodies when Config leaves it unset.
const DefaultMaxRequestBytes = 1 << 20

// ReadinessChecker reports whether the process is ready for traffic.
type ReadinessChecker interface {
	Ready() bool
}

// AgentSource provides the active agent catalog.
type AgentSource interface {
	Current() *catalog.Catalog
}

// Asker runs agent turns and answers session lookups.
type Asker interface {
	Ask(ctx context.Context, req runner.Request) (*runner.Result, error)
	Session(ctx context.Context, id string) (runner.SessionInfo, error)
}

// Config holds the HTTP server settings.
type Config struct {
	BindAddress string
	Port        int

	// FrontendDir serves static files from disk instead of the embedded UI
	FrontendDir string

	MaxRequestBytes int64

	// WriteTimeout must exceed the turn timeout
	WriteTimeout time.Duration
}

// Dependencies are the services behind the HTTP surface.
type Dependencies struct {
	Agents    AgentSource
	Runner    Asker
	Metrics   *metrics.Metrics
	Readiness ReadinessChecker

	// MCP is mounted at MCPEndpointPath when set
	MCP http.Handler
}

// Server serves the agent API, the frontend and operational endpoints.
type Server struct {
	config    Config
	agents    AgentSource
	runner    Asker
	metrics   *metrics.Metrics
	readiness ReadinessChecker
	mcp       http.Handler
	static    fs.FS

	router  *http.ServeMux
	handler http.Handler
	server  *http.Server
	logger  *logging.Logger

	mu       sync.Mutex
	listener net.Listener
}

// New creates the server and registers all routes.
func New(cfg Config, deps Dependencies) (*Server, error) {
	if deps.Agents == nil || deps.Runner == nil {
		return nil, fmt.Errorf("apiserver: agents and runner are required")
	}
	if cfg.MaxRequestBytes <= 0 {
		cfg.MaxRequestBytes = DefaultMaxRequestBytes
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Minute
	}

	static, err := frontendFS(cfg.FrontendDir)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:    cfg,
		agents:    deps.Agents,
		runner:    deps.Runner,
		metrics:   deps.Metrics,
		readiness: deps.Readiness,
		mcp:       deps.MCP,
		static:    static,
		router:    http.NewServeMux(),
		logger:    logging.GetLogger("api"),
	}

	s.registerHandlers()
	s.handler = s.corsMiddleware(s.metricsMiddleware(s.router))
	s.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddress, fmt.Sprintf("%d", cfg.Port)),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the root handler including middleware.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start implements lifecycle.Component. It binds the port before returning
// so that listen errors fail startup.
func (s *Server) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error: %v", err)
		}
	}()

	s.logger.Info("API server listening on %s", ln.Addr())
	return nil
}

// Stop implements lifecycle.Component. In-flight turns get until ctx ends.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error: %v", err)
		return err
	}
	s.logger.Info("API server stopped")
	return nil
}

// Name implements lifecycle.Component.
func (s *Server) Name() string {
	return "API Server"
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	ready := s.agents.Current() != nil
	if s.readiness != nil {
		ready = ready && s.readiness.Ready()
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, map[string]interface{}{
		"ready": ready,
	})
}
