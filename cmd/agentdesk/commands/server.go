package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/moolen/agentdesk/internal/apiserver"
	"github.com/moolen/agentdesk/internal/config"
	"github.com/moolen/agentdesk/internal/lifecycle"
	"github.com/moolen/agentdesk/internal/logging"
	"github.com/moolen/agentdesk/internal/mcp"
	"github.com/moolen/agentdesk/internal/tracing"
)

var (
	serverConfig    = config.Default()
	shutdownTimeout time.Duration
	mcpEnabled      bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the agentdesk HTTP server",
	Long: `Start the HTTP server. Every agent in the catalog is reachable at
POST /api/<agent_name> with a JSON body {"prompt": "...", "session_id": "..."}.`,
	RunE: runServer,
}

func init() {
	flags := serverCmd.Flags()
	flags.StringVar(&serverConfig.BindAddress, "bind-address", serverConfig.BindAddress, "Interface the API server listens on")
	flags.IntVar(&serverConfig.Port, "port", serverConfig.Port, "Port the API server listens on")
	flags.StringVar(&serverConfig.FrontendDir, "frontend-dir", serverConfig.FrontendDir,
		"Directory with static frontend files. If empty, the built-in page is served.")
	flags.BoolVar(&serverConfig.WatchAgentsFile, "watch-agents-file", serverConfig.WatchAgentsFile,
		"Rebuild the agent catalog when the agents file changes")
	flags.Int64Var(&serverConfig.MaxRequestBytes, "max-request-bytes", serverConfig.MaxRequestBytes,
		"Maximum size of a request body")

	flags.StringVar(&serverConfig.SessionBackend, "session-backend", serverConfig.SessionBackend,
		"Session index backend: memory or redis")
	flags.IntVar(&serverConfig.SessionCapacity, "session-capacity", serverConfig.SessionCapacity,
		"Maximum number of sessions kept in memory")
	flags.DurationVar(&serverConfig.SessionTTL, "session-ttl", serverConfig.SessionTTL,
		"Idle time after which a session is dropped")
	flags.StringVar(&serverConfig.RedisURL, "redis-url", serverConfig.RedisURL,
		"Redis URL for the redis session backend (e.g. redis://localhost:6379/0)")

	flags.BoolVar(&serverConfig.TracingEnabled, "tracing-enabled", false, "Enable OpenTelemetry tracing (default: false)")
	flags.StringVar(&serverConfig.TracingEndpoint, "tracing-endpoint", "", "OTLP gRPC endpoint for traces (e.g., otel-collector:4317)")
	flags.StringVar(&serverConfig.TracingTLSCAPath, "tracing-tls-ca", "", "Path to CA certificate for TLS verification (optional)")
	flags.BoolVar(&serverConfig.TracingTLSInsecure, "tracing-tls-insecure", false, "Skip TLS certificate verification (insecure, use only for testing)")

	flags.BoolVar(&mcpEnabled, "mcp-enabled", true, "Serve the MCP endpoint at "+apiserver.MCPEndpointPath)
	flags.DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "Time allowed for in-flight requests on shutdown")

	bindConfigFlags(flags, serverConfig)
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := serverConfig
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.GetLogger("server")
	logger.Info("Starting agentdesk v%s", Version)
	logger.DebugWithFields("Configuration loaded",
		logging.Field("listen", cfg.ListenAddress()),
		logging.Field("agents_file", cfg.AgentsFile),
		logging.Field("session_backend", cfg.SessionBackend))

	manager := lifecycle.NewManager()
	manager.SetShutdownTimeout(shutdownTimeout)

	tracingProvider, err := tracing.NewProvider(tracing.Config{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.TracingEndpoint,
		TLSCAPath:   cfg.TracingTLSCAPath,
		TLSInsecure: cfg.TracingTLSInsecure,
		Version:     Version,
	})
	if err != nil {
		logger.Warn("Failed to initialize tracing (continuing without tracing): %v", err)
		tracingProvider = nil
	}
	if tracingProvider != nil {
		if err := manager.Register(tracingProvider); err != nil {
			return err
		}
	}

	svc, err := buildServices(cfg, true)
	if err != nil {
		return err
	}
	if err := svc.register(manager); err != nil {
		return err
	}

	var mcpHandler http.Handler
	if mcpEnabled {
		mcpServer, err := mcp.NewServer(mcp.ServerOptions{
			Version: Version,
			Agents:  svc.catalog,
			Runner:  svc.runner,
		})
		if err != nil {
			return err
		}
		mcpHandler = mcpServer.HTTPHandler(apiserver.MCPEndpointPath)
	}

	server, err := apiserver.New(apiserver.Config{
		BindAddress:     cfg.BindAddress,
		Port:            cfg.Port,
		FrontendDir:     cfg.FrontendDir,
		MaxRequestBytes: cfg.MaxRequestBytes,
		WriteTimeout:    cfg.TurnTimeout + 30*time.Second,
	}, apiserver.Dependencies{
		Agents:    svc.catalog,
		Runner:    svc.runner,
		Metrics:   svc.metrics,
		Readiness: manager,
		MCP:       mcpHandler,
	})
	if err != nil {
		return err
	}
	if err := manager.Register(server, svc.catalog); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := manager.Start(ctx); err != nil {
		logger.Error("Failed to start components: %v", err)
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutdown signal received, gracefully shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := manager.Stop(shutdownCtx); err != nil {
		logger.Error("Error during shutdown: %v", err)
		return err
	}

	logger.Info("Shutdown complete")
	return nil
}
