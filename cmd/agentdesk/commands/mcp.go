package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/moolen/agentdesk/internal/config"
	"github.com/moolen/agentdesk/internal/lifecycle"
	"github.com/moolen/agentdesk/internal/logging"
	"github.com/moolen/agentdesk/internal/mcp"
)

var mcpConfig = config.Default()

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the agents over MCP on stdin/stdout",
	Long: `Run the agent catalog in-process and expose it to an MCP client over
stdio. Logs go to stderr so they do not corrupt the protocol stream.`,
	RunE: runMCP,
}

func init() {
	bindConfigFlags(mcpCmd.Flags(), mcpConfig)
}

func runMCP(cmd *cobra.Command, args []string) error {
	if err := mcpConfig.Validate(); err != nil {
		return err
	}
	logging.SetOutput(os.Stderr, os.Stderr)

	svc, err := buildServices(mcpConfig, false)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := lifecycle.NewManager()
	if err := svc.register(manager); err != nil {
		return err
	}
	if err := manager.Start(ctx); err != nil {
		return err
	}
	defer func() {
		_ = manager.Stop(context.Background())
	}()

	server, err := mcp.NewServer(mcp.ServerOptions{
		Version: Version,
		Agents:  svc.catalog,
		Runner:  svc.runner,
	})
	if err != nil {
		return err
	}
	return server.ServeStdio()
}
