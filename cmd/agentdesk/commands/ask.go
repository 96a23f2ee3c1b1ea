package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/moolen/agentdesk/internal/agent/runner"
	"github.com/moolen/agentdesk/internal/config"
	"github.com/moolen/agentdesk/internal/lifecycle"
)

var (
	askConfig    = config.Default()
	askSessionID string
	askUserID    string
	askJSON      bool
)

var askCmd = &cobra.Command{
	Use:   "ask <agent_name> <prompt>",
	Short: "Run a single agent turn without starting the server",
	Long: `Build the agent catalog in-process, send one prompt to an agent and print
the reply.

Examples:
  # Ask the tool agent about the weather
  agentdesk ask MultiToolAgent "What is the weather in New York?"

  # Run offline against the scripted mock model
  agentdesk ask --model mock MultiToolAgent "what time is it?"
`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askSessionID, "session", "", "Session ID. A new one is generated when empty.")
	askCmd.Flags().StringVar(&askUserID, "user", runner.DefaultUserID, "User ID the session belongs to")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the full result as JSON")
	bindConfigFlags(askCmd.Flags(), askConfig)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := askConfig.Validate(); err != nil {
		return err
	}

	svc, err := buildServices(askConfig, false)
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

	result, err := svc.runner.Ask(ctx, runner.Request{
		Agent:     args[0],
		SessionID: askSessionID,
		UserID:    askUserID,
		Prompt:    strings.Join(args[1:], " "),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if askJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	_, err = fmt.Fprintln(out, result.Response)
	return err
}
