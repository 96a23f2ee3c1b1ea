package commands

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/moolen/agentdesk/internal/agent/runner"
	"github.com/moolen/agentdesk/internal/agent/tui"
)

var (
	chatURL       string
	chatAgent     string
	chatSessionID string
	chatUserID    string
	chatTimeout   time.Duration
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with agents on a running server",
	Long: `Open an interactive terminal chat against a running agentdesk server.

Type a prompt and press enter to send it to the selected agent. Type / to
see the available commands, such as /agent to switch agents or /reset to
start a new session.

Examples:
  # Chat with the first agent the server exposes
  agentdesk chat

  # Chat with the tool agent on a remote server
  agentdesk chat --url http://agents.internal:5000 --agent MultiToolAgent
`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatURL, "url", "http://localhost:5000", "Base URL of the agentdesk server")
	chatCmd.Flags().StringVar(&chatAgent, "agent", "", "Agent to talk to. Defaults to the first agent listed by the server.")
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "Resume an existing session")
	chatCmd.Flags().StringVar(&chatUserID, "user", runner.DefaultUserID, "User ID the session belongs to")
	chatCmd.Flags().DurationVar(&chatTimeout, "timeout", 3*time.Minute, "Timeout for a single request")
}

func runChat(cmd *cobra.Command, args []string) error {
	if !tui.IsTerminal() {
		return errors.New("chat requires an interactive terminal, use 'agentdesk ask' instead")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return tui.Run(ctx, tui.Config{
		Client:    tui.NewHTTPClient(chatURL, chatTimeout),
		Agent:     chatAgent,
		SessionID: chatSessionID,
		UserID:    chatUserID,
	})
}
