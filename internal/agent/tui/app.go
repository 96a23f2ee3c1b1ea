package tui

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// Config contains configuration for the chat client.
type Config struct {
	Client    Client
	Agent     string
	SessionID string
	UserID    string
}

// Run starts the chat and blocks until the user quits or ctx is done.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Client == nil {
		return errors.New("tui: client is required")
	}

	program := tea.NewProgram(
		NewModel(ctx, cfg),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// IsTerminal returns true if stdout is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
