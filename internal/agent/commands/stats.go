package commands

import (
	"fmt"
	"strings"
)

func init() {
	DefaultRegistry.Register(&StatsHandler{})
}

// StatsHandler implements the /stats command.
type StatsHandler struct{}

func (h *StatsHandler) Entry() Entry {
	return Entry{
		Name:        "stats",
		Description: "Show session statistics",
		Usage:       "/stats",
	}
}

func (h *StatsHandler) Execute(ctx *Context, args []string) Result {
	session := ctx.SessionID
	if session == "" {
		session = "(new)"
	}

	var msg strings.Builder
	msg.WriteString("Session Statistics:\n\n")
	msg.WriteString(fmt.Sprintf("  Agent:        %s\n", ctx.Agent))
	msg.WriteString(fmt.Sprintf("  Session ID:   %s\n", session))
	msg.WriteString(fmt.Sprintf("  Turns:        %d\n", ctx.Turns))
	msg.WriteString(fmt.Sprintf("  Tool calls:   %d\n", ctx.ToolCalls))

	return Result{
		Success: true,
		Message: msg.String(),
		IsInfo:  true,
	}
}
