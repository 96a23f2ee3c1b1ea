package commands

import (
	"fmt"
	"slices"
	"strings"
)

func init() {
	DefaultRegistry.Register(&AgentHandler{})
	DefaultRegistry.Register(&SessionHandler{})
}

// AgentHandler implements the /agent command.
type AgentHandler struct{}

func (h *AgentHandler) Entry() Entry {
	return Entry{
		Name:        "agent",
		Description: "List agents or switch to one (starts a new session)",
		Usage:       "/agent [name]",
	}
}

func (h *AgentHandler) Execute(ctx *Context, args []string) Result {
	if len(args) == 0 {
		var msg strings.Builder
		msg.WriteString("Agents:\n\n")
		for _, name := range ctx.Agents {
			marker := " "
			if name == ctx.Agent {
				marker = "*"
			}
			msg.WriteString(fmt.Sprintf("  %s %s\n", marker, name))
		}
		return Result{Success: true, Message: msg.String(), IsInfo: true}
	}

	name := args[0]
	if len(ctx.Agents) > 0 && !slices.Contains(ctx.Agents, name) {
		return Result{
			Success: false,
			Message: fmt.Sprintf("Unknown agent %q (available: %s)", name, strings.Join(ctx.Agents, ", ")),
		}
	}
	if ctx.SetAgent != nil {
		ctx.SetAgent(name)
	}
	return Result{
		Success: true,
		Message: "Now talking to " + name + ".",
		IsInfo:  true,
	}
}

// SessionHandler implements the /session command.
type SessionHandler struct{}

func (h *SessionHandler) Entry() Entry {
	return Entry{
		Name:        "session",
		Description: "Show the session ID or resume a previous session",
		Usage:       "/session [id]",
	}
}

func (h *SessionHandler) Execute(ctx *Context, args []string) Result {
	if len(args) == 0 {
		if ctx.SessionID == "" {
			return Result{Success: true, Message: "No session yet; it starts with your first message.", IsInfo: true}
		}
		return Result{Success: true, Message: "Session: " + ctx.SessionID, IsInfo: true}
	}

	if ctx.SetSession != nil {
		ctx.SetSession(args[0])
	}
	return Result{
		Success: true,
		Message: "Resuming session " + args[0] + ".",
		IsInfo:  true,
	}
}
