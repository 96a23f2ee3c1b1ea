package commands

func init() {
	DefaultRegistry.Register(&ResetHandler{})
}

// ResetHandler implements the /reset command.
type ResetHandler struct{}

func (h *ResetHandler) Entry() Entry {
	return Entry{
		Name:        "reset",
		Description: "Start a new session with the current agent",
		Usage:       "/reset",
	}
}

func (h *ResetHandler) Execute(ctx *Context, args []string) Result {
	if ctx.ResetSession != nil {
		ctx.ResetSession()
	}
	return Result{
		Success: true,
		Message: "Started a new session.",
		IsInfo:  true,
	}
}
