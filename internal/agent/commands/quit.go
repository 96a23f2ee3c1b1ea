package commands

func init() {
	DefaultRegistry.Register(&QuitHandler{name: "quit"})
	DefaultRegistry.Register(&QuitHandler{name: "exit"})
}

// QuitHandler implements /quit and its alias /exit.
type QuitHandler struct {
	name string
}

func (h *QuitHandler) Entry() Entry {
	return Entry{
		Name:        h.name,
		Description: "Exit the chat",
		Usage:       "/" + h.name,
	}
}

func (h *QuitHandler) Execute(ctx *Context, args []string) Result {
	if ctx.QuitFunc != nil {
		ctx.QuitFunc()
	}
	return Result{
		Success: true,
		Message: "Goodbye!",
		IsInfo:  true,
	}
}
