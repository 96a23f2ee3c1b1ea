// Package commands provides slash command handling for the chat TUI.
package commands

// Command represents a parsed slash command.
type Command struct {
	Name string
	Args []string
}

// Result contains the result of command execution.
type Result struct {
	Success bool
	Message string
	IsInfo  bool // true for info messages (help, stats, etc)
}

// Entry describes a command for the help display.
type Entry struct {
	Name        string // e.g., "help" (without the leading slash)
	Description string // e.g., "Show this help message"
	Usage       string // e.g., "/help" or "/agent <name>"
}

// Context provides handlers access to chat state.
type Context struct {
	Agent     string
	Agents    []string
	SessionID string
	Turns     int
	ToolCalls int

	SetAgent     func(name string)
	SetSession   func(id string)
	ResetSession func()
	QuitFunc     func() // Signal app to quit
}

// Handler is the interface that command handlers must implement.
type Handler interface {
	// Entry returns the command metadata for help display.
	Entry() Entry

	// Execute runs the command with the given context and arguments.
	Execute(ctx *Context, args []string) Result
}
