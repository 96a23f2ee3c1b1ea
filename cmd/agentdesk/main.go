package main

import (
	"os"

	"github.com/moolen/agentdesk/cmd/agentdesk/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
