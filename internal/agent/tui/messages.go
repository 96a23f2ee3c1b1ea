// Package tui provides an interactive terminal chat client for the agent
// server using Bubble Tea.
package tui

import (
	"github.com/moolen/agentdesk/internal/agent/catalog"
	"github.com/moolen/agentdesk/internal/apiserver"
)

// agentsLoadedMsg carries the result of the initial agent listing.
type agentsLoadedMsg struct {
	agents []catalog.Summary
	err    error
}

// replyMsg carries the outcome of one prompt sent to an agent.
type replyMsg struct {
	agent string
	resp  *apiserver.AskResponse
	err   error
}

type entryKind int

const (
	entryUser entryKind = iota
	entryAgent
	entryInfo
	entryError
)

// transcriptEntry is one rendered block of the conversation.
type transcriptEntry struct {
	kind      entryKind
	agent     string
	content   string
	toolCalls []string
}
