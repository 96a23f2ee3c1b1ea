package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/moolen/agentdesk/internal/agent/commands"
)

// Update handles incoming messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		m.updateViewport()
		return m, nil

	case agentsLoadedMsg:
		m.handleAgentsLoaded(msg)
		return m, nil

	case replyMsg:
		m.handleReply(msg)
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textArea, cmd = m.textArea.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// resize lays out the viewport between the header and the input area.
func (m *Model) resize() {
	m.textArea.SetWidth(max(m.width-2, 20))
	m.menu.width = m.width

	// header, separators, input and help bar
	chrome := 2 + 1 + m.textArea.Height() + 2
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-chrome, 3)
}

func (m *Model) handleAgentsLoaded(msg agentsLoadedMsg) {
	if msg.err != nil {
		m.lastError = fmt.Errorf("failed to list agents: %w", msg.err)
		return
	}

	m.agents = m.agents[:0]
	for _, a := range msg.agents {
		m.agents = append(m.agents, a.Name)
	}
	if m.agent == "" && len(m.agents) > 0 {
		m.agent = m.agents[0]
	}
	m.appendEntry(transcriptEntry{
		kind:    entryInfo,
		content: fmt.Sprintf("Connected. Agents: %s. Talking to %s.", strings.Join(m.agents, ", "), m.agent),
	})
}

func (m *Model) handleReply(msg replyMsg) {
	m.waiting = false
	if msg.err != nil {
		m.lastError = msg.err
		m.appendEntry(transcriptEntry{kind: entryError, content: msg.err.Error()})
		return
	}

	m.lastError = nil
	m.sessionID = msg.resp.SessionID
	m.turns++
	m.toolCalls += len(msg.resp.ToolCalls)
	m.appendEntry(transcriptEntry{
		kind:      entryAgent,
		agent:     msg.agent,
		content:   msg.resp.Response,
		toolCalls: msg.resp.ToolCalls,
	})
}

// handleKeyMsg handles keyboard input.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "esc":
		if m.menu.IsVisible() {
			m.menu.Hide()
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.menu.IsVisible() {
		switch msg.String() {
		case "up":
			m.menu.Move(-1)
			return m, nil
		case "down":
			m.menu.Move(1)
			return m, nil
		case "tab", "enter":
			if e := m.menu.Selected(); e != nil {
				m.textArea.SetValue("/" + e.Name + " ")
				m.textArea.CursorEnd()
			}
			m.menu.Hide()
			return m, nil
		}
	}

	if msg.String() == "enter" {
		return m.submit()
	}

	var cmd tea.Cmd
	m.textArea, cmd = m.textArea.Update(msg)
	m.syncMenu()
	return m, cmd
}

// syncMenu shows command completions while the first word starts with a slash.
func (m *Model) syncMenu() {
	value := m.textArea.Value()
	if strings.HasPrefix(value, "/") && !strings.ContainsAny(value, " \n") {
		m.menu.Filter(strings.TrimPrefix(value, "/"))
		return
	}
	m.menu.Hide()
}

func (m *Model) submit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textArea.Value())
	if input == "" || m.waiting {
		return m, nil
	}
	m.textArea.Reset()
	m.menu.Hide()

	if cmd := commands.ParseCommand(input); cmd != nil {
		result := m.registry.Execute(m.commandContext(), cmd)
		kind := entryInfo
		if !result.Success {
			kind = entryError
		}
		m.appendEntry(transcriptEntry{kind: kind, content: result.Message})
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil
	}

	if m.agent == "" {
		m.lastError = errors.New("no agent selected, use /agent <name>")
		return m, nil
	}

	m.waiting = true
	m.lastError = nil
	m.appendEntry(transcriptEntry{kind: entryUser, content: input})
	return m, tea.Batch(m.ask(input), m.spinner.Tick)
}
