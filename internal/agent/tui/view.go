package tui

import (
	"fmt"
	"strings"
)

// View renders the entire TUI.
func (m *Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}
	if !m.ready {
		return "Initializing...\n"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderSeparator())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.lastError != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.lastError)))
		b.WriteString("\n")
	}

	b.WriteString(m.renderSeparator())
	b.WriteString("\n")
	if m.menu.IsVisible() {
		b.WriteString(m.menu.View())
		b.WriteString("\n")
	}
	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

func (m *Model) renderHeader() string {
	agent := m.agent
	if agent == "" {
		agent = "(none)"
	}
	session := m.sessionID
	if session == "" {
		session = "new"
	}
	return titleStyle.Render("AGENTDESK") + "  " +
		statusStyle.Render(fmt.Sprintf("agent: %s • session: %s • turns: %d", agent, session, m.turns))
}

func (m *Model) renderSeparator() string {
	return separatorStyle.Render(strings.Repeat("─", max(m.width-2, 1)))
}

func (m *Model) renderInput() string {
	if m.waiting {
		return m.spinner.View() + " " + waitingStyle.Render("Waiting for "+m.agent+"... (ctrl+c to quit)")
	}
	return m.textArea.View()
}

func (m *Model) renderHelp() string {
	keys := []struct {
		key  string
		desc string
	}{
		{"enter", "send"},
		{"alt+enter", "newline"},
		{"/", "commands"},
		{"pgup/pgdn", "scroll"},
		{"ctrl+c", "quit"},
	}

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", helpKeyStyle.Render(k.key), k.desc))
	}
	return helpStyle.Render(strings.Join(parts, " • "))
}
