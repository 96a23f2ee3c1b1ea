package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/moolen/agentdesk/internal/agent/commands"
	"github.com/moolen/agentdesk/internal/apiserver"
)

// Model is the Bubble Tea model of the chat client.
type Model struct {
	ctx    context.Context
	client Client

	// Conversation state
	agent      string
	agents     []string
	sessionID  string
	userID     string
	turns      int
	toolCalls  int
	transcript []transcriptEntry
	waiting    bool
	lastError  error

	// UI components
	textArea   textarea.Model
	viewport   viewport.Model
	spinner    spinner.Model
	mdRenderer *glamour.TermRenderer
	menu       *commandMenu
	registry   *commands.Registry

	width    int
	height   int
	ready    bool
	quitting bool
}

// NewModel creates a chat model bound to client.
func NewModel(ctx context.Context, cfg Config) *Model {
	ta := textarea.New()
	ta.Placeholder = "Ask the agent something, or type / for commands..."
	ta.Focus()
	ta.CharLimit = 4000
	ta.SetWidth(80)
	ta.SetHeight(2)
	ta.ShowLineNumbers = false
	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "  "
	})
	ta.FocusedStyle.Prompt = inputPromptStyle
	ta.BlurredStyle.Prompt = inputPromptStyle
	// Enter submits
	ta.KeyMap.InsertNewline.SetKeys("alt+enter")

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	mdRenderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(76),
	)

	return &Model{
		ctx:        ctx,
		client:     cfg.Client,
		agent:      cfg.Agent,
		sessionID:  cfg.SessionID,
		userID:     cfg.UserID,
		textArea:   ta,
		viewport:   vp,
		spinner:    s,
		mdRenderer: mdRenderer,
		menu:       newCommandMenu(commands.DefaultRegistry),
		registry:   commands.DefaultRegistry,
	}
}

// Init loads the agent list.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(tea.WindowSize(), m.loadAgents(), textarea.Blink)
}

func (m *Model) loadAgents() tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		agents, err := client.ListAgents(ctx)
		return agentsLoadedMsg{agents: agents, err: err}
	}
}

// ask sends prompt to the current agent in the current session.
func (m *Model) ask(prompt string) tea.Cmd {
	client, ctx, agent := m.client, m.ctx, m.agent
	req := apiserver.AskRequest{
		Prompt:    prompt,
		SessionID: m.sessionID,
		UserID:    m.userID,
	}
	return func() tea.Msg {
		resp, err := client.Ask(ctx, agent, req)
		return replyMsg{agent: agent, resp: resp, err: err}
	}
}

// commandContext exposes the chat state to slash commands.
func (m *Model) commandContext() *commands.Context {
	return &commands.Context{
		Agent:     m.agent,
		Agents:    m.agents,
		SessionID: m.sessionID,
		Turns:     m.turns,
		ToolCalls: m.toolCalls,
		SetAgent: func(name string) {
			m.agent = name
			m.resetSession()
		},
		SetSession: func(id string) {
			m.sessionID = id
			m.turns = 0
			m.toolCalls = 0
		},
		ResetSession: m.resetSession,
		QuitFunc: func() {
			m.quitting = true
		},
	}
}

func (m *Model) resetSession() {
	m.sessionID = ""
	m.turns = 0
	m.toolCalls = 0
}

func (m *Model) appendEntry(e transcriptEntry) {
	m.transcript = append(m.transcript, e)
	m.updateViewport()
}

// updateViewport re-renders the transcript and scrolls to the bottom.
func (m *Model) updateViewport() {
	var b strings.Builder
	for _, e := range m.transcript {
		b.WriteString(m.renderEntry(e))
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *Model) renderEntry(e transcriptEntry) string {
	var b strings.Builder
	switch e.kind {
	case entryUser:
		b.WriteString(userMessageLabelStyle.Render("You: "))
		width := min(max(m.width-10, 40), 100)
		b.WriteString(userMessageStyle.Render(strings.Join(wrapText(e.content, width), "\n     ")))
		b.WriteString("\n\n")
	case entryAgent:
		b.WriteString(agentLabelStyle.Render("● [" + e.agent + "]"))
		b.WriteString("\n")
		for _, tc := range e.toolCalls {
			b.WriteString("  ")
			b.WriteString(toolCallStyle.Render("✓ " + tc))
			b.WriteString("\n")
		}
		b.WriteString(m.renderMarkdown(e.content))
		b.WriteString("\n")
	case entryInfo:
		b.WriteString(infoStyle.Render(strings.TrimRight(e.content, "\n")))
		b.WriteString("\n\n")
	case entryError:
		b.WriteString(errorStyle.Render("✗ " + e.content))
		b.WriteString("\n\n")
	}
	return b.String()
}

// wrapText wraps text to fit within maxWidth characters.
func wrapText(text string, maxWidth int) []string {
	if maxWidth <= 0 {
		maxWidth = 80
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) <= maxWidth {
			current += " " + word
		} else {
			lines = append(lines, current)
			current = word
		}
	}
	return append(lines, current)
}

func (m *Model) renderMarkdown(content string) string {
	if m.mdRenderer == nil {
		return content + "\n"
	}
	rendered, err := m.mdRenderer.Render(content)
	if err != nil {
		return content + "\n"
	}
	return strings.TrimRight(rendered, "\n") + "\n"
}
