package tui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/moolen/agentdesk/internal/agent/catalog"
	"github.com/moolen/agentdesk/internal/api"
	"github.com/moolen/agentdesk/internal/apiserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	agents   []catalog.Summary
	requests []apiserver.AskRequest
	targets  []string
	err      error
}

func (f *fakeClient) ListAgents(ctx context.Context) ([]catalog.Summary, error) {
	return f.agents, nil
}

func (f *fakeClient) Ask(ctx context.Context, agentName string, req apiserver.AskRequest) (*apiserver.AskResponse, error) {
	f.targets = append(f.targets, agentName)
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	session := req.SessionID
	if session == "" {
		session = "s-1"
	}
	return &apiserver.AskResponse{
		Response:  "It is sunny.",
		SessionID: session,
		ToolCalls: []string{"get_weather"},
	}, nil
}

func newTestModel(t *testing.T, client *fakeClient) *Model {
	t.Helper()
	m := NewModel(context.Background(), Config{Client: client})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m.Update(agentsLoadedMsg{agents: client.agents})
	return m
}

// drain runs cmd and feeds every message it yields back into the model.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			drain(t, m, c)
		}
	case replyMsg, agentsLoadedMsg:
		m.Update(msg)
	}
}

func send(t *testing.T, m *Model, input string) {
	t.Helper()
	m.textArea.SetValue(input)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drain(t, m, cmd)
}

func twoAgents() *fakeClient {
	return &fakeClient{agents: []catalog.Summary{
		{Name: "DataGeneratorAgent"},
		{Name: "MultiToolAgent"},
	}}
}

func TestModel_SelectsFirstAgent(t *testing.T) {
	m := newTestModel(t, twoAgents())
	assert.Equal(t, "DataGeneratorAgent", m.agent)
	assert.Equal(t, []string{"DataGeneratorAgent", "MultiToolAgent"}, m.agents)
}

func TestModel_KeepsConfiguredAgent(t *testing.T) {
	client := twoAgents()
	m := NewModel(context.Background(), Config{Client: client, Agent: "MultiToolAgent"})
	m.Update(agentsLoadedMsg{agents: client.agents})
	assert.Equal(t, "MultiToolAgent", m.agent)
}

func TestModel_SendPromptContinuesSession(t *testing.T) {
	client := twoAgents()
	m := newTestModel(t, client)

	send(t, m, "weather in Paris?")
	send(t, m, "and tomorrow?")

	require.Len(t, client.requests, 2)
	assert.Equal(t, "", client.requests[0].SessionID)
	assert.Equal(t, "s-1", client.requests[1].SessionID)
	assert.Equal(t, "weather in Paris?", client.requests[0].Prompt)
	assert.Equal(t, 2, m.turns)
	assert.Equal(t, 2, m.toolCalls)
	assert.False(t, m.waiting)

	last := m.transcript[len(m.transcript)-1]
	assert.Equal(t, entryAgent, last.kind)
	assert.Equal(t, "It is sunny.", last.content)
	assert.Equal(t, []string{"get_weather"}, last.toolCalls)
}

func TestModel_BlankInputIgnored(t *testing.T) {
	client := twoAgents()
	m := newTestModel(t, client)

	send(t, m, "   ")
	assert.Empty(t, client.requests)
}

func TestModel_ErrorReply(t *testing.T) {
	client := twoAgents()
	client.err = errors.New("Agent run failed: boom")
	m := newTestModel(t, client)

	send(t, m, "hello")

	require.Error(t, m.lastError)
	assert.Equal(t, 0, m.turns)
	last := m.transcript[len(m.transcript)-1]
	assert.Equal(t, entryError, last.kind)
	assert.Contains(t, last.content, "boom")
}

func TestModel_AgentCommandSwitchesAndResets(t *testing.T) {
	client := twoAgents()
	m := newTestModel(t, client)

	send(t, m, "hi")
	require.Equal(t, "s-1", m.sessionID)

	send(t, m, "/agent MultiToolAgent")
	assert.Equal(t, "MultiToolAgent", m.agent)
	assert.Empty(t, m.sessionID)
	assert.Equal(t, 0, m.turns)

	send(t, m, "hi again")
	assert.Equal(t, []string{"DataGeneratorAgent", "MultiToolAgent"}, client.targets)
	assert.Equal(t, "", client.requests[1].SessionID)
}

func TestModel_UnknownCommandShowsError(t *testing.T) {
	m := newTestModel(t, twoAgents())

	send(t, m, "/bogus")
	last := m.transcript[len(m.transcript)-1]
	assert.Equal(t, entryError, last.kind)
	assert.Contains(t, last.content, "Unknown command: /bogus")
}

func TestModel_QuitCommand(t *testing.T) {
	m := newTestModel(t, twoAgents())

	m.textArea.SetValue("/quit")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.quitting)
	assert.Equal(t, "Goodbye!\n", m.View())
}

func TestModel_CommandMenu(t *testing.T) {
	m := newTestModel(t, twoAgents())

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	require.True(t, m.menu.IsVisible())
	assert.Contains(t, m.View(), "/session")

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, m.menu.IsVisible())
	assert.Contains(t, []string{"/session ", "/stats "}, m.textArea.Value())

	m.textArea.SetValue("/s")
	m.syncMenu()
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.menu.IsVisible())
	assert.False(t, m.quitting)
}

func TestModel_View(t *testing.T) {
	m := NewModel(context.Background(), Config{Client: twoAgents()})
	assert.Equal(t, "Initializing...\n", m.View())

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	view := m.View()
	assert.Contains(t, view, "AGENTDESK")
	assert.Contains(t, view, "agent: (none)")
	assert.Contains(t, view, "session: new")
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, []string{""}, wrapText("", 10))
	assert.Equal(t, []string{"one two", "three"}, wrapText("one two three", 8))
}

func TestHTTPClient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/agents", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"agents": []catalog.Summary{{Name: "MultiToolAgent", Tools: []string{"get_weather"}}},
		})
	})
	mux.HandleFunc("POST /api/{agent_name}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("agent_name") != "MultiToolAgent" {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "Agent not found", Code: api.ErrorCodeNotFound})
			return
		}
		var req apiserver.AskRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(apiserver.AskResponse{Response: "echo: " + req.Prompt, SessionID: "abc"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewHTTPClient(srv.URL+"/", 0)
	ctx := context.Background()

	agents, err := client.ListAgents(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "MultiToolAgent", agents[0].Name)

	resp, err := client.Ask(ctx, "MultiToolAgent", apiserver.AskRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", resp.Response)
	assert.Equal(t, "abc", resp.SessionID)

	_, err = client.Ask(ctx, "Missing", apiserver.AskRequest{Prompt: "hi"})
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Agent not found", apiErr.Error())
}

func TestRun_RequiresClient(t *testing.T) {
	require.Error(t, Run(context.Background(), Config{}))
}
