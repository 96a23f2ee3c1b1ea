package commands

import (
	"strings"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input    string
		wantName string
		wantArgs []string
		wantNil  bool
	}{
		{input: "/help", wantName: "help"},
		{input: "/Agent MultiToolAgent", wantName: "agent", wantArgs: []string{"MultiToolAgent"}},
		{input: "/session  abc-123 ", wantName: "session", wantArgs: []string{"abc-123"}},
		{input: "hello", wantNil: true},
		{input: "", wantNil: true},
		{input: "/", wantNil: true},
		{input: "  /help", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd := ParseCommand(tt.input)
			if tt.wantNil {
				if cmd != nil {
					t.Fatalf("expected nil, got %+v", cmd)
				}
				return
			}
			if cmd == nil {
				t.Fatal("expected command, got nil")
			}
			if cmd.Name != tt.wantName {
				t.Errorf("name = %q, want %q", cmd.Name, tt.wantName)
			}
			if strings.Join(cmd.Args, " ") != strings.Join(tt.wantArgs, " ") {
				t.Errorf("args = %v, want %v", cmd.Args, tt.wantArgs)
			}
		})
	}
}

func TestRegistry_EntriesSorted(t *testing.T) {
	entries := DefaultRegistry.AllEntries()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	want := "agent exit help quit reset session stats"
	if got := strings.Join(names, " "); got != want {
		t.Errorf("entries = %q, want %q", got, want)
	}
}

func TestRegistry_FuzzyMatch(t *testing.T) {
	if got := DefaultRegistry.FuzzyMatch(""); len(got) != len(DefaultRegistry.AllEntries()) {
		t.Errorf("empty query returned %d entries", len(got))
	}

	got := DefaultRegistry.FuzzyMatch("s")
	if len(got) < 2 || got[0].Name != "stats" || got[1].Name != "session" {
		t.Errorf("prefix matches should come first, shortest first: %+v", got)
	}

	if got := DefaultRegistry.FuzzyMatch("rst"); len(got) == 0 || got[0].Name != "reset" {
		t.Errorf("subsequence match failed: %+v", got)
	}

	if got := DefaultRegistry.FuzzyMatch("zzz"); len(got) != 0 {
		t.Errorf("expected no matches, got %+v", got)
	}
}

func TestRegistry_Execute_Help(t *testing.T) {
	result := DefaultRegistry.Execute(&Context{}, &Command{Name: "help"})
	if !result.Success || !result.IsInfo {
		t.Fatalf("unexpected help result: %+v", result)
	}
	if !strings.Contains(result.Message, "/agent [name]") {
		t.Errorf("help should list usages: %s", result.Message)
	}
}

func TestRegistry_Execute_UnknownSuggestsClosest(t *testing.T) {
	result := DefaultRegistry.Execute(&Context{}, &Command{Name: "rset"})
	if result.Success {
		t.Fatal("expected failure for unknown command")
	}
	if !strings.Contains(result.Message, "did you mean /reset?") {
		t.Errorf("message = %q, want suggestion for /reset", result.Message)
	}
}

func TestRegistry_Execute_Stats(t *testing.T) {
	ctx := &Context{
		Agent:     "MultiToolAgent",
		SessionID: "test-session",
		Turns:     3,
		ToolCalls: 2,
	}
	result := DefaultRegistry.Execute(ctx, &Command{Name: "stats"})
	if !result.Success {
		t.Errorf("stats command failed: %s", result.Message)
	}
	for _, want := range []string{"MultiToolAgent", "test-session", "Turns:        3"} {
		if !strings.Contains(result.Message, want) {
			t.Errorf("stats message missing %q: %s", want, result.Message)
		}
	}
}

func TestRegistry_Execute_Quit(t *testing.T) {
	for _, name := range []string{"quit", "exit"} {
		quit := false
		ctx := &Context{QuitFunc: func() { quit = true }}
		result := DefaultRegistry.Execute(ctx, &Command{Name: name})
		if !result.Success || !quit {
			t.Errorf("/%s did not quit", name)
		}
	}
}

func TestRegistry_Execute_Reset(t *testing.T) {
	reset := false
	ctx := &Context{ResetSession: func() { reset = true }}
	result := DefaultRegistry.Execute(ctx, &Command{Name: "reset"})
	if !result.Success || !reset {
		t.Error("reset callback not invoked")
	}
}

func TestRegistry_Execute_Agent(t *testing.T) {
	var selected string
	ctx := &Context{
		Agent:    "DataGeneratorAgent",
		Agents:   []string{"DataGeneratorAgent", "MultiToolAgent"},
		SetAgent: func(name string) { selected = name },
	}

	result := DefaultRegistry.Execute(ctx, &Command{Name: "agent"})
	if !strings.Contains(result.Message, "* DataGeneratorAgent") {
		t.Errorf("listing should mark the current agent: %s", result.Message)
	}

	result = DefaultRegistry.Execute(ctx, &Command{Name: "agent", Args: []string{"MultiToolAgent"}})
	if !result.Success || selected != "MultiToolAgent" {
		t.Errorf("switch failed: %+v, selected %q", result, selected)
	}

	selected = ""
	result = DefaultRegistry.Execute(ctx, &Command{Name: "agent", Args: []string{"Nope"}})
	if result.Success || selected != "" {
		t.Errorf("expected unknown agent to be rejected: %+v", result)
	}
}

func TestRegistry_Execute_Session(t *testing.T) {
	var resumed string
	ctx := &Context{SetSession: func(id string) { resumed = id }}

	result := DefaultRegistry.Execute(ctx, &Command{Name: "session"})
	if !strings.Contains(result.Message, "No session yet") {
		t.Errorf("unexpected message: %s", result.Message)
	}

	DefaultRegistry.Execute(ctx, &Command{Name: "session", Args: []string{"abc"}})
	if resumed != "abc" {
		t.Errorf("resumed = %q, want abc", resumed)
	}
}
