package model

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// MockLLM implements model.LLM from a Scenario without calling any API.
// It keeps no conversation state: each reply is derived from the request,
// so a single instance can serve any number of sessions.
type MockLLM struct {
	scenario *Scenario
	delay    time.Duration
	calls    atomic.Int64
}

// NewMockLLM creates a MockLLM from a scenario file path.
func NewMockLLM(scenarioPath string) (*MockLLM, error) {
	scenario, err := LoadScenario(scenarioPath)
	if err != nil {
		return nil, err
	}
	return NewMockLLMFromScenario(scenario), nil
}

// NewMockLLMFromScenario creates a MockLLM from a loaded scenario.
func NewMockLLMFromScenario(scenario *Scenario) *MockLLM {
	return &MockLLM{
		scenario: scenario,
		delay:    time.Duration(scenario.DelayMs) * time.Millisecond,
	}
}

// Name returns the model identifier.
func (m *MockLLM) Name() string {
	return "mock:" + m.scenario.Name
}

// Calls returns how many requests were served.
func (m *MockLLM) Calls() int64 {
	return m.calls.Load()
}

// GenerateContent answers with the matching rule's tool calls, or with its
// follow-up once the request ends in tool results.
func (m *MockLLM) GenerateContent(ctx context.Context, req *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		m.calls.Add(1)

		if m.delay > 0 {
			select {
			case <-ctx.Done():
				yield(nil, ctx.Err())
				return
			case <-time.After(m.delay):
			}
		}

		var contents []*genai.Content
		if req != nil {
			contents = req.Contents
		}
		message := lastUserText(contents)
		results := trailingToolResults(contents)
		rule := m.scenario.Match(message)

		var resp *model.LLMResponse
		switch {
		case len(results) > 0:
			text := summarizeResults(results)
			if rule != nil && rule.FollowUp != "" {
				text = rule.FollowUp
			}
			resp = textResponse(text)
		case rule != nil:
			resp = ruleResponse(rule)
		default:
			resp = textResponse(m.fallback(message))
		}

		yield(resp, nil)
	}
}

func (m *MockLLM) fallback(message string) string {
	if m.scenario.Fallback == "" {
		return "[mock] " + message
	}
	if strings.Contains(m.scenario.Fallback, "%s") {
		return strings.ReplaceAll(m.scenario.Fallback, "%s", message)
	}
	return m.scenario.Fallback
}

func ruleResponse(rule *ScenarioRule) *model.LLMResponse {
	parts := make([]*genai.Part, 0, 1+len(rule.ToolCalls))
	if rule.Text != "" {
		parts = append(parts, &genai.Part{Text: rule.Text})
	}
	for i, tc := range rule.ToolCalls {
		args := tc.Args
		if args == nil {
			args = map[string]any{}
		}
		parts = append(parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				ID:   fmt.Sprintf("mock_call_%d", i),
				Name: tc.Name,
				Args: args,
			},
		})
	}
	return response(parts, len(rule.Text))
}

func textResponse(text string) *model.LLMResponse {
	return response([]*genai.Part{{Text: text}}, len(text))
}

func response(parts []*genai.Part, textLen int) *model.LLMResponse {
	// #nosec G115 -- mock estimates are small
	candidates := int32(textLen / 4)
	return &model.LLMResponse{
		Content:      &genai.Content{Role: roleModel, Parts: parts},
		FinishReason: genai.FinishReasonStop,
		TurnComplete: true,
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     100,
			CandidatesTokenCount: candidates,
			TotalTokenCount:      100 + candidates,
		},
	}
}

// lastUserText returns the text of the most recent user content.
func lastUserText(contents []*genai.Content) string {
	for i := len(contents) - 1; i >= 0; i-- {
		c := contents[i]
		if c == nil || c.Role != roleUser {
			continue
		}
		var text []string
		for _, part := range c.Parts {
			if part != nil && part.Text != "" {
				text = append(text, part.Text)
			}
		}
		if len(text) > 0 {
			return strings.Join(text, "\n")
		}
	}
	return ""
}

// trailingToolResults returns the function responses of the last content,
// which is where ADK places results right after executing tools.
func trailingToolResults(contents []*genai.Content) []*genai.FunctionResponse {
	if len(contents) == 0 || contents[len(contents)-1] == nil {
		return nil
	}
	var out []*genai.FunctionResponse
	for _, part := range contents[len(contents)-1].Parts {
		if part != nil && part.FunctionResponse != nil {
			out = append(out, part.FunctionResponse)
		}
	}
	return out
}

func summarizeResults(results []*genai.FunctionResponse) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("%s: %s", r.Name, describeResult(r.Response)))
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

// describeResult prefers the human-readable fields the mock tools return.
func describeResult(resp map[string]any) string {
	for _, key := range []string{"report", "error_message", "error"} {
		if s, ok := resp[key].(string); ok && s != "" {
			return s
		}
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprint(resp)
	}
	return string(data)
}

var _ model.LLM = (*MockLLM)(nil)
