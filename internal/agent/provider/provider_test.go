package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatClient struct {
	requests []openai.ChatCompletionRequest
	resp     openai.ChatCompletionResponse
	err      error
}

func (f *fakeChatClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.requests = append(f.requests, req)
	return f.resp, f.err
}

func weatherTool() ToolDefinition {
	return ToolDefinition{
		Name:        "get_weather",
		Description: "Retrieves the current weather report for a city.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"city": map[string]any{"type": "string"},
			},
			"required": []any{"city"},
		},
	}
}

func TestOpenAIProvider_ChatRequest(t *testing.T) {
	client := &fakeChatClient{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message:      openai.ChatCompletionMessage{Content: "It is sunny."},
			FinishReason: openai.FinishReasonStop,
		}},
		Usage: openai.Usage{PromptTokens: 12, CompletionTokens: 4},
	}}
	p := NewOpenAIProviderWithClient(client, Config{Model: "gpt-4o"})

	messages := []Message{
		{Role: RoleUser, Content: "weather in new york?"},
		{Role: RoleAssistant, ToolUse: []ToolUseBlock{{ID: "call_1", Name: "get_weather", Input: json.RawMessage(`{"city":"new york"}`)}}},
		{Role: RoleUser, ToolResult: []ToolResultBlock{{ToolUseID: "call_1", Content: `{"status":"success"}`}}},
	}
	resp, err := p.Chat(context.Background(), "be brief", messages, []ToolDefinition{weatherTool()})
	require.NoError(t, err)

	assert.Equal(t, "It is sunny.", resp.Content)
	assert.Equal(t, StopReasonEndTurn, resp.StopReason)
	assert.Equal(t, Usage{InputTokens: 12, OutputTokens: 4}, resp.Usage)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "gpt-4o", req.Model)
	assert.Equal(t, DefaultMaxTokens, req.MaxTokens)

	require.Len(t, req.Messages, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Equal(t, "be brief", req.Messages[0].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, req.Messages[1].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, req.Messages[2].Role)
	require.Len(t, req.Messages[2].ToolCalls, 1)
	assert.Equal(t, "get_weather", req.Messages[2].ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"city":"new york"}`, req.Messages[2].ToolCalls[0].Function.Arguments)
	assert.Equal(t, openai.ChatMessageRoleTool, req.Messages[3].Role)
	assert.Equal(t, "call_1", req.Messages[3].ToolCallID)

	require.Len(t, req.Tools, 1)
	assert.Equal(t, openai.ToolTypeFunction, req.Tools[0].Type)
	params, ok := req.Tools[0].Function.Parameters.(json.RawMessage)
	require.True(t, ok)
	assert.JSONEq(t, `{"type":"object","properties":{"city":{"type":"string"}},"required":["city"]}`, string(params))
}

func TestOpenAIProvider_ToolCalls(t *testing.T) {
	client := &fakeChatClient{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				ToolCalls: []openai.ToolCall{
					{ID: "a", Type: openai.ToolTypeFunction, Function: openai.FunctionCall{Name: "get_weather", Arguments: `{"city":"paris"}`}},
					{ID: "b", Type: openai.ToolTypeFunction, Function: openai.FunctionCall{Name: "get_current_time", Arguments: `not json`}},
				},
			},
			FinishReason: openai.FinishReasonToolCalls,
		}},
	}}
	p := NewOpenAIProviderWithClient(client, Config{Model: "gpt-4o"})

	resp, err := p.Chat(context.Background(), "", []Message{{Role: RoleUser, Content: "hi"}}, nil)
	require.NoError(t, err)

	assert.Equal(t, StopReasonToolUse, resp.StopReason)
	require.Len(t, resp.ToolCalls, 2)
	assert.Equal(t, "a", resp.ToolCalls[0].ID)
	assert.JSONEq(t, `{"city":"paris"}`, string(resp.ToolCalls[0].Input))
	assert.JSONEq(t, `{"raw":"not json"}`, string(resp.ToolCalls[1].Input))
	assert.Len(t, client.requests[0].Messages, 1, "no system message without a prompt")
}

func TestOpenAIProvider_Error(t *testing.T) {
	client := &fakeChatClient{err: errors.New("boom")}
	p := NewOpenAIProviderWithClient(client, Config{Model: "gpt-4o"})

	_, err := p.Chat(context.Background(), "", []Message{{Role: RoleUser, Content: "hi"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewOpenAIProvider(Config{Model: "gpt-4o"})
	assert.Error(t, err)

	p, err := NewOpenAIProvider(Config{Model: "gpt-4o", APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, "gpt-4o", p.Model())
}

func TestRequiredFields(t *testing.T) {
	assert.Equal(t, []string{"a"}, requiredFields([]string{"a"}))
	assert.Equal(t, []string{"a", "b"}, requiredFields([]any{"a", 3, "b"}))
	assert.Nil(t, requiredFields(nil))
}

func TestAnthropicResponse(t *testing.T) {
	raw := `{
		"id": "msg_1",
		"type": "message",
		"role": "assistant",
		"model": "claude-sonnet-4-5",
		"content": [
			{"type": "text", "text": "Checking "},
			{"type": "text", "text": "now."},
			{"type": "tool_use", "id": "toolu_1", "name": "get_weather", "input": {"city": "new york"}}
		],
		"stop_reason": "tool_use",
		"usage": {"input_tokens": 20, "output_tokens": 7}
	}`
	var msg anthropic.Message
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))

	resp := anthropicResponse(&msg)
	assert.Equal(t, "Checking now.", resp.Content)
	assert.Equal(t, StopReasonToolUse, resp.StopReason)
	assert.Equal(t, Usage{InputTokens: 20, OutputTokens: 7}, resp.Usage)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "toolu_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "get_weather", resp.ToolCalls[0].Name)
	assert.JSONEq(t, `{"city":"new york"}`, string(resp.ToolCalls[0].Input))
}

func TestAnthropicProvider_Chat(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5",
			"content":[{"type":"text","text":"Hello."}],"stop_reason":"end_turn",
			"usage":{"input_tokens":3,"output_tokens":2}}`))
	}))
	defer srv.Close()

	p, err := NewAnthropicProvider(Config{Model: "claude-sonnet-4-5", APIKey: "test", BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := p.Chat(context.Background(), "system text", []Message{{Role: RoleUser, Content: "hi"}}, []ToolDefinition{weatherTool()})
	require.NoError(t, err)
	assert.Equal(t, "Hello.", resp.Content)
	assert.Equal(t, StopReasonEndTurn, resp.StopReason)

	assert.Equal(t, "claude-sonnet-4-5", body["model"])
	tools, ok := body["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)
	tool := tools[0].(map[string]any)
	assert.Equal(t, "get_weather", tool["name"])
	schema := tool["input_schema"].(map[string]any)
	assert.Equal(t, []any{"city"}, schema["required"])
}

func TestNewAnthropicProvider_RequiresModel(t *testing.T) {
	_, err := NewAnthropicProvider(Config{})
	assert.Error(t, err)
}
