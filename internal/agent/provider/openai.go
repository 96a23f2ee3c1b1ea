package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// ChatClient is the part of the go-openai client the provider uses.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIProvider implements Provider using the Chat Completions API.
type OpenAIProvider struct {
	client ChatClient
	config Config
}

// NewOpenAIProvider creates a provider. Without Config.APIKey the key is read
// from OPENAI_API_KEY; Config.BaseURL (or OPENAI_BASE_URL) selects a
// compatible endpoint.
func NewOpenAIProvider(cfg Config) (*OpenAIProvider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai: model is required")
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai: OPENAI_API_KEY is not set")
	}

	clientCfg := openai.DefaultConfig(apiKey)
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	return NewOpenAIProviderWithClient(openai.NewClientWithConfig(clientCfg), cfg), nil
}

// NewOpenAIProviderWithClient wraps an existing client.
func NewOpenAIProviderWithClient(client ChatClient, cfg Config) *OpenAIProvider {
	return &OpenAIProvider{client: client, config: cfg}
}

// Chat implements Provider.Chat for OpenAI.
func (p *OpenAIProvider) Chat(ctx context.Context, systemPrompt string, messages []Message, tools []ToolDefinition) (*Response, error) {
	req := openai.ChatCompletionRequest{
		Model:       p.config.Model,
		MaxTokens:   p.config.maxTokens(),
		Temperature: float32(p.config.Temperature),
		Messages:    openAIMessages(systemPrompt, messages),
	}

	for _, tool := range tools {
		params, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("marshal tool %s schema: %w", tool.Name, err)
		}
		req.Tools = append(req.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  json.RawMessage(params),
			},
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	return openAIResponse(resp), nil
}

// Name implements Provider.Name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Model implements Provider.Model.
func (p *OpenAIProvider) Model() string {
	return p.config.Model
}

// openAIMessages maps tool results to "tool" role messages, one per result.
func openAIMessages(systemPrompt string, messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}

	for _, msg := range messages {
		for _, result := range msg.ToolResult {
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    result.Content,
				ToolCallID: result.ToolUseID,
			})
		}
		if len(msg.ToolResult) > 0 && msg.Content == "" {
			continue
		}

		m := openai.ChatCompletionMessage{Content: msg.Content}
		if msg.Role == RoleAssistant {
			m.Role = openai.ChatMessageRoleAssistant
			for _, use := range msg.ToolUse {
				m.ToolCalls = append(m.ToolCalls, openai.ToolCall{
					ID:   use.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      use.Name,
						Arguments: string(use.Input),
					},
				})
			}
		} else {
			m.Role = openai.ChatMessageRoleUser
		}
		out = append(out, m)
	}
	return out
}

func openAIResponse(resp openai.ChatCompletionResponse) *Response {
	response := &Response{
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
		StopReason: StopReasonEndTurn,
	}
	if len(resp.Choices) == 0 {
		return response
	}

	choice := resp.Choices[0]
	response.Content = choice.Message.Content
	for _, call := range choice.Message.ToolCalls {
		input := json.RawMessage(call.Function.Arguments)
		if !json.Valid(input) {
			raw, _ := json.Marshal(map[string]string{"raw": call.Function.Arguments})
			input = raw
		}
		response.ToolCalls = append(response.ToolCalls, ToolUseBlock{
			ID:    call.ID,
			Name:  call.Function.Name,
			Input: input,
		})
	}

	switch choice.FinishReason {
	case openai.FinishReasonToolCalls, openai.FinishReasonFunctionCall:
		response.StopReason = StopReasonToolUse
	case openai.FinishReasonLength:
		response.StopReason = StopReasonMaxTokens
	}
	return response
}
