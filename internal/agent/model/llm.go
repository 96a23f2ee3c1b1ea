// Package model provides the ADK model.LLM implementations used by agents:
// provider adapters for Claude and OpenAI models, a scripted mock, and a
// request rate limiter. Gemini models use ADK's own client.
package model

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/moolen/agentdesk/internal/agent/provider"
)

const (
	roleUser  = "user"
	roleModel = "model"
)

// ProviderLLM implements model.LLM on top of a provider.Provider.
type ProviderLLM struct {
	provider provider.Provider
}

// NewProviderLLM wraps p.
func NewProviderLLM(p provider.Provider) *ProviderLLM {
	return &ProviderLLM{provider: p}
}

// Name returns the model identifier.
func (l *ProviderLLM) Name() string {
	return l.provider.Model()
}

// GenerateContent converts the ADK request, calls the provider and converts
// the reply back. Streaming is not supported; a single response is yielded.
func (l *ProviderLLM) GenerateContent(ctx context.Context, req *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		systemPrompt := extractSystemPrompt(req.Config)
		messages := convertContentsToMessages(req.Contents)
		tools := convertToolsFromADK(req.Config)

		resp, err := l.provider.Chat(ctx, systemPrompt, messages, tools)
		if err != nil {
			yield(nil, fmt.Errorf("%s chat failed: %w", l.provider.Name(), err))
			return
		}
		yield(convertResponseToLLMResponse(resp), nil)
	}
}

func extractSystemPrompt(cfg *genai.GenerateContentConfig) string {
	if cfg == nil || cfg.SystemInstruction == nil {
		return ""
	}

	var parts []string
	for _, part := range cfg.SystemInstruction.Parts {
		if part != nil && part.Text != "" {
			parts = append(parts, part.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// convertContentsToMessages maps genai roles "user" and "model" to provider
// roles. Thought parts are dropped.
func convertContentsToMessages(contents []*genai.Content) []provider.Message {
	var messages []provider.Message

	for _, content := range contents {
		if content == nil {
			continue
		}

		msg := provider.Message{Role: provider.RoleUser}
		if content.Role == roleModel {
			msg.Role = provider.RoleAssistant
		}

		for _, part := range content.Parts {
			if part == nil || part.Thought {
				continue
			}

			if part.Text != "" {
				if msg.Content != "" {
					msg.Content += "\n"
				}
				msg.Content += part.Text
			}

			if part.FunctionCall != nil {
				input := json.RawMessage(`{}`)
				if part.FunctionCall.Args != nil {
					if data, err := json.Marshal(part.FunctionCall.Args); err == nil {
						input = data
					}
				}
				msg.ToolUse = append(msg.ToolUse, provider.ToolUseBlock{
					ID:    part.FunctionCall.ID,
					Name:  part.FunctionCall.Name,
					Input: input,
				})
			}

			if part.FunctionResponse != nil {
				result := ""
				if part.FunctionResponse.Response != nil {
					if data, err := json.Marshal(part.FunctionResponse.Response); err == nil {
						result = string(data)
					}
				}
				_, failed := part.FunctionResponse.Response["error"]
				msg.ToolResult = append(msg.ToolResult, provider.ToolResultBlock{
					ToolUseID: part.FunctionResponse.ID,
					Content:   result,
					IsError:   failed,
				})
			}
		}

		if msg.Content != "" || len(msg.ToolUse) > 0 || len(msg.ToolResult) > 0 {
			messages = append(messages, msg)
		}
	}

	return messages
}

func convertToolsFromADK(cfg *genai.GenerateContentConfig) []provider.ToolDefinition {
	if cfg == nil {
		return nil
	}

	var tools []provider.ToolDefinition
	for _, tool := range cfg.Tools {
		if tool == nil {
			continue
		}
		for _, fn := range tool.FunctionDeclarations {
			if fn == nil {
				continue
			}
			tools = append(tools, provider.ToolDefinition{
				Name:        fn.Name,
				Description: fn.Description,
				InputSchema: convertSchemaToMap(fn.Parameters, fn.ParametersJsonSchema),
			})
		}
	}
	return tools
}

// convertSchemaToMap prefers the raw JSON schema when ADK provides one.
func convertSchemaToMap(schema *genai.Schema, jsonSchema any) map[string]any {
	if jsonSchema != nil {
		if m, ok := jsonSchema.(map[string]any); ok {
			return m
		}
		if data, err := json.Marshal(jsonSchema); err == nil {
			var m map[string]any
			if json.Unmarshal(data, &m) == nil && m != nil {
				return m
			}
		}
	}

	if schema == nil {
		return map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}
	}

	result := map[string]any{"type": schemaTypeToString(schema.Type)}
	if schema.Description != "" {
		result["description"] = schema.Description
	}
	if len(schema.Properties) > 0 {
		props := make(map[string]any, len(schema.Properties))
		for name, prop := range schema.Properties {
			props[name] = convertSchemaToMap(prop, nil)
		}
		result["properties"] = props
	}
	if len(schema.Required) > 0 {
		result["required"] = schema.Required
	}
	if schema.Items != nil {
		result["items"] = convertSchemaToMap(schema.Items, nil)
	}
	if len(schema.Enum) > 0 {
		result["enum"] = schema.Enum
	}
	return result
}

func schemaTypeToString(t genai.Type) string {
	switch t {
	case genai.TypeString:
		return "string"
	case genai.TypeNumber:
		return "number"
	case genai.TypeInteger:
		return "integer"
	case genai.TypeBoolean:
		return "boolean"
	case genai.TypeArray:
		return "array"
	default:
		return "object"
	}
}

func convertResponseToLLMResponse(resp *provider.Response) *model.LLMResponse {
	if resp == nil {
		return &model.LLMResponse{}
	}

	parts := make([]*genai.Part, 0, 1+len(resp.ToolCalls))
	if resp.Content != "" {
		parts = append(parts, &genai.Part{Text: resp.Content})
	}
	for _, call := range resp.ToolCalls {
		var args map[string]any
		if len(call.Input) > 0 {
			_ = json.Unmarshal(call.Input, &args)
		}
		parts = append(parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				ID:   call.ID,
				Name: call.Name,
				Args: args,
			},
		})
	}

	finishReason := genai.FinishReasonStop
	switch resp.StopReason {
	case provider.StopReasonMaxTokens:
		finishReason = genai.FinishReasonMaxTokens
	case provider.StopReasonError:
		finishReason = genai.FinishReasonOther
	}

	// #nosec G115 -- token counts are bounded by provider context limits
	usage := &genai.GenerateContentResponseUsageMetadata{
		PromptTokenCount:     int32(resp.Usage.InputTokens),
		CandidatesTokenCount: int32(resp.Usage.OutputTokens),
		TotalTokenCount:      int32(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}

	return &model.LLMResponse{
		Content:       &genai.Content{Role: roleModel, Parts: parts},
		FinishReason:  finishReason,
		TurnComplete:  true,
		UsageMetadata: usage,
	}
}

var _ model.LLM = (*ProviderLLM)(nil)
