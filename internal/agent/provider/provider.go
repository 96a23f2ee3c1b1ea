// Package provider implements chat providers behind a single message format.
// The model package adapts them to ADK's model.LLM.
package provider

import (
	"context"
	"encoding/json"
)

// Message represents a conversation message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// ToolUse is set when the assistant calls tools
	ToolUse []ToolUseBlock `json:"tool_use,omitempty"`

	// ToolResult carries tool results, one per call
	ToolResult []ToolResultBlock `json:"tool_result,omitempty"`
}

// Role represents the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ToolUseBlock represents a tool call request from the model.
type ToolUseBlock struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResultBlock represents the result of a tool execution.
type ToolResultBlock struct {
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
	IsError   bool   `json:"is_error,omitempty"`
}

// ToolDefinition defines a tool that can be called by the model.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Response represents the model's response.
type Response struct {
	// Content is the text of the response, empty when only tools are called
	Content string

	ToolCalls  []ToolUseBlock
	StopReason StopReason
	Usage      Usage
}

// StopReason indicates why the model stopped generating.
type StopReason string

const (
	StopReasonEndTurn   StopReason = "end_turn"
	StopReasonToolUse   StopReason = "tool_use"
	StopReasonMaxTokens StopReason = "max_tokens"
	StopReasonError     StopReason = "error"
)

// Usage contains token usage information.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Provider sends a conversation to a model and returns its reply.
type Provider interface {
	Chat(ctx context.Context, systemPrompt string, messages []Message, tools []ToolDefinition) (*Response, error)

	// Name is the provider name, e.g. "anthropic"
	Name() string

	// Model is the model identifier in use
	Model() string
}

// Config contains common configuration for providers.
type Config struct {
	// Model is the model identifier (e.g. "claude-sonnet-4-5", "gpt-4o")
	Model string

	// APIKey overrides the provider's environment variable
	APIKey string

	// BaseURL points the client at a compatible endpoint
	BaseURL string

	// MaxTokens is the maximum number of tokens to generate
	MaxTokens int

	// Temperature controls randomness
	Temperature float64
}

// DefaultMaxTokens is used when Config.MaxTokens is zero.
const DefaultMaxTokens = 4096

func (c Config) maxTokens() int {
	if c.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return c.MaxTokens
}
