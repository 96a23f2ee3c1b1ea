package model

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines the replies of a MockLLM, loaded from YAML.
type Scenario struct {
	// Name is the scenario identifier.
	Name string `yaml:"name"`

	// Description is a human-readable description of the scenario.
	Description string `yaml:"description,omitempty"`

	// DelayMs is slept before every reply.
	DelayMs int `yaml:"delay_ms,omitempty"`

	// Rules are matched in order against the latest user message.
	Rules []ScenarioRule `yaml:"rules"`

	// Fallback is the reply when no rule matches. "%s" is replaced with the
	// user message.
	Fallback string `yaml:"fallback,omitempty"`
}

// ScenarioRule maps a user message to a reply.
type ScenarioRule struct {
	// Trigger selects the rule:
	// - "*" matches every message
	// - "contains:text" matches when the message contains text
	// - anything else is a case-insensitive substring match
	Trigger string `yaml:"trigger"`

	// Text is the reply, or the preamble sent with ToolCalls.
	Text string `yaml:"text,omitempty"`

	// ToolCalls are issued before the final reply.
	ToolCalls []MockToolCall `yaml:"tool_calls,omitempty"`

	// FollowUp is the reply once tool results arrive. When empty the tool
	// results are summarized.
	FollowUp string `yaml:"follow_up,omitempty"`
}

// MockToolCall defines a tool call the mock LLM will make.
type MockToolCall struct {
	Name string         `yaml:"name"`
	Args map[string]any `yaml:"args"`
}

// DefaultScenario is used by the "mock" model identifier.
func DefaultScenario() *Scenario {
	return &Scenario{
		Name:        "default",
		Description: "Answers weather and time questions for New York with the mock tools",
		Rules: []ScenarioRule{
			{
				Trigger:   "weather",
				ToolCalls: []MockToolCall{{Name: "get_weather", Args: map[string]any{"city": "New York"}}},
			},
			{
				Trigger:   "time",
				ToolCalls: []MockToolCall{{Name: "get_current_time", Args: map[string]any{"city": "New York"}}},
			},
			{
				Trigger:   "portal",
				ToolCalls: []MockToolCall{{Name: "inspect_developer_portal", Args: map[string]any{"query": "overview"}}},
			},
		},
		Fallback: "You said: %s",
	}
}

// LoadScenario loads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	// #nosec G304 -- scenario path is operator configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// Validate checks that the scenario is valid.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if s.DelayMs < 0 {
		return fmt.Errorf("delay_ms must not be negative")
	}

	for i, rule := range s.Rules {
		if rule.Trigger == "" {
			return fmt.Errorf("rules[%d]: trigger is required", i)
		}
		if rule.Text == "" && len(rule.ToolCalls) == 0 {
			return fmt.Errorf("rules[%d]: must have either text or tool_calls", i)
		}
		for j, tc := range rule.ToolCalls {
			if tc.Name == "" {
				return fmt.Errorf("rules[%d].tool_calls[%d]: name is required", i, j)
			}
		}
	}
	return nil
}

// Match returns the first rule whose trigger matches message, or nil.
func (s *Scenario) Match(message string) *ScenarioRule {
	for i := range s.Rules {
		if matchesTrigger(s.Rules[i].Trigger, message) {
			return &s.Rules[i]
		}
	}
	return nil
}

func matchesTrigger(trigger, content string) bool {
	if trigger == "*" {
		return true
	}
	if pattern, ok := strings.CutPrefix(trigger, "contains:"); ok {
		return strings.Contains(content, pattern)
	}
	return strings.Contains(strings.ToLower(content), strings.ToLower(trigger))
}
