package config

import (
	"fmt"
	"strings"
)

// AgentsFile is the YAML document that overrides and extends the built-in agents.
//
//	schema_version: v1
//	openapi_specs:
//	  - name: users
//	    path: ./specs/users.yaml
//	    base_url: http://localhost:8080
//	agents:
//	  - name: MultiToolAgent
//	    model: claude-sonnet-4-5
//	  - name: UserAgent
//	    description: Looks up users.
//	    instruction: Answer questions about users.
//	    tools: [get_current_time, openapi:users]
//
// Entries whose name matches a built-in agent replace only the fields they set.
type AgentsFile struct {
	SchemaVersion string        `yaml:"schema_version"`
	OpenAPISpecs  []OpenAPISpec `yaml:"openapi_specs"`
	Agents        []AgentConfig `yaml:"agents"`
}

// OpenAPISpec registers an OpenAPI document as toolset "openapi:<name>".
type OpenAPISpec struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
	// Type is "json" or "yaml"; inferred from the file extension when empty
	Type    string `yaml:"type"`
	BaseURL string `yaml:"base_url"`
}

// AgentConfig describes one agent. Empty fields inherit the built-in definition.
type AgentConfig struct {
	Name        string   `yaml:"name"`
	Model       string   `yaml:"model"`
	Description string   `yaml:"description"`
	Instruction string   `yaml:"instruction"`
	Tools       []string `yaml:"tools"`
}

// Validate checks the document structure. Tool names are resolved later by the catalog.
func (f *AgentsFile) Validate() error {
	if f.SchemaVersion != "v1" {
		return NewConfigError(fmt.Sprintf(
			"unsupported schema_version: %q (expected \"v1\")",
			f.SchemaVersion,
		))
	}

	seenSpecs := make(map[string]bool)
	for i, spec := range f.OpenAPISpecs {
		if spec.Name == "" {
			return NewConfigError(fmt.Sprintf("openapi_specs[%d]: name is required", i))
		}
		if spec.Path == "" {
			return NewConfigError(fmt.Sprintf("openapi_specs[%d] (%s): path is required", i, spec.Name))
		}
		switch strings.ToLower(spec.Type) {
		case "", "json", "yaml", "yml":
		default:
			return NewConfigError(fmt.Sprintf("openapi_specs[%d] (%s): unsupported type %q", i, spec.Name, spec.Type))
		}
		if seenSpecs[spec.Name] {
			return NewConfigError(fmt.Sprintf("openapi_specs[%d]: duplicate spec name %q", i, spec.Name))
		}
		seenSpecs[spec.Name] = true
	}

	seenAgents := make(map[string]bool)
	for i, agent := range f.Agents {
		if agent.Name == "" {
			return NewConfigError(fmt.Sprintf("agents[%d]: name is required", i))
		}
		if strings.ContainsAny(agent.Name, "/ ") {
			return NewConfigError(fmt.Sprintf("agents[%d]: name %q must not contain spaces or slashes", i, agent.Name))
		}
		if seenAgents[agent.Name] {
			return NewConfigError(fmt.Sprintf("agents[%d]: duplicate agent name %q", i, agent.Name))
		}
		seenAgents[agent.Name] = true
	}

	return nil
}

// SpecType returns the document type, falling back to the file extension.
func (s OpenAPISpec) SpecType() string {
	switch t := strings.ToLower(s.Type); t {
	case "yml":
		return "yaml"
	case "":
		lower := strings.ToLower(s.Path)
		if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
			return "yaml"
		}
		return "json"
	default:
		return t
	}
}
