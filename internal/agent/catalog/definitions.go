package catalog

import (
	"fmt"
	"slices"

	"github.com/moolen/agentdesk/internal/agent/openapi"
	"github.com/moolen/agentdesk/internal/agent/tools"
	"github.com/moolen/agentdesk/internal/config"
)

// Built-in agent names.
const (
	DataGeneratorAgentName = "DataGeneratorAgent"
	MultiToolAgentName     = "MultiToolAgent"
)

// DefaultModel is the model of the built-in agents.
const DefaultModel = "gemini-2.0-flash"

// Definition describes an agent before it is built.
type Definition struct {
	Name        string
	Model       string
	Description string
	Instruction string

	// Tools are registry references, see tools.Registry
	Tools []string
}

// Builtins returns the built-in definitions. The data toolset is referenced
// only when withData is set.
func Builtins(withData bool) []Definition {
	dataTools := []string{
		tools.ToolsetPrefix + openapi.PetStoreToolsetName,
		tools.WeatherToolName,
		tools.TimeToolName,
	}
	if withData {
		dataTools = append([]string{tools.ToolsetPrefix + openapi.DataToolsetName}, dataTools...)
	}

	return []Definition{
		{
			Name:        DataGeneratorAgentName,
			Model:       DefaultModel,
			Description: dataGeneratorDescription,
			Instruction: dataGeneratorInstruction,
			Tools:       dataTools,
		},
		{
			Name:        MultiToolAgentName,
			Model:       DefaultModel,
			Description: multiToolDescription,
			Instruction: multiToolInstruction,
			Tools: []string{
				tools.ToolsetPrefix + openapi.PetStoreToolsetName,
				tools.WeatherToolName,
				tools.TimeToolName,
				tools.PortalToolName,
			},
		},
	}
}

// Merge applies agents file entries to base. Entries naming an existing
// definition replace only the fields they set; other entries are appended
// and must carry an instruction. defaultModel, when set, replaces the model
// of every definition the file does not give one.
func Merge(base []Definition, file *config.AgentsFile, defaultModel string) ([]Definition, error) {
	out := make([]Definition, len(base))
	for i, def := range base {
		def.Tools = slices.Clone(def.Tools)
		if defaultModel != "" {
			def.Model = defaultModel
		}
		out[i] = def
	}
	if file == nil {
		return out, nil
	}

	for _, entry := range file.Agents {
		idx := slices.IndexFunc(out, func(d Definition) bool { return d.Name == entry.Name })
		if idx < 0 {
			if entry.Instruction == "" {
				return nil, config.NewConfigError(fmt.Sprintf("agent %s: instruction is required", entry.Name))
			}
			def := Definition{Name: entry.Name, Model: DefaultModel}
			if defaultModel != "" {
				def.Model = defaultModel
			}
			out = append(out, def)
			idx = len(out) - 1
		}

		def := &out[idx]
		if entry.Model != "" {
			def.Model = entry.Model
		}
		if entry.Description != "" {
			def.Description = entry.Description
		}
		if entry.Instruction != "" {
			def.Instruction = entry.Instruction
		}
		if entry.Tools != nil {
			def.Tools = slices.Clone(entry.Tools)
		}
	}
	return out, nil
}
