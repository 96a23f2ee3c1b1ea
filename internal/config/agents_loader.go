package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadAgentsFile loads and validates an agents file.
//
// Error cases:
//   - File not found or cannot be read
//   - Invalid YAML syntax
//   - Validation failure (unsupported version, missing names, duplicates)
func LoadAgentsFile(filepath string) (*AgentsFile, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(filepath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load agents file %q: %w", filepath, err)
	}

	var agents AgentsFile
	if err := k.UnmarshalWithConf("", &agents, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("failed to parse agents file %q: %w", filepath, err)
	}

	if err := agents.Validate(); err != nil {
		return nil, fmt.Errorf("agents file validation failed for %q: %w", filepath, err)
	}

	return &agents, nil
}
