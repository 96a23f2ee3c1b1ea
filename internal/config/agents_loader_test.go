package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAgentsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agents.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

const validAgents = `schema_version: v1
openapi_specs:
  - name: users
    path: ./users.yaml
    base_url: http://localhost:8080
agents:
  - name: MultiToolAgent
    model: claude-sonnet-4-5
  - name: UserAgent
    description: Looks up users.
    instruction: Answer questions about users.
    tools: [get_current_time, "openapi:users"]
`

func TestLoadAgentsFile_Valid(t *testing.T) {
	f, err := LoadAgentsFile(writeAgentsFile(t, validAgents))
	require.NoError(t, err)

	assert.Equal(t, "v1", f.SchemaVersion)
	require.Len(t, f.OpenAPISpecs, 1)
	assert.Equal(t, "users", f.OpenAPISpecs[0].Name)
	assert.Equal(t, "yaml", f.OpenAPISpecs[0].SpecType())
	assert.Equal(t, "http://localhost:8080", f.OpenAPISpecs[0].BaseURL)

	require.Len(t, f.Agents, 2)
	assert.Equal(t, "MultiToolAgent", f.Agents[0].Name)
	assert.Equal(t, "claude-sonnet-4-5", f.Agents[0].Model)
	assert.Empty(t, f.Agents[0].Tools)
	assert.Equal(t, []string{"get_current_time", "openapi:users"}, f.Agents[1].Tools)
}

func TestLoadAgentsFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad version", "schema_version: v2\n", "unsupported schema_version"},
		{"invalid yaml", "schema_version: [v1\n", "failed to load"},
		{"missing agent name", "schema_version: v1\nagents:\n  - model: mock\n", "name is required"},
		{"duplicate agent", "schema_version: v1\nagents:\n  - name: A\n  - name: A\n", "duplicate agent name"},
		{"slash in name", "schema_version: v1\nagents:\n  - name: a/b\n", "must not contain"},
		{"spec without path", "schema_version: v1\nopenapi_specs:\n  - name: x\n", "path is required"},
		{"spec bad type", "schema_version: v1\nopenapi_specs:\n  - name: x\n    path: x.txt\n    type: xml\n", "unsupported type"},
		{"duplicate spec", "schema_version: v1\nopenapi_specs:\n  - name: x\n    path: a.json\n  - name: x\n    path: b.json\n", "duplicate spec name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadAgentsFile(writeAgentsFile(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadAgentsFile_Missing(t *testing.T) {
	_, err := LoadAgentsFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load agents file")
}

func TestSpecType(t *testing.T) {
	assert.Equal(t, "json", OpenAPISpec{Path: "a.json"}.SpecType())
	assert.Equal(t, "yaml", OpenAPISpec{Path: "a.YML"}.SpecType())
	assert.Equal(t, "yaml", OpenAPISpec{Path: "a.json", Type: "yml"}.SpecType())
	assert.Equal(t, "json", OpenAPISpec{Path: "a", Type: "JSON"}.SpecType())
}
