// Package catalog builds ADK agents from their definitions and keeps the
// active set current as the agents file changes.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"

	"github.com/moolen/agentdesk/internal/agent/openapi"
	"github.com/moolen/agentdesk/internal/agent/tools"
	"github.com/moolen/agentdesk/internal/config"
)

// ModelResolver returns the model for an identifier.
type ModelResolver interface {
	Get(ctx context.Context, identifier string) (model.LLM, error)
}

// Options configures catalog builds.
type Options struct {
	Models         ModelResolver
	SessionService session.Service

	// DefaultModel replaces the built-in model identifier when set
	DefaultModel string

	// DataSpecFile is the OpenAPI document of the data toolset, optional
	DataSpecFile string

	// Clock drives get_current_time, time.Now when nil
	Clock tools.Clock

	// ToolOptions apply to every OpenAPI toolset
	ToolOptions openapi.Options
}

// Agent is a built agent and its runner.
type Agent struct {
	Name        string
	Model       string
	Description string
	Instruction string
	ToolRefs    []string
	ToolNames   []string

	Agent  agent.Agent
	Runner *runner.Runner
}

// Summary is the public description of an agent.
type Summary struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Model       string   `json:"model"`
	Tools       []string `json:"tools"`
}

// Catalog is an immutable set of built agents.
type Catalog struct {
	agents map[string]*Agent
	names  []string
}

// Build creates every agent the built-ins and file define. file may be nil.
func Build(ctx context.Context, opts Options, file *config.AgentsFile) (*Catalog, error) {
	if opts.Models == nil {
		return nil, fmt.Errorf("catalog: model resolver is required")
	}
	if opts.SessionService == nil {
		return nil, fmt.Errorf("catalog: session service is required")
	}

	registry, err := buildRegistry(ctx, opts, file)
	if err != nil {
		return nil, err
	}

	defs, err := Merge(Builtins(opts.DataSpecFile != ""), file, opts.DefaultModel)
	if err != nil {
		return nil, err
	}

	c := &Catalog{agents: make(map[string]*Agent, len(defs))}
	for _, def := range defs {
		a, err := buildAgent(ctx, opts, registry, def)
		if err != nil {
			return nil, err
		}
		c.agents[def.Name] = a
		c.names = append(c.names, def.Name)
	}
	sort.Strings(c.names)
	return c, nil
}

func buildRegistry(ctx context.Context, opts Options, file *config.AgentsFile) (*tools.Registry, error) {
	registry, err := tools.NewBuiltinRegistry(opts.Clock)
	if err != nil {
		return nil, err
	}

	petstore, err := openapi.LoadPetStore(opts.ToolOptions)
	if err != nil {
		return nil, err
	}
	toolsets := []*openapi.Toolset{petstore}

	var sources []openapi.Source
	if opts.DataSpecFile != "" {
		spec := config.OpenAPISpec{Path: opts.DataSpecFile}
		sources = append(sources, openapi.Source{
			Name: openapi.DataToolsetName,
			Path: opts.DataSpecFile,
			Type: spec.SpecType(),
		})
	}
	if file != nil {
		for _, spec := range file.OpenAPISpecs {
			sources = append(sources, openapi.Source{
				Name:    spec.Name,
				Path:    spec.Path,
				Type:    spec.SpecType(),
				BaseURL: spec.BaseURL,
			})
		}
	}
	loaded, err := openapi.LoadFiles(ctx, sources, opts.ToolOptions)
	if err != nil {
		return nil, err
	}
	toolsets = append(toolsets, loaded...)

	for _, ts := range toolsets {
		list, err := ts.Tools()
		if err != nil {
			return nil, fmt.Errorf("toolset %s: %w", ts.Name(), err)
		}
		if err := registry.RegisterToolset(ts.Name(), list); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func buildAgent(ctx context.Context, opts Options, registry *tools.Registry, def Definition) (*Agent, error) {
	for _, ref := range def.Tools {
		if !registry.Has(ref) {
			return nil, config.NewConfigError(fmt.Sprintf(
				"agent %s: unknown tool %q (available: %s)",
				def.Name, ref, strings.Join(registry.References(), ", ")))
		}
	}
	resolved, err := registry.Resolve(def.Tools)
	if err != nil {
		return nil, config.NewConfigError(fmt.Sprintf("agent %s: %v", def.Name, err))
	}
	llm, err := opts.Models.Get(ctx, def.Model)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", def.Name, err)
	}

	a, err := llmagent.New(llmagent.Config{
		Name:        def.Name,
		Description: def.Description,
		Model:       llm,
		Instruction: def.Instruction,
		Tools:       resolved,
	})
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", def.Name, err)
	}

	r, err := runner.New(runner.Config{
		AppName:        def.Name,
		Agent:          a,
		SessionService: opts.SessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("agent %s: runner: %w", def.Name, err)
	}

	names := make([]string, 0, len(resolved))
	for _, t := range resolved {
		names = append(names, t.Name())
	}

	return &Agent{
		Name:        def.Name,
		Model:       def.Model,
		Description: def.Description,
		Instruction: def.Instruction,
		ToolRefs:    def.Tools,
		ToolNames:   names,
		Agent:       a,
		Runner:      r,
	}, nil
}

// Get looks up an agent by exact name.
func (c *Catalog) Get(name string) (*Agent, bool) {
	a, ok := c.agents[name]
	return a, ok
}

// Names returns the agent names, sorted.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// List describes every agent, sorted by name.
func (c *Catalog) List() []Summary {
	out := make([]Summary, 0, len(c.names))
	for _, name := range c.names {
		a := c.agents[name]
		out = append(out, Summary{
			Name:        a.Name,
			Description: a.Description,
			Model:       a.Model,
			Tools:       append([]string(nil), a.ToolNames...),
		})
	}
	return out
}
