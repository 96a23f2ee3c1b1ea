package tools

import (
	"fmt"
	"sort"
	"sync"

	"google.golang.org/adk/tool"
)

// ToolsetPrefix marks registry references that expand to a whole toolset,
// e.g. "openapi:petstore".
const ToolsetPrefix = "openapi:"

// Registry maps tool references to ADK tools. A reference is either a single
// function tool name or a toolset name that expands to several tools.
type Registry struct {
	mu      sync.RWMutex
	entries map[string][]tool.Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string][]tool.Tool)}
}

// NewBuiltinRegistry registers the weather, time and developer portal tools.
func NewBuiltinRegistry(clock Clock) (*Registry, error) {
	r := NewRegistry()

	weather, err := NewWeatherTool()
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", WeatherToolName, err)
	}
	clockTool, err := NewTimeTool(clock)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", TimeToolName, err)
	}
	portal, err := NewPortalTool()
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", PortalToolName, err)
	}

	for _, t := range []tool.Tool{weather, clockTool, portal} {
		if err := r.Register(t.Name(), t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds tools under ref. References are unique.
func (r *Registry) Register(ref string, tools ...tool.Tool) error {
	if ref == "" {
		return fmt.Errorf("tool reference must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[ref]; exists {
		return fmt.Errorf("tool reference %q is already registered", ref)
	}
	r.entries[ref] = tools
	return nil
}

// RegisterToolset adds tools under "openapi:<name>".
func (r *Registry) RegisterToolset(name string, tools []tool.Tool) error {
	return r.Register(ToolsetPrefix+name, tools...)
}

// Has reports whether ref is registered.
func (r *Registry) Has(ref string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[ref]
	return ok
}

// Resolve expands refs in order. Unknown references and tool name clashes
// between references are errors.
func (r *Registry) Resolve(refs []string) ([]tool.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var resolved []tool.Tool
	seen := make(map[string]string)
	for _, ref := range refs {
		entry, ok := r.entries[ref]
		if !ok {
			return nil, fmt.Errorf("unknown tool %q", ref)
		}
		for _, t := range entry {
			if prev, dup := seen[t.Name()]; dup {
				return nil, fmt.Errorf("tool name %q from %q clashes with %q", t.Name(), ref, prev)
			}
			seen[t.Name()] = ref
			resolved = append(resolved, t)
		}
	}
	return resolved, nil
}

// References returns all registered references, sorted.
func (r *Registry) References() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	refs := make([]string, 0, len(r.entries))
	for ref := range r.entries {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}
