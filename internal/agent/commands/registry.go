package commands

import (
	"cmp"
	"slices"
	"strings"
	"sync"
)

// DefaultRegistry is the global registry for auto-registration via init().
var DefaultRegistry = NewRegistry()

// Registry manages command handlers and provides lookup functionality.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	entries  []Entry // cached, sorted by name
}

// NewRegistry creates a new empty command registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler to the registry.
// The handler's Entry().Name is used as the command name.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[h.Entry().Name] = h
	r.entries = nil
}

// Execute runs the command with the given context. Unknown commands yield
// a failed result that suggests the closest match.
func (r *Registry) Execute(ctx *Context, cmd *Command) Result {
	r.mu.RLock()
	handler, ok := r.handlers[cmd.Name]
	r.mu.RUnlock()

	if !ok {
		msg := "Unknown command: /" + cmd.Name
		if matches := r.FuzzyMatch(cmd.Name); len(matches) > 0 {
			msg += " (did you mean /" + matches[0].Name + "?)"
		} else {
			msg += " (type /help for available commands)"
		}
		return Result{Success: false, Message: msg, IsInfo: true}
	}

	return handler.Execute(ctx, cmd.Args)
}

// AllEntries returns all registered command entries, sorted by name.
func (r *Registry) AllEntries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries != nil {
		return r.entries
	}

	entries := make([]Entry, 0, len(r.handlers))
	for _, h := range r.handlers {
		entries = append(entries, h.Entry())
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		return strings.Compare(a.Name, b.Name)
	})

	r.entries = entries
	return r.entries
}

// FuzzyMatch returns the entries matching query, best match first.
// An empty query returns every entry.
func (r *Registry) FuzzyMatch(query string) []Entry {
	entries := r.AllEntries()
	if query == "" {
		return entries
	}
	query = strings.ToLower(query)

	scores := make(map[string]int, len(entries))
	matched := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if score := matchScore(e, query); score > 0 {
			scores[e.Name] = score
			matched = append(matched, e)
		}
	}

	slices.SortStableFunc(matched, func(a, b Entry) int {
		return cmp.Compare(scores[b.Name], scores[a.Name])
	})
	return matched
}

// matchScore ranks prefix matches above substring, subsequence and
// description matches. Zero means no match.
func matchScore(e Entry, query string) int {
	name := strings.ToLower(e.Name)
	switch {
	case strings.HasPrefix(name, query):
		return 100 - (len(name) - len(query))
	case strings.Contains(name, query):
		return 50
	case isSubsequence(name, query):
		return 25
	case strings.Contains(strings.ToLower(e.Description), query):
		return 10
	}
	return 0
}

// isSubsequence reports whether the runes of query appear in s in order.
func isSubsequence(s, query string) bool {
	q := []rune(query)
	i := 0
	for _, c := range s {
		if i < len(q) && c == q[i] {
			i++
		}
	}
	return i == len(q)
}

// ParseCommand parses a slash command string into a Command.
// Returns nil if the input is not a command (doesn't start with /).
func ParseCommand(input string) *Command {
	if !strings.HasPrefix(input, "/") {
		return nil
	}

	parts := strings.Fields(strings.TrimPrefix(input, "/"))
	if len(parts) == 0 {
		return nil
	}

	return &Command{
		Name: strings.ToLower(parts[0]),
		Args: parts[1:],
	}
}
