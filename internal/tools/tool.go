package tools

import (
	"context"
	"sort"
)

// Args is a validated tool argument record.
type Args map[string]string

// Tool defines the interface for all agent capabilities.
type Tool interface {
	Name() string
	Description() string
	// RequiredArgs lists argument names that must be present and non-empty.
	RequiredArgs() []string
	// Execute returns the JSON text handed back to the model verbatim.
	Execute(ctx context.Context, args Args) (string, error)
}

// Registry manages the set of available tools. It is the allow-list the
// agent checks every requested tool name against.
type Registry struct {
	Tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{
		Tools: make(map[string]Tool),
	}
}

func (r *Registry) Register(t Tool) {
	r.Tools[t.Name()] = t
}

func (r *Registry) Get(name string) Tool {
	return r.Tools[name]
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Tools))
	for name := range r.Tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
