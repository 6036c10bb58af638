// Package tool defines the tool-invocation contract workflow nodes use and
// a registry resolving tool names to implementations at build time.
package tool

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/flowgraph/flowgraph/graph/model"
)

// Tool is an executable capability offered to the model.
//
// Invoke returns the result as a string, the shape tool-result messages
// carry. Implementations should convert their own domain failures into a
// textual result where that lets the conversation continue, and return an
// error only for failures the calling node must decide about; raw errors
// never reach the engine either way.
type Tool interface {
	// Name is the unique identifier, lowercase with underscores
	// ("web_search"). It must match the name offered to the model.
	Name() string

	// Description tells the model when to use this tool.
	Description() string

	// Schema is a JSON Schema object describing the tool's input.
	Schema() map[string]any

	// Invoke executes the tool. Implementations must respect ctx
	// cancellation before expensive work.
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// Func adapts a function into a Tool.
type Func struct {
	ToolName        string
	ToolDescription string
	ToolSchema      map[string]any
	Fn              func(ctx context.Context, args map[string]any) (string, error)
}

// Name implements Tool.
func (f *Func) Name() string { return f.ToolName }

// Description implements Tool.
func (f *Func) Description() string { return f.ToolDescription }

// Schema implements Tool.
func (f *Func) Schema() map[string]any { return f.ToolSchema }

// Invoke implements Tool.
func (f *Func) Invoke(ctx context.Context, args map[string]any) (string, error) {
	return f.Fn(ctx, args)
}

// Registry maps tool names to implementations. Register everything before
// graph construction; lookups at execution time are read-only.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Registering a duplicate name is an error.
func (r *Registry) Register(t Tool) error {
	if t == nil || t.Name() == "" {
		return fmt.Errorf("tool must have a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.tools[t.Name()]; dup {
		return fmt.Errorf("tool %q already registered", t.Name())
	}
	r.tools[t.Name()] = t
	return nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Invoke looks up and executes a tool in one step.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	t, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("unknown tool %q", name)
	}
	return t.Invoke(ctx, args)
}

// Specs returns the registered tools as model.ToolSpec values, sorted by
// name for deterministic prompts.
func (r *Registry) Specs() []model.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]model.ToolSpec, 0, len(r.tools))
	for _, t := range r.tools {
		specs = append(specs, model.ToolSpec{
			Name:        t.Name(),
			Description: t.Description(),
			Schema:      t.Schema(),
		})
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}
