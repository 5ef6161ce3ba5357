package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aescanero/spellforge/pkg/node"
)

var (
	// ErrComponentNotFound is returned when a spell references an unknown component
	ErrComponentNotFound = errors.New("component not found")
	// ErrToolNotFound is returned when a tool id is not registered
	ErrToolNotFound = errors.New("tool not found")
)

// ToolFunc is a worker action that can be invoked by a stable id
type ToolFunc func(ctx context.Context, ec *node.Context) (string, error)

// Plugin contributes components and tools to a registry
type Plugin interface {
	Name() string
	Register(r *Registry)
}

// Registry holds the components and tools of every loaded plugin
type Registry struct {
	mu         sync.RWMutex
	components map[string]node.Component
	tools      map[string]ToolFunc
	plugins    []string
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		components: make(map[string]node.Component),
		tools:      make(map[string]ToolFunc),
	}
}

// Load creates a registry populated by plugins
func Load(plugins ...Plugin) *Registry {
	r := New()
	for _, p := range plugins {
		p.Register(r)
		r.mu.Lock()
		r.plugins = append(r.plugins, p.Name())
		r.mu.Unlock()
	}
	return r
}

// RegisterComponent adds a component keyed by its definition name.
// It panics if the name is already taken.
func (r *Registry) RegisterComponent(c node.Component) {
	name := c.Definition().Name()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.components[name]; exists {
		panic(fmt.Sprintf("component with name '%s' already registered", name))
	}
	r.components[name] = c
}

// RegisterTool adds a tool function under a stable id.
// It panics if the id is already taken.
func (r *Registry) RegisterTool(id string, fn ToolFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[id]; exists {
		panic(fmt.Sprintf("tool with id '%s' already registered", id))
	}
	r.tools[id] = fn
}

// Component looks up a component by name
func (r *Registry) Component(name string) (node.Component, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.components[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrComponentNotFound, name)
	}
	return c, nil
}

// Tool looks up a tool by id
func (r *Registry) Tool(id string) (ToolFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.tools[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, id)
	}
	return fn, nil
}

// InvokeTool runs the tool registered under id
func (r *Registry) InvokeTool(ctx context.Context, id string, ec *node.Context) (string, error) {
	fn, err := r.Tool(id)
	if err != nil {
		return "", err
	}
	return fn(ctx, ec)
}

// Definitions returns all component definitions sorted by category, then name
func (r *Registry) Definitions() []*node.Definition {
	r.mu.RLock()
	defs := make([]*node.Definition, 0, len(r.components))
	for _, c := range r.components {
		defs = append(defs, c.Definition())
	}
	r.mu.RUnlock()

	sort.Slice(defs, func(i, j int) bool {
		if defs[i].Category() != defs[j].Category() {
			return defs[i].Category() < defs[j].Category()
		}
		return defs[i].Name() < defs[j].Name()
	})
	return defs
}

// ToolIDs returns the registered tool ids in sorted order
func (r *Registry) ToolIDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.tools))
	for id := range r.tools {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Plugins returns the names of loaded plugins in load order
func (r *Registry) Plugins() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.plugins...)
}
