package node

import (
	"context"

	"github.com/aescanero/spellforge/pkg/agent"
	"go.uber.org/zap"
)

// Inputs holds one resolved value per connected input socket.
// Inputs that accept several links resolve to []any.
type Inputs map[string]any

// String returns the input under key as a string, or "" when absent
func (in Inputs) String(key string) string {
	switch v := in[key].(type) {
	case string:
		return v
	case []any:
		if len(v) > 0 {
			s, _ := v[0].(string)
			return s
		}
	}
	return ""
}

// Outputs is the record a worker returns, keyed by output socket key
type Outputs map[string]any

// Context is the per-session handle threaded through every worker call
type Context struct {
	SpellID     string
	ExecutionID string
	// Agent is optional; workers check it once at entry
	Agent *agent.Agent
	// Inputs are the values the spell was submitted with
	Inputs map[string]any
	Logger *zap.Logger
}

// Log returns the context logger, falling back to a no-op logger
func (c *Context) Log() *zap.Logger {
	if c == nil || c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// CurrentAgent returns the session agent, or nil. It is safe on a nil context.
func (c *Context) CurrentAgent() *agent.Agent {
	if c == nil {
		return nil
	}
	return c.Agent
}

// Worker executes a node. Implementations must not mutate shared state and
// must return exactly the data outputs declared by their definition.
type Worker interface {
	Work(ctx context.Context, inst *Instance, in Inputs, ec *Context) (Outputs, error)
}

// WorkerFunc adapts a function to the Worker interface
type WorkerFunc func(ctx context.Context, inst *Instance, in Inputs, ec *Context) (Outputs, error)

// Work calls f
func (f WorkerFunc) Work(ctx context.Context, inst *Instance, in Inputs, ec *Context) (Outputs, error) {
	return f(ctx, inst, in, ec)
}

// Component bundles a definition with its builder and worker
type Component interface {
	Definition() *Definition
	Builder(inst *Instance) *Instance
	Worker
}

// Base provides the Definition and default Builder of a Component.
// Embed it and implement Work.
type Base struct {
	def *Definition
}

// NewBase wraps def
func NewBase(def *Definition) Base {
	return Base{def: def}
}

// Definition returns the component definition
func (b Base) Definition() *Definition {
	return b.def
}

// Builder attaches the declared ports to inst
func (b Base) Builder(inst *Instance) *Instance {
	return Build(inst)
}

type funcComponent struct {
	Base
	WorkerFunc
}

// NewComponent builds a Component from a definition and a worker function
func NewComponent(def *Definition, fn WorkerFunc) Component {
	return &funcComponent{Base: NewBase(def), WorkerFunc: fn}
}
