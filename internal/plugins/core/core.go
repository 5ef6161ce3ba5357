// Package core provides the built-in components every spell can use.
package core

import (
	"context"

	"github.com/aescanero/spellforge/internal/application/registry"
	"github.com/aescanero/spellforge/pkg/node"
)

// Component names registered by the core plugin
const (
	ComponentInput = "Input"
	ComponentEcho  = "Echo"
)

// Plugin registers the core components
type Plugin struct{}

// Name returns the plugin name
func (Plugin) Name() string { return "core" }

// Register adds the core components to r
func (Plugin) Register(r *registry.Registry) {
	r.RegisterComponent(NewInput())
	r.RegisterComponent(NewEcho())
}

// NewInput returns a component that emits one of the spell's submitted
// inputs, selected by the "inputName" node data field
func NewInput() node.Component {
	def := node.NewDefinition(ComponentInput, node.Sockets{
		Outputs: []node.Socket{
			node.Out("trigger", "Trigger", node.SocketTrigger),
			node.Out("output", "Value", node.SocketAny),
		},
	}, "Core", "Emits a value the spell was submitted with")

	return node.NewComponent(def, func(ctx context.Context, inst *node.Instance, in node.Inputs, ec *node.Context) (node.Outputs, error) {
		var value any
		if ec != nil && ec.Inputs != nil {
			value = ec.Inputs[inst.DataString("inputName")]
		}
		return node.Outputs{"output": value}, nil
	})
}

// NewEcho returns a component that outputs its string input unchanged
func NewEcho() node.Component {
	def := node.NewDefinition(ComponentEcho, node.Sockets{
		Inputs: []node.Socket{
			node.MultiIn("trigger", "Trigger", node.SocketTrigger),
			node.In("string", "String", node.SocketString),
		},
		Outputs: []node.Socket{
			node.Out("trigger", "Trigger", node.SocketTrigger),
			node.Out("output", "String", node.SocketString),
		},
	}, "Core", "Returns the same output as the input")

	return node.NewComponent(def, func(ctx context.Context, inst *node.Instance, in node.Inputs, ec *node.Context) (node.Outputs, error) {
		return node.Outputs{"output": in.String("string")}, nil
	})
}
