// Package llm provides components that call the agent's text generator.
package llm

import (
	"context"
	"fmt"

	"github.com/aescanero/spellforge/internal/application/registry"
	"github.com/aescanero/spellforge/pkg/node"
	"go.uber.org/zap"
)

const (
	// ComponentGenerateText is the registered name of the text generation component
	ComponentGenerateText = "Generate Text"

	// AgentNotFound is the soft-failure output when the agent cannot generate text
	AgentNotFound = "Agent not found"
)

// Plugin registers the LLM components
type Plugin struct{}

// Name returns the plugin name
func (Plugin) Name() string { return "llm" }

// Register adds the LLM components to r
func (Plugin) Register(r *registry.Registry) {
	r.RegisterComponent(NewGenerateText())
}

// GenerateText sends its prompt input to the agent's text generator
type GenerateText struct {
	node.Base
}

// NewGenerateText creates the component
func NewGenerateText() *GenerateText {
	def := node.NewDefinition(ComponentGenerateText, node.Sockets{
		Inputs: []node.Socket{
			node.MultiIn("trigger", "Trigger", node.SocketTrigger),
			node.In("prompt", "Prompt", node.SocketString),
		},
		Outputs: []node.Socket{
			node.Out("trigger", "Trigger", node.SocketTrigger),
			node.Out("output", "Text", node.SocketString),
		},
	}, "LLM", "Generates text from a prompt using the agent's language model")

	return &GenerateText{Base: node.NewBase(def)}
}

// Work generates text for the prompt input. A missing generator yields the
// AgentNotFound output instead of an error.
func (c *GenerateText) Work(ctx context.Context, inst *node.Instance, in node.Inputs, ec *node.Context) (node.Outputs, error) {
	a := ec.CurrentAgent()
	if !a.HasLLM() {
		ec.Log().Warn("text generator not available", zap.String("node_id", inst.ID))
		return node.Outputs{"output": AgentNotFound}, nil
	}

	text, err := a.LLM.GenerateText(ctx, in.String("prompt"))
	if err != nil {
		return nil, fmt.Errorf("failed to generate text: %w", err)
	}

	return node.Outputs{"output": text}, nil
}
