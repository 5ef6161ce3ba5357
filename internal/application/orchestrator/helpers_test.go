package orchestrator

import (
	"context"
	"errors"

	"github.com/aescanero/spellforge/internal/application/registry"
	"github.com/aescanero/spellforge/internal/plugins/core"
	"github.com/aescanero/spellforge/internal/plugins/discord"
	"github.com/aescanero/spellforge/pkg/domain"
	"github.com/aescanero/spellforge/pkg/node"
)

const (
	componentFail  = "Fail"
	componentBlock = "Block"
	componentJoin  = "Join"
)

var errBoom = errors.New("boom")

// testPlugin registers components used only by the orchestrator tests
type testPlugin struct{}

func (testPlugin) Name() string { return "test" }

func (testPlugin) Register(r *registry.Registry) {
	outputs := []node.Socket{
		node.Out("trigger", "", node.SocketTrigger),
		node.Out("output", "", node.SocketString),
	}

	r.RegisterComponent(node.NewComponent(
		node.NewDefinition(componentFail, node.Sockets{
			Inputs:  []node.Socket{node.MultiIn("trigger", "", node.SocketTrigger)},
			Outputs: outputs,
		}, "Test", ""),
		func(ctx context.Context, inst *node.Instance, in node.Inputs, ec *node.Context) (node.Outputs, error) {
			return nil, errBoom
		}))

	r.RegisterComponent(node.NewComponent(
		node.NewDefinition(componentBlock, node.Sockets{
			Inputs:  []node.Socket{node.MultiIn("trigger", "", node.SocketTrigger)},
			Outputs: outputs,
		}, "Test", ""),
		func(ctx context.Context, inst *node.Instance, in node.Inputs, ec *node.Context) (node.Outputs, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}))

	r.RegisterComponent(node.NewComponent(
		node.NewDefinition(componentJoin, node.Sockets{
			Inputs:  []node.Socket{node.MultiIn("values", "", node.SocketAny)},
			Outputs: []node.Socket{node.Out("output", "", node.SocketAny)},
		}, "Test", ""),
		func(ctx context.Context, inst *node.Instance, in node.Inputs, ec *node.Context) (node.Outputs, error) {
			return node.Outputs{"output": in["values"]}, nil
		}))
}

func testRegistry() *registry.Registry {
	return registry.Load(core.Plugin{}, discord.Plugin{}, testPlugin{})
}

func spellNode(id, component string, data map[string]any) domain.SpellNode {
	return domain.SpellNode{ID: id, Component: component, Data: data}
}

// echoSpell feeds the "name" input through an Echo node
func echoSpell() *domain.Spell {
	return &domain.Spell{
		ID:      "echo-spell",
		Version: "1",
		Nodes: map[string]domain.SpellNode{
			"in":   spellNode("in", core.ComponentInput, map[string]any{"inputName": "name"}),
			"echo": spellNode("echo", core.ComponentEcho, nil),
		},
		Connections: []domain.Connection{
			{From: "in", FromOutput: "trigger", To: "echo", ToInput: "trigger"},
			{From: "in", FromOutput: "output", To: "echo", ToInput: "string"},
		},
	}
}
