package registry

import (
	"context"
	"testing"

	"github.com/aescanero/spellforge/pkg/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPlugin struct {
	name  string
	comps []node.Component
	tools map[string]ToolFunc
}

func (p *testPlugin) Name() string { return p.name }

func (p *testPlugin) Register(r *Registry) {
	for _, c := range p.comps {
		r.RegisterComponent(c)
	}
	for id, fn := range p.tools {
		r.RegisterTool(id, fn)
	}
}

func component(name, category string) node.Component {
	def := node.NewDefinition(name, node.Sockets{}, category, "")
	return node.NewComponent(def, func(ctx context.Context, inst *node.Instance, in node.Inputs, ec *node.Context) (node.Outputs, error) {
		return node.Outputs{}, nil
	})
}

func TestLoad(t *testing.T) {
	r := Load(
		&testPlugin{name: "b", comps: []node.Component{component("Zeta", "B"), component("Alpha", "B")}},
		&testPlugin{name: "a", comps: []node.Component{component("Echo", "A")}, tools: map[string]ToolFunc{
			"echo": func(ctx context.Context, ec *node.Context) (string, error) { return "hi", nil },
		}},
	)

	assert.Equal(t, []string{"b", "a"}, r.Plugins())

	var names []string
	for _, d := range r.Definitions() {
		names = append(names, d.Name())
	}
	assert.Equal(t, []string{"Echo", "Alpha", "Zeta"}, names)
	assert.Equal(t, []string{"echo"}, r.ToolIDs())

	c, err := r.Component("Alpha")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", c.Definition().Name())
}

func TestComponentNotFound(t *testing.T) {
	_, err := New().Component("missing")
	require.ErrorIs(t, err, ErrComponentNotFound)
}

func TestInvokeTool(t *testing.T) {
	r := New()
	r.RegisterTool("spell_id", func(ctx context.Context, ec *node.Context) (string, error) {
		return ec.SpellID, nil
	})

	got, err := r.InvokeTool(context.Background(), "spell_id", &node.Context{SpellID: "s-1"})
	require.NoError(t, err)
	assert.Equal(t, "s-1", got)

	_, err = r.InvokeTool(context.Background(), "nope", &node.Context{})
	require.ErrorIs(t, err, ErrToolNotFound)
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	r := New()
	r.RegisterComponent(component("Echo", "Core"))
	assert.Panics(t, func() { r.RegisterComponent(component("Echo", "Other")) })

	fn := func(ctx context.Context, ec *node.Context) (string, error) { return "", nil }
	r.RegisterTool("t", fn)
	assert.Panics(t, func() { r.RegisterTool("t", fn) })
}
