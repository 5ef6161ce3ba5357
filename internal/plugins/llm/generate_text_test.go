package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/aescanero/spellforge/pkg/agent"
	"github.com/aescanero/spellforge/pkg/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	prompts []string
	err     error
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return "re: " + prompt, nil
}

func TestGenerateText(t *testing.T) {
	c := NewGenerateText()
	inst := c.Builder(node.NewInstance("g", c.Definition(), nil))
	gen := &fakeGenerator{}

	out, err := c.Work(context.Background(), inst, node.Inputs{"prompt": "hi"},
		&node.Context{Agent: &agent.Agent{LLM: gen}})
	require.NoError(t, err)
	require.NoError(t, c.Definition().CheckOutputs(out))
	assert.Equal(t, "re: hi", out["output"])
	assert.Equal(t, []string{"hi"}, gen.prompts)
}

func TestGenerateTextWithoutGenerator(t *testing.T) {
	c := NewGenerateText()
	inst := c.Builder(node.NewInstance("g", c.Definition(), nil))

	out, err := c.Work(context.Background(), inst, node.Inputs{"prompt": "hi"}, nil)
	require.NoError(t, err)
	assert.Equal(t, AgentNotFound, out["output"])
}

func TestGenerateTextPropagatesFailure(t *testing.T) {
	boom := errors.New("rate limited")
	c := NewGenerateText()
	inst := c.Builder(node.NewInstance("g", c.Definition(), nil))

	_, err := c.Work(context.Background(), inst, node.Inputs{},
		&node.Context{Agent: &agent.Agent{LLM: &fakeGenerator{err: boom}}})
	require.ErrorIs(t, err, boom)
}
