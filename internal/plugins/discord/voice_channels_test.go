package discord

import (
	"context"
	"errors"
	"testing"

	"github.com/aescanero/spellforge/internal/application/registry"
	"github.com/aescanero/spellforge/pkg/agent"
	"github.com/aescanero/spellforge/pkg/chat"
	"github.com/aescanero/spellforge/pkg/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeClient struct {
	channels []chat.Channel
	err      error
	calls    int
	guildIDs []string
}

func (f *fakeClient) GuildChannels(ctx context.Context, guildID string) ([]chat.Channel, error) {
	f.calls++
	f.guildIDs = append(f.guildIDs, guildID)
	return f.channels, f.err
}

func contextWith(t *testing.T, client chat.Client) *node.Context {
	ec := &node.Context{SpellID: "spell-1", Logger: zaptest.NewLogger(t)}
	if client != nil {
		ec.Agent = &agent.Agent{
			ID:      "agent-1",
			Discord: &agent.Discord{Client: client, GuildID: "guild-42"},
		}
	}
	return ec
}

func buildNode(c *VoiceChannels) *node.Instance {
	return c.Builder(node.NewInstance("node-9", c.Definition(), nil))
}

func TestWorkWithoutAgent(t *testing.T) {
	c := NewVoiceChannels()
	inst := buildNode(c)

	for name, ec := range map[string]*node.Context{
		"nil context":       nil,
		"no agent":          contextWith(t, nil),
		"agent without bot": {Agent: &agent.Agent{ID: "a"}},
	} {
		t.Run(name, func(t *testing.T) {
			out, err := c.Work(context.Background(), inst, node.Inputs{}, ec)
			require.NoError(t, err)
			assert.Equal(t, node.Outputs{"output": "Agent not found"}, out)
			assert.NoError(t, c.Definition().CheckOutputs(out))
		})
	}
}

func TestWorkListsOnlyVoiceChannels(t *testing.T) {
	client := &fakeClient{channels: []chat.Channel{
		{ID: "1", Name: "general", Type: chat.ChannelTypeGuildVoice},
		{ID: "2", Name: "text-chat", Type: chat.ChannelTypeDM},
		{ID: "3", Name: "announcements", Type: chat.ChannelTypeGuildText},
	}}
	c := NewVoiceChannels()
	inst := buildNode(c)

	out, err := c.Work(context.Background(), inst, node.Inputs{}, contextWith(t, client))
	require.NoError(t, err)
	require.NoError(t, c.Definition().CheckOutputs(out))

	desc, ok := out["output"].(ToolDescriptor)
	require.True(t, ok)
	assert.Equal(t, "``` Voice Channels\n#general\n```", desc.Content)
	assert.NotContains(t, desc.Content, "text-chat")
	assert.Equal(t, "node-9", desc.NodeID)
	assert.Equal(t, ToolListChannels, desc.Action)
	assert.Equal(t, "discord_list_channels", desc.FunctionName)
	assert.Equal(t, "Discord voice channels", desc.Keyword)
	assert.Equal(t, []string{"guild-42"}, client.guildIDs)
}

func TestWorkWithNoChannels(t *testing.T) {
	c := NewVoiceChannels()
	inst := buildNode(c)

	out, err := c.Work(context.Background(), inst, node.Inputs{}, contextWith(t, &fakeClient{}))
	require.NoError(t, err)

	desc := out["output"].(ToolDescriptor)
	assert.Empty(t, desc.Content)
}

func TestWorkIsIdempotent(t *testing.T) {
	client := &fakeClient{channels: []chat.Channel{
		{Name: "general", Type: chat.ChannelTypeGuildVoice},
		{Name: "lounge", Type: chat.ChannelTypeGuildVoice},
	}}
	c := NewVoiceChannels()
	inst := buildNode(c)
	ec := contextWith(t, client)

	first, err := c.Work(context.Background(), inst, node.Inputs{}, ec)
	require.NoError(t, err)
	second, err := c.Work(context.Background(), inst, node.Inputs{}, ec)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, client.calls)
}

func TestWorkPropagatesFetchFailure(t *testing.T) {
	boom := errors.New("discord unavailable")
	c := NewVoiceChannels()
	inst := buildNode(c)

	out, err := c.Work(context.Background(), inst, node.Inputs{}, contextWith(t, &fakeClient{err: boom}))
	require.ErrorIs(t, err, boom)
	assert.Nil(t, out)
}

func TestPluginRegistersTool(t *testing.T) {
	r := registry.Load(Plugin{})

	comp, err := r.Component(ComponentVoiceChannels)
	require.NoError(t, err)
	assert.Equal(t, "Discord", comp.Definition().Category())

	client := &fakeClient{channels: []chat.Channel{{Name: "general", Type: chat.ChannelTypeGuildVoice}}}
	got, err := r.InvokeTool(context.Background(), ToolListChannels, contextWith(t, client))
	require.NoError(t, err)
	assert.Equal(t, "``` Voice Channels\n#general\n```", got)

	got, err = r.InvokeTool(context.Background(), ToolListChannels, contextWith(t, nil))
	require.NoError(t, err)
	assert.Equal(t, AgentNotFound, got)
}
