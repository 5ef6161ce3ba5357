package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/aescanero/spellforge/pkg/node"
	"go.uber.org/zap"
)

const (
	// ComponentVoiceChannels is the definition name of the voice channel lister
	ComponentVoiceChannels = "Discord Voice Channels"
	// ToolListChannels is the stable id of the channel listing action
	ToolListChannels = "discord_list_channels"

	// AgentNotFound is the soft-failure output when no Discord agent is attached
	AgentNotFound = "Agent not found"
)

// ToolDescriptor describes a tool for the downstream tool aggregator
type ToolDescriptor struct {
	Title        string `json:"title"`
	Body         string `json:"body"`
	NodeID       string `json:"id"`
	Action       string `json:"action"`
	FunctionName string `json:"function_name"`
	Keyword      string `json:"keyword"`
	// Content is the listing produced when the node ran
	Content string `json:"content"`
}

// VoiceChannels lists the voice channels of the agent's guild
type VoiceChannels struct {
	node.Base
}

// NewVoiceChannels creates the component
func NewVoiceChannels() *VoiceChannels {
	def := node.NewDefinition(ComponentVoiceChannels, node.Sockets{
		Inputs: []node.Socket{
			node.MultiIn("trigger", "Trigger", node.SocketTrigger),
		},
		Outputs: []node.Socket{
			node.Out("trigger", "Trigger", node.SocketTrigger),
			node.Out("output", "String", node.SocketString),
		},
	}, "Discord", "Gets the List of All voice channels in a server")

	return &VoiceChannels{Base: node.NewBase(def)}
}

// Work returns the tool descriptor for the node. Without a Discord agent it
// returns AgentNotFound instead of failing.
func (c *VoiceChannels) Work(ctx context.Context, inst *node.Instance, in node.Inputs, ec *node.Context) (node.Outputs, error) {
	if ec == nil {
		ec = &node.Context{}
	}
	if !ec.CurrentAgent().HasDiscord() {
		ec.Log().Warn("discord agent not available",
			zap.String("spell_id", ec.SpellID),
			zap.String("node_id", inst.ID))
		return node.Outputs{"output": AgentNotFound}, nil
	}

	content, err := ListVoiceChannels(ctx, ec)
	if err != nil {
		return nil, err
	}

	return node.Outputs{
		"output": ToolDescriptor{
			Title:        "Discord List Channels",
			Body:         "Gets the list of all the voice channels also known as vc in the server and only the voice channels",
			NodeID:       inst.ID,
			Action:       ToolListChannels,
			FunctionName: ToolListChannels,
			Keyword:      "Discord voice channels",
			Content:      content,
		},
	}, nil
}

// ListVoiceChannels fetches the guild channels of the session agent and
// formats the voice channels as a fenced list. It returns AgentNotFound when
// no Discord agent is attached and "" when the guild has no channels.
func ListVoiceChannels(ctx context.Context, ec *node.Context) (string, error) {
	if ec == nil {
		ec = &node.Context{}
	}
	a := ec.CurrentAgent()
	if !a.HasDiscord() {
		return AgentNotFound, nil
	}

	channels, err := a.Discord.Client.GuildChannels(ctx, a.Discord.GuildID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch channels for guild %s: %w", a.Discord.GuildID, err)
	}

	if len(channels) == 0 {
		ec.Log().Warn("no channels found",
			zap.String("spell_id", ec.SpellID),
			zap.String("guild_id", a.Discord.GuildID))
		return "", nil
	}

	var b strings.Builder
	b.WriteString("``` Voice Channels\n")
	for _, ch := range channels {
		if !ch.Type.IsVoice() {
			continue
		}
		b.WriteString("#")
		b.WriteString(ch.Name)
		b.WriteString("\n")
	}
	b.WriteString("```")

	return b.String(), nil
}
