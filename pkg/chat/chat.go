// Package chat declares the narrow chat-platform capability that spell
// workers depend on. Concrete platforms live under pkg/adapters/chat.
package chat

import "context"

// ChannelType is the platform's channel kind tag. Values follow the Discord
// channel type numbering.
type ChannelType int

const (
	ChannelTypeGuildText     ChannelType = 0
	ChannelTypeDM            ChannelType = 1
	ChannelTypeGuildVoice    ChannelType = 2
	ChannelTypeGroupDM       ChannelType = 3
	ChannelTypeGuildCategory ChannelType = 4
	ChannelTypeGuildNews     ChannelType = 5
	ChannelTypeGuildStage    ChannelType = 13
	ChannelTypeGuildForum    ChannelType = 15
)

// IsVoice reports whether the channel type is a guild voice channel
func (t ChannelType) IsVoice() bool {
	return t == ChannelTypeGuildVoice
}

// Channel is a channel inside a guild
type Channel struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Type ChannelType `json:"type"`
}

// Client lists channels of a guild
type Client interface {
	GuildChannels(ctx context.Context, guildID string) ([]Channel, error)
}
