// Package discordgo adapts a discordgo REST session to chat.Client.
package discordgo

import (
	"context"
	"fmt"

	"github.com/aescanero/spellforge/pkg/chat"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Client lists guild channels through the Discord REST API
type Client struct {
	session *discordgo.Session
	logger  *zap.Logger
}

// NewClient creates a bot client for token. No gateway connection is
// opened; only REST calls are made.
func NewClient(token string, logger *zap.Logger) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("discord token is required")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	return NewClientWithSession(session, logger), nil
}

// NewClientWithSession wraps an existing session
func NewClientWithSession(session *discordgo.Session, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{session: session, logger: logger}
}

// GuildChannels returns every channel of guildID
func (c *Client) GuildChannels(ctx context.Context, guildID string) ([]chat.Channel, error) {
	channels, err := c.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list guild channels: %w", err)
	}

	out := make([]chat.Channel, 0, len(channels))
	for _, ch := range channels {
		out = append(out, chat.Channel{
			ID:   ch.ID,
			Name: ch.Name,
			Type: chat.ChannelType(ch.Type),
		})
	}

	c.logger.Debug("fetched guild channels",
		zap.String("guild_id", guildID),
		zap.Int("count", len(out)))

	return out, nil
}

// Close releases the session
func (c *Client) Close() error {
	return c.session.Close()
}
