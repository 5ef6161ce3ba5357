// Package agent defines the Agent aggregate: the set of external-service
// clients a spell session may use. Every capability is optional.
package agent

import (
	"context"

	"github.com/aescanero/spellforge/pkg/chat"
)

// Agent groups the external clients available to a running spell
type Agent struct {
	ID   string
	Name string

	// Discord is set when the agent is connected to a Discord guild
	Discord *Discord

	// LLM is set when the agent can generate text
	LLM TextGenerator
}

// Discord binds a chat client to the guild the agent serves
type Discord struct {
	Client  chat.Client
	GuildID string
}

// TextGenerator produces a completion for a prompt
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// HasDiscord reports whether a usable Discord capability is present.
// It is safe to call on a nil agent.
func (a *Agent) HasDiscord() bool {
	return a != nil && a.Discord != nil && a.Discord.Client != nil
}

// HasLLM reports whether a text generator is present.
// It is safe to call on a nil agent.
func (a *Agent) HasLLM() bool {
	return a != nil && a.LLM != nil
}
