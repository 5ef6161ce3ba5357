// Package discord provides spell components backed by a Discord guild.
package discord

import "github.com/aescanero/spellforge/internal/application/registry"

// Plugin registers the Discord components and tools
type Plugin struct{}

// Name returns the plugin name
func (Plugin) Name() string {
	return "discord"
}

// Register adds the Discord components and tools to r
func (Plugin) Register(r *registry.Registry) {
	r.RegisterComponent(NewVoiceChannels())
	r.RegisterTool(ToolListChannels, ListVoiceChannels)
}
