package llm

import (
	"fmt"
	"time"

	"github.com/aescanero/spellforge/pkg/adapters/llm/anthropic"
	"github.com/aescanero/spellforge/pkg/agent"
	"go.uber.org/zap"
)

// Config holds LLM client configuration
type Config struct {
	Provider  string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	Logger    *zap.Logger
}

// NewClient creates a text generator for the configured provider
func NewClient(cfg *Config) (agent.TextGenerator, error) {
	switch cfg.Provider {
	case "anthropic":
		return anthropic.NewClient(anthropic.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		}, cfg.Logger)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
