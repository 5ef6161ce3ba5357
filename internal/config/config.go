package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Backend selects the implementation of a storage or event adapter
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds all configuration for spellforge
type Config struct {
	// Server configuration
	HTTPPort int    `env:"SPELLFORGE_HTTP_PORT" envDefault:"8080"`
	GRPCPort int    `env:"SPELLFORGE_GRPC_PORT" envDefault:"9090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Adapter selection
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"memory"`
	EventsBackend  string `env:"EVENTS_BACKEND" envDefault:"memory"`

	// Redis configuration
	Redis RedisConfig

	// Discord configuration
	Discord DiscordConfig

	// LLM configuration
	LLM LLMConfig

	// Worker configuration
	Workers WorkerConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`

	// State and stream settings
	StateTTL     time.Duration `env:"REDIS_STATE_TTL" envDefault:"24h"`
	StreamMaxLen int64         `env:"REDIS_STREAM_MAX_LEN" envDefault:"10000"`
	GroupPrefix  string        `env:"REDIS_GROUP_PREFIX" envDefault:"spellforge"`
	ConsumerName string        `env:"REDIS_CONSUMER_NAME" envDefault:"spellforge-1"`
}

// DiscordConfig holds the bot credentials of the agent. An empty token
// leaves the agent without a Discord capability.
type DiscordConfig struct {
	Token   string `env:"DISCORD_TOKEN"`
	GuildID string `env:"DISCORD_GUILD_ID"`
}

// LLMConfig holds LLM provider configuration. An empty API key leaves the
// agent without a text generator.
type LLMConfig struct {
	Provider string `env:"LLM_PROVIDER" envDefault:"anthropic"`
	APIKey   string `env:"LLM_API_KEY"`

	RequestTimeout time.Duration `env:"LLM_REQUEST_TIMEOUT" envDefault:"120s"`

	// Default model settings
	DefaultModel     string `env:"LLM_DEFAULT_MODEL" envDefault:"claude-3-5-sonnet-20241022"`
	DefaultMaxTokens int    `env:"LLM_DEFAULT_MAX_TOKENS" envDefault:"1024"`
}

// WorkerConfig holds worker pool configuration
type WorkerConfig struct {
	PoolSize            int           `env:"WORKER_POOL_SIZE" envDefault:"5"`
	HealthCheckInterval time.Duration `env:"WORKER_HEALTH_CHECK_INTERVAL" envDefault:"30s"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	SpellExecutionTimeout time.Duration `env:"TIMEOUT_SPELL_EXECUTION" envDefault:"600s"` // 10 minutes
	NodeExecutionTimeout  time.Duration `env:"TIMEOUT_NODE_EXECUTION" envDefault:"120s"`  // 2 minutes
	ShutdownTimeout       time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server ports
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}

	for name, backend := range map[string]string{"storage": c.StorageBackend, "events": c.EventsBackend} {
		if backend != BackendMemory && backend != BackendRedis {
			return fmt.Errorf("invalid %s backend: %s (must be memory or redis)", name, backend)
		}
	}

	// Validate Redis config
	if c.UsesRedis() && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	// Validate LLM config
	if c.LLM.Provider != "anthropic" {
		return fmt.Errorf("unsupported LLM provider: %s (only 'anthropic' is supported)", c.LLM.Provider)
	}
	if c.LLM.DefaultMaxTokens < 1 {
		return fmt.Errorf("LLM max tokens must be at least 1")
	}

	if c.Discord.Token != "" && c.Discord.GuildID == "" {
		return fmt.Errorf("discord guild id is required when a token is set")
	}

	// Validate worker config
	if c.Workers.PoolSize < 1 {
		return fmt.Errorf("worker pool size must be at least 1")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// UsesRedis reports whether any adapter needs a Redis connection
func (c *Config) UsesRedis() bool {
	return c.StorageBackend == BackendRedis || c.EventsBackend == BackendRedis
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
