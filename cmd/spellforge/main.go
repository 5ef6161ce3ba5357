package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aescanero/spellforge/internal/application/orchestrator"
	"github.com/aescanero/spellforge/internal/application/registry"
	"github.com/aescanero/spellforge/internal/application/workers"
	"github.com/aescanero/spellforge/internal/config"
	"github.com/aescanero/spellforge/internal/plugins/core"
	"github.com/aescanero/spellforge/internal/plugins/discord"
	llmplugin "github.com/aescanero/spellforge/internal/plugins/llm"
	"github.com/aescanero/spellforge/pkg/adapters/chat/discordgo"
	eventsmemory "github.com/aescanero/spellforge/pkg/adapters/events/memory"
	"github.com/aescanero/spellforge/pkg/adapters/events/redis"
	"github.com/aescanero/spellforge/pkg/adapters/llm"
	promadapter "github.com/aescanero/spellforge/pkg/adapters/metrics/prometheus"
	storagememory "github.com/aescanero/spellforge/pkg/adapters/storage/memory"
	redisstorage "github.com/aescanero/spellforge/pkg/adapters/storage/redis"
	"github.com/aescanero/spellforge/pkg/agent"
	"github.com/aescanero/spellforge/pkg/api/grpc"
	"github.com/aescanero/spellforge/pkg/api/http"
	"github.com/aescanero/spellforge/pkg/api/websocket"
	"github.com/aescanero/spellforge/pkg/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting spellforge",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	ctx := context.Background()

	// Initialize Redis client when an adapter needs it
	var redisClient *goredis.Client
	if cfg.UsesRedis() {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// Initialize adapters
	var eventBus ports.EventBus = eventsmemory.NewInMemoryEventBus(logger)
	if cfg.EventsBackend == config.BackendRedis {
		eventBus, err = redis.NewStreamsEventBus(
			redisClient,
			cfg.Redis.GroupPrefix,
			cfg.Redis.ConsumerName,
			cfg.Redis.StreamMaxLen,
			logger,
		)
		if err != nil {
			logger.Fatal("failed to create event bus", zap.Error(err))
		}
	}

	var stateStorage ports.StateStorage = storagememory.NewInMemoryStateStorage()
	if cfg.StorageBackend == config.BackendRedis {
		stateStorage = redisstorage.NewStateStorage(redisClient, cfg.Redis.StateTTL, logger)
	}

	ag, closeAgent := initAgent(cfg, logger)
	defer closeAgent()

	metricsRegistry := prometheus.NewRegistry()
	metricsRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metricsCollector := promadapter.NewCollector(metricsRegistry)

	// Initialize application components
	plugins := registry.Load(core.Plugin{}, discord.Plugin{}, llmplugin.Plugin{})
	logger.Info("plugins loaded",
		zap.Strings("plugins", plugins.Plugins()),
		zap.Strings("tools", plugins.ToolIDs()))

	workerPool := workers.NewPool(
		cfg.Workers.PoolSize,
		metricsCollector,
		logger,
		cfg.Workers.HealthCheckInterval,
	)

	// Start worker pool
	if err := workerPool.Start(); err != nil {
		logger.Fatal("failed to start worker pool", zap.Error(err))
	}

	orchestratorMgr := orchestrator.NewManager(
		plugins,
		workerPool,
		eventBus,
		stateStorage,
		metricsCollector,
		ag,
		logger,
		cfg.Timeouts.SpellExecutionTimeout,
		cfg.Timeouts.NodeExecutionTimeout,
	)

	// Initialize API servers
	httpServer := http.NewServer(&http.Config{
		Port:     cfg.HTTPPort,
		Spells:   orchestratorMgr,
		Registry: plugins,
		Health:   workerPool.Health(),
		Agent:    ag,
		Gatherer: metricsRegistry,
		Logger:   logger,
	})

	// Add WebSocket handler to HTTP server
	wsHandler := websocket.NewHandler(eventBus, logger)
	httpServer.SetupWebSocket(wsHandler)

	grpcServer, err := grpc.NewServer(&grpc.Config{
		Port:   cfg.GRPCPort,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("failed to create gRPC server", zap.Error(err))
	}

	// Start servers
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go func() {
		if err := grpcServer.Start(); err != nil {
			logger.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	logger.Info("spellforge started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.Int("worker_pool_size", cfg.Workers.PoolSize),
		zap.String("storage_backend", cfg.StorageBackend),
		zap.String("events_backend", cfg.EventsBackend))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")
	grpcServer.SetServing(false)

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	// Shutdown components
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := grpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("gRPC server shutdown error", zap.Error(err))
	}

	if err := orchestratorMgr.Shutdown(shutdownCtx); err != nil {
		logger.Error("orchestrator shutdown error", zap.Error(err))
	}

	if err := workerPool.Shutdown(shutdownCtx); err != nil {
		logger.Error("worker pool shutdown error", zap.Error(err))
	}

	if err := eventBus.Close(); err != nil {
		logger.Error("event bus close error", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}

	logger.Info("spellforge shut down complete")
}

// initAgent builds the agent from the configured capabilities. Missing
// credentials leave the matching capability unset.
func initAgent(cfg *config.Config, logger *zap.Logger) (*agent.Agent, func()) {
	ag := &agent.Agent{ID: "default", Name: "spellforge"}
	closers := []func(){}

	if cfg.Discord.Token != "" {
		client, err := discordgo.NewClient(cfg.Discord.Token, logger)
		if err != nil {
			logger.Fatal("failed to create Discord client", zap.Error(err))
		}
		ag.Discord = &agent.Discord{Client: client, GuildID: cfg.Discord.GuildID}
		closers = append(closers, func() {
			if err := client.Close(); err != nil {
				logger.Error("Discord close error", zap.Error(err))
			}
		})
		logger.Info("Discord capability enabled", zap.String("guild_id", cfg.Discord.GuildID))
	} else {
		logger.Warn("DISCORD_TOKEN not set, Discord components will report Agent not found")
	}

	if cfg.LLM.APIKey != "" {
		gen, err := llm.NewClient(&llm.Config{
			Provider:  cfg.LLM.Provider,
			APIKey:    cfg.LLM.APIKey,
			Model:     cfg.LLM.DefaultModel,
			MaxTokens: cfg.LLM.DefaultMaxTokens,
			Timeout:   cfg.LLM.RequestTimeout,
			Logger:    logger,
		})
		if err != nil {
			logger.Fatal("failed to create LLM client", zap.Error(err))
		}
		ag.LLM = gen
		logger.Info("LLM capability enabled",
			zap.String("provider", cfg.LLM.Provider),
			zap.String("model", cfg.LLM.DefaultModel))
	} else {
		logger.Warn("LLM_API_KEY not set, LLM components will report Agent not found")
	}

	return ag, func() {
		for _, c := range closers {
			c()
		}
	}
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapConfig.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
