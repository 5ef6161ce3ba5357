package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aescanero/spellforge/internal/application/registry"
	"github.com/aescanero/spellforge/internal/application/workers"
	"github.com/aescanero/spellforge/pkg/agent"
	"github.com/aescanero/spellforge/pkg/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SpellService is the orchestrator surface the API needs.
// *orchestrator.Manager implements it.
type SpellService interface {
	SubmitSpell(ctx context.Context, spell *domain.Spell, inputs map[string]any) (string, error)
	GetStatus(ctx context.Context, executionID string) (*domain.SpellState, error)
	ListExecutions(ctx context.Context) ([]*domain.SpellState, error)
	CancelExecution(ctx context.Context, executionID string) error
}

// Server represents the HTTP API server
type Server struct {
	router   *gin.Engine
	server   *http.Server
	spells   SpellService
	registry *registry.Registry
	health   *workers.HealthMonitor
	agent    *agent.Agent
	logger   *zap.Logger
}

// Config holds HTTP server configuration
type Config struct {
	Port     int
	Spells   SpellService
	Registry *registry.Registry
	// Health reports worker pool health on /health; optional
	Health *workers.HealthMonitor
	// Agent is handed to tools invoked through the API; optional
	Agent *agent.Agent
	// Gatherer backs /metrics; defaults to the global registry
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(cfg.Logger))
	router.Use(corsMiddleware())

	s := &Server{
		router:   router,
		spells:   cfg.Spells,
		registry: cfg.Registry,
		health:   cfg.Health,
		agent:    cfg.Agent,
		logger:   cfg.Logger,
	}

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s.setupRoutes(gatherer)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	return s
}

// setupRoutes configures API routes
func (s *Server) setupRoutes(gatherer prometheus.Gatherer) {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// Metrics
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// API v1
	v1 := s.router.Group("/api/v1")
	{
		// Spell endpoints
		v1.POST("/spells", s.handleSubmitSpell)
		v1.GET("/spells", s.handleListSpells)
		v1.GET("/spells/:id", s.handleGetSpell)
		v1.GET("/spells/:id/status", s.handleGetStatus)
		v1.GET("/spells/:id/result", s.handleGetResult)
		v1.POST("/spells/:id/cancel", s.handleCancelSpell)

		// Plugin catalog
		v1.GET("/components", s.handleListComponents)
		v1.GET("/tools", s.handleListTools)
		v1.POST("/tools/:id/invoke", s.handleInvokeTool)
	}
}

// SetupWebSocket adds the execution event stream to the server
func (s *Server) SetupWebSocket(handler interface{ HandleSpellStream(*gin.Context) }) {
	s.router.GET("/api/v1/spells/:id/ws", handler.HandleSpellStream)
}

// Handler returns the root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server shut down complete")
	return nil
}
