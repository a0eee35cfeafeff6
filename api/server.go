// Package api exposes the fingerprinting pipeline over HTTP: ingest,
// match, and a healthz probe, fronted by tenant-extraction and
// tenant-scoped rate-limit middleware.
package api

import (
	"context"
	"net/http"
	"time"

	"contentfp/api/handlers"
	"contentfp/api/middleware"
	"contentfp/config"
	"contentfp/index"
	"contentfp/observability"
	"contentfp/resilience"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server wraps the gin engine and the collaborators every handler needs.
type Server struct {
	router  *gin.Engine
	logger  *zap.Logger
	config  *config.Config
	backend index.Backend
	sink    observability.Sink
}

// NewServer wires the backend and resilience registry into a ready-to-run
// router. sink may be nil, in which case events are discarded.
func NewServer(logger *zap.Logger, cfg *config.Config, backend index.Backend, sink observability.Sink) *Server {
	gin.SetMode(gin.ReleaseMode)

	if sink == nil {
		sink = observability.NoopSink{}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		c.Set("logger", logger)
		c.Next()
	})

	registry := resilience.NewRegistry(
		cfg.Resilience.CircuitFailThreshold,
		cfg.Resilience.CircuitResetTimeout,
		cfg.Resilience.RateLimitPerSecond,
		cfg.Resilience.RateLimitBurst,
	)

	router.Use(middleware.TenantID(cfg.Ingest.DefaultTenantID))
	router.Use(middleware.RateLimit(registry))

	server := &Server{
		router:  router,
		logger:  logger,
		config:  cfg,
		backend: backend,
		sink:    sink,
	}
	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", handlers.Healthz)

	pc := adaptConfig(s.config)
	ingestHandler := handlers.NewIngestHandler(s.backend, pc.Ingest, pc.Canonical, pc.Perceptual, pc.Semantic, pc.Quantization, s.sink)
	matchHandler := handlers.NewMatchHandler(s.backend, pc.Matcher, pc.Canonical, pc.Perceptual, pc.Semantic, s.sink)

	v1 := s.router.Group("/v1")
	v1.POST("/ingest", ingestHandler.Handle)
	v1.POST("/match", matchHandler.Handle)
}

// Start runs the server until ctx is cancelled, then gracefully shuts down.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Info("starting fingerprinting API server", zap.String("address", addr))

	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("API server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()

	s.logger.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
