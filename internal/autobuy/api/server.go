package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trigg3rX/autobuy-backend/internal/autobuy/api/handlers"
	"github.com/trigg3rX/autobuy-backend/internal/autobuy/poller"
	"github.com/trigg3rX/autobuy-backend/pkg/logging"
)

// Server represents the API server
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	logger     logging.Logger
}

// Config holds the server configuration
type Config struct {
	Port string
}

// Dependencies holds the server dependencies
type Dependencies struct {
	Logger    logging.Logger
	Pollers   []poller.Runner
	Health    handlers.HealthCheck
	StartedAt time.Time
}

// NewServer creates a new API server
func NewServer(cfg Config, deps Dependencies) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(TraceMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(LoggerMiddleware(deps.Logger))
	router.Use(ErrorMiddleware(deps.Logger))

	srv := &Server{
		router: router,
		logger: deps.Logger,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	srv.setupRoutes(deps)
	return srv
}

// Start blocks serving requests until Stop is called
func (s *Server) Start() error {
	s.logger.Info("Starting API server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes(deps Dependencies) {
	statusHandler := handlers.NewStatusHandler(deps.Logger, deps.Health, deps.StartedAt)
	metricsHandler := handlers.NewMetricsHandler(deps.Logger)
	pollerHandler := handlers.NewPollerHandler(deps.Logger, deps.Pollers)

	s.router.GET("/status", statusHandler.Status)
	s.router.GET("/metrics", metricsHandler.Metrics)

	api := s.router.Group("/api/v1")
	{
		api.GET("/pollers", pollerHandler.List)
		api.GET("/pollers/:name", pollerHandler.Get)
	}
}
