// Package apiserver provides the JSON API HTTP server of the diet gateway
package apiserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/nutriplan/dietai/internal/infrastructure/config"
	"github.com/nutriplan/dietai/internal/infrastructure/http/handlers"
	"github.com/nutriplan/dietai/internal/infrastructure/http/middleware"
	"github.com/nutriplan/dietai/internal/infrastructure/monitoring"
	"github.com/nutriplan/dietai/internal/ports/inbound"
	"github.com/nutriplan/dietai/pkg/healthcheck"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Routes served by the gateway
const (
	GenerateDietPath = "/api/generateDiet"
	AskAIPath        = "/api/askAI"
	ModelsPath       = "/api/models"
)

// Server is the gateway's HTTP server
type Server struct {
	config         *config.Config
	logger         *zap.Logger
	server         *http.Server
	router         *chi.Mux
	dietService    inbound.DietService
	health         *healthcheck.HealthCheck
	metrics        *monitoring.MetricsCollector
	openAPIHandler *OpenAPIHandler
}

// NewServer creates a new API server instance
func NewServer(
	cfg *config.Config,
	log *zap.Logger,
	dietService inbound.DietService,
	health *healthcheck.HealthCheck,
	metrics *monitoring.MetricsCollector,
) *Server {
	s := &Server{
		config:         cfg,
		logger:         log.Named("api-server"),
		dietService:    dietService,
		health:         health,
		metrics:        metrics,
		openAPIHandler: NewOpenAPIHandler(log),
	}

	s.router = s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.Address(),
		Handler:      otelhttp.NewHandler(s.router, cfg.App.Name),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     zap.NewStdLog(s.logger),
	}

	return s
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.CORS(s.config.Server.AllowedOrigins))
	if s.config.Monitoring.EnableMetrics {
		r.Use(s.metrics.HTTPMiddleware)
	}

	h := handlers.NewDietAPIHandlers(s.dietService, s.logger)
	r.Post(GenerateDietPath, h.GenerateDiet)
	r.Post(AskAIPath, h.AskAI)
	r.Get(ModelsPath, h.ListModels)
	r.NotFound(h.NotFound)

	r.Get(s.config.Monitoring.HealthCheckPath, s.health.Handler())
	r.Get("/health/live", s.health.LivenessHandler())
	r.Get("/health/ready", s.health.ReadinessHandler())

	if s.config.Monitoring.EnableMetrics {
		r.Method(http.MethodGet, s.config.Monitoring.MetricsPath, s.metrics.Handler())
	}

	r.Get(OpenAPIPath, s.openAPIHandler.ServeOpenAPISpec)
	// Swagger UI is not served in production
	if !s.config.IsProduction() {
		r.Get(DocsPath, s.openAPIHandler.ServeSwaggerUI)
	}

	return r
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server. It returns nil once the server is shut down.
func (s *Server) Start() error {
	s.logger.Info("Starting API server",
		zap.String("address", s.server.Addr),
		zap.String("provider", s.config.ActiveProvider()),
	)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server...")
	return s.server.Shutdown(ctx)
}
