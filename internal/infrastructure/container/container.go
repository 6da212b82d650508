// Package container provides dependency injection using Uber FX
package container

import (
	"context"

	appdiet "github.com/nutriplan/dietai/internal/application/diet"
	"github.com/nutriplan/dietai/internal/infrastructure/ai"
	"github.com/nutriplan/dietai/internal/infrastructure/config"
	"github.com/nutriplan/dietai/internal/infrastructure/http/apiserver"
	"github.com/nutriplan/dietai/internal/infrastructure/monitoring"
	"github.com/nutriplan/dietai/internal/ports/inbound"
	"github.com/nutriplan/dietai/internal/ports/outbound"
	"github.com/nutriplan/dietai/pkg/healthcheck"
	"github.com/nutriplan/dietai/pkg/logger"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides all dependency injection modules
var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	MonitoringModule,
	ProviderModule,
	ServiceModule,
	HealthModule,
	HTTPModule,
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func() (*config.Config, error) {
		return config.Load("")
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.IsDevelopment(),
		})
	},
)

// MonitoringModule provides metrics and tracing
var MonitoringModule = fx.Provide(
	monitoring.NewMetricsCollector,
	func(cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		return monitoring.NewTracingProvider(monitoring.TracingConfig{
			ServiceName:    cfg.App.Name,
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
			SamplingRate:   cfg.Monitoring.SamplingRate,
			Enabled:        cfg.Monitoring.EnableTracing,
		}, log)
	},
	func(tp *monitoring.TracingProvider) trace.Tracer {
		return tp.Tracer()
	},
)

// ProviderModule selects the AI provider once, at startup
var ProviderModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) outbound.AIProvider {
		return ai.NewProvider(cfg, log)
	},
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	fx.Annotate(
		func(provider outbound.AIProvider, metrics *monitoring.MetricsCollector, tracer trace.Tracer, log *zap.Logger) *appdiet.Service {
			return appdiet.NewService(provider, metrics, tracer, log)
		},
		fx.As(new(inbound.DietService)),
	),
)

// HealthModule provides the health checks
var HealthModule = fx.Provide(
	NewHealthCheck,
)

// HTTPModule provides the HTTP server
var HTTPModule = fx.Provide(
	apiserver.NewServer,
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// NewHealthCheck registers the gateway's health checks
func NewHealthCheck(cfg *config.Config, provider outbound.AIProvider, log *zap.Logger) *healthcheck.HealthCheck {
	health := healthcheck.New(cfg.App.Version, log.Named("health"))
	health.Register("ai_provider", ai.NewHealthChecker(provider, log))
	health.Register("config", healthcheck.NewCustomChecker("config",
		func(ctx context.Context) (healthcheck.Status, string, interface{}) {
			return healthcheck.StatusHealthy, "Configuration loaded", map[string]interface{}{
				"environment": cfg.App.Environment,
				"provider":    cfg.ActiveProvider(),
				"tracing":     cfg.Monitoring.EnableTracing,
			}
		},
	))
	return health
}

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	server *apiserver.Server,
	tracing *monitoring.TracingProvider,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting diet gateway",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("provider", cfg.ActiveProvider()),
			)

			go func() {
				if err := server.Start(); err != nil {
					log.Error("HTTP server failed", zap.Error(err))
					_ = shutdowner.Shutdown()
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down diet gateway")

			if err := server.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			if err := tracing.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown tracing", zap.Error(err))
			}

			_ = log.Sync()

			return nil
		},
	})
}
