package container

import (
	"context"
	"testing"

	"github.com/nutriplan/dietai/internal/infrastructure/config"
	"github.com/nutriplan/dietai/internal/infrastructure/http/apiserver"
	"github.com/nutriplan/dietai/internal/ports/inbound"
	"github.com/nutriplan/dietai/internal/ports/outbound"
	"github.com/nutriplan/dietai/pkg/healthcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"
)

func TestModule_Validate(t *testing.T) {
	require.NoError(t, fx.ValidateApp(Module))
}

func TestModule_Graph(t *testing.T) {
	t.Setenv("USE_GEMINI", "true")
	t.Setenv("GEMINI_API_KEY", "test-key")

	var (
		provider outbound.AIProvider
		service  inbound.DietService
		server   *apiserver.Server
		health   *healthcheck.HealthCheck
	)
	app := fxtest.New(t,
		ConfigModule,
		LoggerModule,
		MonitoringModule,
		ProviderModule,
		ServiceModule,
		HealthModule,
		HTTPModule,
		fx.NopLogger,
		fx.Populate(&provider, &service, &server, &health),
	)
	require.NoError(t, app.Err())

	assert.Equal(t, config.ProviderGemini, provider.Name())
	assert.NotNil(t, service)
	assert.NotNil(t, server)

	resp := health.Check(context.Background())
	assert.Equal(t, healthcheck.StatusHealthy, resp.Status)
	assert.Len(t, resp.Checks, 2)
}

func TestNewHealthCheck_MissingKeyIsDegraded(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cfg := &config.Config{
		App: config.AppConfig{Version: "1.0.0", Environment: "test"},
		AI:  config.AIConfig{UseGeminiFlag: "false"},
	}

	var provider outbound.AIProvider = &stubProvider{}
	health := NewHealthCheck(cfg, provider, logger)

	resp := health.Check(context.Background())
	assert.Equal(t, healthcheck.StatusDegraded, resp.Status)
}

type stubProvider struct{}

func (stubProvider) Name() string         { return "stub" }
func (stubProvider) Model() string        { return "stub-model" }
func (stubProvider) HasCredentials() bool { return false }
func (stubProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return "", nil
}
