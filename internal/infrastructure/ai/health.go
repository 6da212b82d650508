package ai

import (
	"context"
	"time"

	"github.com/nutriplan/dietai/internal/ports/outbound"
	"github.com/nutriplan/dietai/pkg/healthcheck"
	"go.uber.org/zap"
)

// HealthChecker reports on the configured AI provider without calling it
type HealthChecker struct {
	provider outbound.AIProvider
	logger   *zap.Logger
}

// NewHealthChecker creates a new AI health checker
func NewHealthChecker(provider outbound.AIProvider, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		provider: provider,
		logger:   logger.Named("ai-health"),
	}
}

// Check implements healthcheck.Checker
func (h *HealthChecker) Check(ctx context.Context) healthcheck.Check {
	start := time.Now()
	check := healthcheck.Check{
		Name:        "ai_provider",
		Status:      healthcheck.StatusHealthy,
		LastChecked: start,
	}

	_, lists := h.provider.(outbound.ModelLister)
	configured := true
	if cc, ok := h.provider.(outbound.CredentialChecker); ok {
		configured = cc.HasCredentials()
	}

	check.Metadata = map[string]interface{}{
		"provider":       h.provider.Name(),
		"model":          h.provider.Model(),
		"model_listing":  lists,
		"api_key_is_set": configured,
	}

	if !configured {
		check.Status = healthcheck.StatusDegraded
		check.Message = "API key is missing"
		h.logger.Warn("AI provider has no API key configured", zap.String("provider", h.provider.Name()))
	}

	check.Duration = time.Since(start)
	return check
}
