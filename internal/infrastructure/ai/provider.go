// Package ai selects the generative-AI provider the gateway talks to
package ai

import (
	"github.com/nutriplan/dietai/internal/infrastructure/ai/gemini"
	"github.com/nutriplan/dietai/internal/infrastructure/ai/openai"
	"github.com/nutriplan/dietai/internal/infrastructure/config"
	"github.com/nutriplan/dietai/internal/ports/outbound"
	"go.uber.org/zap"
)

// NewProvider builds the provider chosen by USE_GEMINI. The choice is made
// once; the returned provider is shared read-only by every request.
func NewProvider(cfg *config.Config, logger *zap.Logger) outbound.AIProvider {
	var provider outbound.AIProvider
	switch cfg.ActiveProvider() {
	case config.ProviderGemini:
		provider = gemini.NewClient(cfg.AI.Gemini, cfg.AI.Timeout, logger)
	default:
		provider = openai.NewClient(cfg.AI.OpenAI, cfg.AI.Timeout, logger)
	}

	_, lists := provider.(outbound.ModelLister)
	logger.Info("AI provider selected",
		zap.String("provider", provider.Name()),
		zap.String("model", provider.Model()),
		zap.Bool("model_listing", lists),
	)

	return provider
}
