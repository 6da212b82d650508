// Package diet provides the application layer of the diet gateway: one
// provider call per request, reshaped for the mobile client.
package diet

import (
	"context"
	"errors"
	"time"

	domain "github.com/nutriplan/dietai/internal/domain/diet"
	"github.com/nutriplan/dietai/internal/infrastructure/monitoring"
	"github.com/nutriplan/dietai/internal/ports/outbound"
	apperrors "github.com/nutriplan/dietai/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Messages returned to callers
const (
	MsgGenerateDietFailed = "Failed to generate diet plan."
	MsgAskFailed          = "Failed to get a response from the AI."
	MsgListModelsFailed   = "Failed to list models from Google API."
	MsgPromptRequired     = "A prompt is required."
	MsgModelsUnavailable  = "This feature is only available when USE_GEMINI is true."
	MsgAskUnavailable     = "This feature is currently configured for the Gemini API only."
)

// Operation names used in spans and metrics
const (
	OpGenerateDiet = "generate_diet"
	OpAsk          = "ask"
	OpListModels   = "list_models"
)

// Metrics is what the service records about provider calls
type Metrics interface {
	AIRequest(provider, model, operation, status string, duration time.Duration)
	DietPlan(valid bool, meals int)
	RecordError(service, errorType string)
}

// Service runs the gateway pipeline against the configured provider
type Service struct {
	provider outbound.AIProvider
	metrics  Metrics
	tracer   trace.Tracer
	logger   *zap.Logger
}

// NewService creates the gateway service
func NewService(provider outbound.AIProvider, metrics Metrics, tracer trace.Tracer, logger *zap.Logger) *Service {
	return &Service{
		provider: provider,
		metrics:  metrics,
		tracer:   tracer,
		logger:   logger.Named("diet-service"),
	}
}

// GenerateDiet builds the diet prompt, asks the provider and normalizes the
// answer. Text that is not JSON still succeeds, as an envelope.
func (s *Service) GenerateDiet(ctx context.Context, req domain.DietRequest) (domain.PlanResult, error) {
	prompt := domain.BuildDietPrompt(req)

	text, err := s.generate(ctx, OpGenerateDiet, prompt)
	if err != nil {
		return domain.PlanResult{}, s.toAppError(err, MsgGenerateDietFailed)
	}

	result := NormalizePlan(text)
	meals := 0
	if result.Valid {
		if plan, err := DecodePlan(result.Body); err == nil {
			meals = plan.MealCount()
			if missing := plan.MissingDays(); len(missing) > 0 {
				s.logger.Warn("Diet plan is missing days", zap.Strings("missing_days", missing))
			}
		} else {
			s.logger.Debug("Diet plan is not a weekday map", zap.Error(err))
		}
	} else {
		s.logger.Warn("AI did not return valid JSON", zap.Int("text_length", len(text)))
	}
	s.metrics.DietPlan(result.Valid, meals)

	return result, nil
}

// Ask forwards a free-text question and returns the answer verbatim. Only
// providers that answer questions serve it; the prompt is checked first.
func (s *Service) Ask(ctx context.Context, req domain.AskRequest) (domain.AskResponse, error) {
	prompt, err := domain.BuildAskPrompt(req.Prompt)
	if err != nil {
		return domain.AskResponse{}, apperrors.NewValidationError(MsgPromptRequired).WithCause(err)
	}

	if qa, ok := s.provider.(outbound.QuestionAnswerer); !ok || !qa.AnswersQuestions() {
		s.logger.Warn("askAI requested but the active provider does not answer questions",
			zap.String("provider", s.provider.Name()))
		return domain.AskResponse{}, apperrors.NewConfigurationError(MsgAskUnavailable)
	}

	text, err := s.generate(ctx, OpAsk, prompt)
	if err != nil {
		return domain.AskResponse{}, s.toAppError(err, MsgAskFailed)
	}

	return domain.AskResponse{Answer: text}, nil
}

// ListModels lists the models able to generate content. Only providers that
// can enumerate their models support it.
func (s *Service) ListModels(ctx context.Context) (domain.ModelList, error) {
	lister, ok := s.provider.(outbound.ModelLister)
	if !ok {
		return domain.ModelList{}, apperrors.NewNotImplementedError(MsgModelsUnavailable)
	}

	ctx, span := monitoring.StartAISpan(ctx, s.tracer, s.provider.Name(), s.provider.Model(), OpListModels)
	defer span.End()

	start := time.Now()
	models, err := lister.ListModels(ctx)
	s.record(OpListModels, start, err)
	if err != nil {
		monitoring.RecordError(span, err)
		return domain.ModelList{}, s.toAppError(err, MsgListModelsFailed)
	}
	span.SetAttributes(attribute.Int("ai.models", len(models)))

	return domain.ModelList{Models: models}, nil
}

func (s *Service) generate(ctx context.Context, operation, prompt string) (string, error) {
	ctx, span := monitoring.StartAISpan(ctx, s.tracer, s.provider.Name(), s.provider.Model(), operation)
	defer span.End()
	span.SetAttributes(attribute.Int("ai.prompt_length", len(prompt)))

	start := time.Now()
	text, err := s.provider.Generate(ctx, prompt)
	s.record(operation, start, err)
	if err != nil {
		monitoring.RecordError(span, err)
		return "", err
	}
	span.SetAttributes(attribute.Int("ai.response_length", len(text)))

	return text, nil
}

func (s *Service) record(operation string, start time.Time, err error) {
	status := monitoring.AIStatusSuccess
	if err != nil {
		status = monitoring.AIStatusError
	}
	s.metrics.AIRequest(s.provider.Name(), s.provider.Model(), operation, status, time.Since(start))
	if err != nil {
		s.metrics.RecordError(s.provider.Name(), errorType(err))
	}
}

// errorType classifies a failed provider call for the error counter
func errorType(err error) string {
	var providerErr *outbound.ProviderError
	if !errors.As(err, &providerErr) {
		return string(apperrors.GetCode(err))
	}
	switch {
	case providerErr.Timeout():
		return "timeout"
	case providerErr.StatusCode != 0:
		return "upstream_status"
	default:
		return "transport"
	}
}

// toAppError maps a provider failure onto the error returned to the caller:
// the upstream status (500 without one), the upstream error.message (the
// route default without one) and the upstream body as details.
func (s *Service) toAppError(err error, defaultMessage string) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var providerErr *outbound.ProviderError
	if !errors.As(err, &providerErr) {
		s.logger.Error("AI request failed", zap.Error(err))
		return apperrors.NewExternalServiceError(s.provider.Name(), defaultMessage, err)
	}

	message := providerErr.UpstreamMessage()
	if message == "" {
		message = defaultMessage
	}

	s.logger.Error("AI provider returned an error",
		zap.String("provider", providerErr.Provider),
		zap.Int("status", providerErr.StatusCode),
		zap.Bool("timeout", providerErr.Timeout()),
		zap.ByteString("body", providerErr.Body),
		zap.Error(providerErr.Err),
	)

	appErr = apperrors.NewExternalServiceError(providerErr.Provider, message, err)
	if providerErr.StatusCode != 0 {
		appErr = appErr.WithStatus(providerErr.StatusCode)
	}
	if details := providerErr.Details(); details != nil {
		appErr = appErr.WithMetadata(apperrors.MetadataDetails, details)
	}
	return appErr
}
