// Package gemini provides Google Gemini integration over its REST API
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nutriplan/dietai/internal/infrastructure/ai/transport"
	"github.com/nutriplan/dietai/internal/infrastructure/config"
	apperrors "github.com/nutriplan/dietai/pkg/errors"
	"github.com/nutriplan/dietai/pkg/logger"
	"go.uber.org/zap"
)

// ProviderName identifies Gemini in logs and metrics
const ProviderName = "gemini"

// MissingKeyMessage is returned to callers when GEMINI_API_KEY is unset
const MissingKeyMessage = "Server configuration error: Gemini API key is missing."

// generateContentMethod is the generation method a listed model must support
const generateContentMethod = "generateContent"

// Client implements outbound.AIProvider and outbound.ModelLister against
// the Gemini REST API. The key travels as the "key" query parameter.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a new Gemini client
func NewClient(cfg config.ProviderConfig, timeout time.Duration, log *zap.Logger) *Client {
	c := &Client{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  transport.NewHTTPClient(timeout),
		logger:  log.Named("gemini-client"),
	}

	c.logger.Info("Gemini client initialized",
		zap.String("base_url", c.baseURL),
		zap.String("model", c.model),
		zap.Duration("timeout", timeout),
		zap.Bool("api_key_set", c.apiKey != ""),
	)

	return c
}

// Gemini API structures
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type listModelsResponse struct {
	Models []struct {
		Name                       string   `json:"name"`
		SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
	} `json:"models"`
}

// Name returns the provider name
func (c *Client) Name() string {
	return ProviderName
}

// Model returns the configured model
func (c *Client) Model() string {
	return c.model
}

// HasCredentials reports whether an API key is configured
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// AnswersQuestions reports that Gemini serves the askAI route
func (c *Client) AnswersQuestions() bool {
	return true
}

// Generate sends the prompt to models/{model}:generateContent and returns the
// text of the first part of the first candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		c.logger.Error("Gemini API key is missing. Make sure GEMINI_API_KEY is set.")
		return "", apperrors.NewConfigurationError(MissingKeyMessage)
	}

	c.logger.Info("Sending prompt to Gemini",
		zap.String("model", c.model),
		zap.Int("prompt_length", len(prompt)),
		zap.String("api_key", logger.MaskSecret(c.apiKey)),
	)
	c.logger.Debug("Gemini prompt", zap.String("prompt", prompt))

	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := c.endpoint(fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.model)))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := transport.Do(c.client, ProviderName, req)
	if err != nil {
		return "", err
	}

	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", transport.Malformed(ProviderName, body, err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", transport.Malformed(ProviderName, body, errors.New("no candidate text returned"))
	}

	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// ListModels returns the names of the models that support generateContent
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	if c.apiKey == "" {
		c.logger.Error("Gemini API key is missing. Make sure GEMINI_API_KEY is set.")
		return nil, apperrors.NewConfigurationError(MissingKeyMessage)
	}

	c.logger.Info("Fetching Gemini model list")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/models"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	body, err := transport.Do(c.client, ProviderName, req)
	if err != nil {
		return nil, err
	}

	var resp listModelsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, transport.Malformed(ProviderName, body, err)
	}

	models := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		for _, method := range m.SupportedGenerationMethods {
			if method == generateContentMethod {
				models = append(models, m.Name)
				break
			}
		}
	}

	c.logger.Info("Fetched Gemini models", zap.Strings("models", models))
	return models, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + path + "?" + url.Values{"key": {c.apiKey}}.Encode()
}
