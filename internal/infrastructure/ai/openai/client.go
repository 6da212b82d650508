// Package openai provides OpenAI chat-completions integration
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nutriplan/dietai/internal/infrastructure/ai/transport"
	"github.com/nutriplan/dietai/internal/infrastructure/config"
	apperrors "github.com/nutriplan/dietai/pkg/errors"
	"github.com/nutriplan/dietai/pkg/logger"
	"go.uber.org/zap"
)

// ProviderName identifies OpenAI in logs and metrics
const ProviderName = "openai"

// MissingKeyMessage is returned to callers when OPENAI_API_KEY is unset
const MissingKeyMessage = "Server configuration error: API key is missing."

// Client implements outbound.AIProvider using the OpenAI chat completions API
type Client struct {
	apiKey      string
	model       string
	baseURL     string
	maxTokens   int
	temperature float64
	client      *http.Client
	logger      *zap.Logger
}

// NewClient creates a new OpenAI client
func NewClient(cfg config.ProviderConfig, timeout time.Duration, log *zap.Logger) *Client {
	c := &Client{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		client:      transport.NewHTTPClient(timeout),
		logger:      log.Named("openai-client"),
	}

	c.logger.Info("OpenAI client initialized",
		zap.String("base_url", c.baseURL),
		zap.String("model", c.model),
		zap.Duration("timeout", timeout),
		zap.Bool("api_key_set", c.apiKey != ""),
	)

	return c
}

// OpenAI API structures
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionResponse struct {
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
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

// Generate sends the prompt as a single user message and returns the content
// of the first choice.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		c.logger.Error("OpenAI API key is missing. Make sure OPENAI_API_KEY is set.")
		return "", apperrors.NewConfigurationError(MissingKeyMessage)
	}

	c.logger.Info("Sending prompt to OpenAI",
		zap.String("model", c.model),
		zap.Int("prompt_length", len(prompt)),
		zap.String("api_key", logger.MaskSecret(c.apiKey)),
	)
	c.logger.Debug("OpenAI prompt", zap.String("prompt", prompt))

	payload, err := json.Marshal(ChatCompletionRequest{
		Model:       c.model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	body, err := transport.Do(c.client, ProviderName, req)
	if err != nil {
		return "", err
	}

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", transport.Malformed(ProviderName, body, err)
	}
	if len(chatResp.Choices) == 0 {
		return "", transport.Malformed(ProviderName, body, errors.New("no response choices returned"))
	}

	c.logger.Info("OpenAI API call successful",
		zap.Int("prompt_tokens", chatResp.Usage.PromptTokens),
		zap.Int("completion_tokens", chatResp.Usage.CompletionTokens),
		zap.Int("total_tokens", chatResp.Usage.TotalTokens),
	)

	return chatResp.Choices[0].Message.Content, nil
}
