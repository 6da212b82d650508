package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nutriplan/dietai/internal/infrastructure/config"
	"github.com/nutriplan/dietai/internal/ports/outbound"
	apperrors "github.com/nutriplan/dietai/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, baseURL, apiKey string) *Client {
	t.Helper()
	return NewClient(config.ProviderConfig{
		APIKey:      apiKey,
		Model:       "gpt-3.5-turbo",
		BaseURL:     baseURL,
		MaxTokens:   1200,
		Temperature: 0.7,
	}, time.Second, zaptest.NewLogger(t))
}

func TestClient_Generate(t *testing.T) {
	var received ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		_, _ = w.Write([]byte(`{
			"choices":[{"message":{"role":"assistant","content":"{\"Monday\":[]}"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "sk-test-key")

	text, err := client.Generate(context.Background(), "plan please")
	require.NoError(t, err)

	assert.Equal(t, `{"Monday":[]}`, text)
	assert.Equal(t, "gpt-3.5-turbo", received.Model)
	assert.Equal(t, 1200, received.MaxTokens)
	assert.InDelta(t, 0.7, received.Temperature, 1e-9)
	require.Len(t, received.Messages, 1)
	assert.Equal(t, Message{Role: "user", Content: "plan please"}, received.Messages[0])
}

func TestClient_Generate_MissingKey(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1", "")

	_, err := client.Generate(context.Background(), "plan please")

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeConfiguration))
	assert.Equal(t, MissingKeyMessage, apperrors.Wrap(err, "").Message)
}

func TestClient_Generate_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "sk-wrong")

	_, err := client.Generate(context.Background(), "plan please")

	var providerErr *outbound.ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, http.StatusUnauthorized, providerErr.StatusCode)
	assert.Equal(t, "Incorrect API key provided", providerErr.UpstreamMessage())
}

func TestClient_Generate_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "sk-test-key")

	_, err := client.Generate(context.Background(), "plan please")

	var providerErr *outbound.ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Zero(t, providerErr.StatusCode)
}
