// Package transport holds the HTTP plumbing shared by the provider clients
package transport

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nutriplan/dietai/internal/ports/outbound"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxBodyBytes bounds how much of a provider response is read
const maxBodyBytes = 8 << 20

// NewHTTPClient returns a client with a fixed timeout and traced transport
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// Do performs a single request and returns the body of a 2xx response.
// Anything else comes back as *outbound.ProviderError.
func Do(client *http.Client, provider string, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, &outbound.ProviderError{
			Provider: provider,
			Err:      fmt.Errorf("request failed: %w", err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &outbound.ProviderError{
			Provider: provider,
			Err:      fmt.Errorf("failed to read response: %w", err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &outbound.ProviderError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Body:       body,
			Err:        fmt.Errorf("API error %d", resp.StatusCode),
		}
	}

	return body, nil
}

// Malformed reports a 2xx body that did not have the expected shape
func Malformed(provider string, body []byte, cause error) error {
	return &outbound.ProviderError{
		Provider: provider,
		Body:     body,
		Err:      fmt.Errorf("unexpected response: %w", cause),
	}
}
