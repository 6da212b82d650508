// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/tidwall/gjson"
)

// AIProvider is a generative-AI backend reduced to a single text completion
type AIProvider interface {
	// Name identifies the provider in logs, metrics and health output
	Name() string
	// Model is the model the provider generates with
	Model() string
	// Generate sends one prompt and returns the response text. Exactly one
	// HTTP request is made; nothing is retried.
	Generate(ctx context.Context, prompt string) (string, error)
}

// ModelLister is implemented by providers able to enumerate their models
type ModelLister interface {
	// ListModels returns the names of models that support content generation
	ListModels(ctx context.Context) ([]string, error)
}

// QuestionAnswerer is implemented by providers that serve free-text questions
type QuestionAnswerer interface {
	AnswersQuestions() bool
}

// CredentialChecker reports whether a provider has the credentials it needs
type CredentialChecker interface {
	HasCredentials() bool
}

// ProviderError is a failed exchange with a provider. StatusCode is zero when
// no HTTP response was received (timeout, connection failure) or when a
// successful response could not be read.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: upstream returned %d: %s", e.Provider, e.StatusCode, string(e.Body))
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// UpstreamMessage returns error.message from the upstream body, if any
func (e *ProviderError) UpstreamMessage() string {
	if e.StatusCode == 0 || len(e.Body) == 0 || !gjson.ValidBytes(e.Body) {
		return ""
	}
	return gjson.GetBytes(e.Body, "error.message").String()
}

// Details returns the upstream body as JSON: the body itself when it is JSON,
// a JSON string otherwise, and nil when no response was received.
func (e *ProviderError) Details() json.RawMessage {
	if e.StatusCode == 0 || len(e.Body) == 0 {
		return nil
	}
	if json.Valid(e.Body) {
		return json.RawMessage(e.Body)
	}
	quoted, err := json.Marshal(string(e.Body))
	if err != nil {
		return nil
	}
	return quoted
}

// Timeout reports whether the request ran out of time
func (e *ProviderError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}
