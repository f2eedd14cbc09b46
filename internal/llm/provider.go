package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// Provider defines the interface for capability model backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete drives one completion to its terminal output
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest contains the input for one capability completion
type CompletionRequest struct {
	// System is the role instruction for the capability
	System string

	// Prompt is the stage input message
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// Attachment is an optional binary document (ingestion stage only)
	Attachment []byte

	// AttachmentMIME is the attachment media type, e.g. application/pdf
	AttachmentMIME string
}

// CompletionResponse contains the terminal output of a completion
type CompletionResponse struct {
	// Text is the raw model reply, before normalization
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model is the default model when a request names none
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Timeout:   120,
		MaxTokens: 4000,
	}
}

// APIError is a provider HTTP failure carrying its status code,
// so callers can tell transient failures from terminal ones
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// IsTransient reports whether an error warrants a retry with backoff.
// Rate limiting and 5xx-class server errors are transient; everything
// else propagates untouched.
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	var oaErr *openai.APIError
	if errors.As(err, &oaErr) {
		return oaErr.HTTPStatusCode == 429 || oaErr.HTTPStatusCode >= 500
	}
	return false
}
