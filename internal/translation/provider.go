package translation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrProviderConfig is returned when a provider cannot be built from its configuration
	ErrProviderConfig = errors.New("invalid provider configuration")
	// ErrNoChoices is returned when the endpoint answers without any completion
	ErrNoChoices = errors.New("no completion returned")
)

// CompletionRequest is a single-message chat completion call
type CompletionRequest struct {
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// Provider defines the interface for chat-completion backends
type Provider interface {
	// Complete sends the prompt as the only user message and returns the reply text
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Name returns the provider name
	Name() string
}

// ProviderConfig holds what every backend needs to connect
type ProviderConfig struct {
	Provider string // "openai" or "gemini"
	Endpoint string
	APIKey   string

	// HTTPClient overrides the transport; nil uses the library default
	HTTPClient *http.Client
}

// DefaultModel returns the model used when none is configured
func DefaultModel(provider string) string {
	switch provider {
	case "gemini":
		return "gemini-2.0-flash"
	default:
		return "deepseek-chat"
	}
}

// NewProvider creates the backend named in the configuration
func NewProvider(ctx context.Context, cfg ProviderConfig) (Provider, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewOpenAIProvider(cfg)
	case "gemini":
		return NewGeminiProvider(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrProviderConfig, cfg.Provider)
	}
}
