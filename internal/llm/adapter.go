package llm

import (
	"context"
	"fmt"
	"time"
)

// Recognized provider tags. Anything else fails with ErrUnsupportedProvider.
const (
	ProviderOpenAI = "openai"
	ProviderGoogle = "google"
)

// Adapter is the interface all provider adapters implement.
type Adapter interface {
	// Name returns the adapter identifier for logging.
	Name() string

	// Generate sends the prompt pair to the provider and returns the raw
	// text completion, or a classified error from errors.go.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Config holds configuration shared by provider adapters.
type Config struct {
	// Model overrides the provider's default model.
	Model string `yaml:"model"`

	// FallbackModel overrides the Google adapter's fallback model.
	FallbackModel string `yaml:"fallback_model"`

	// MaxTokens limits response length (OpenAI only).
	MaxTokens int `yaml:"max_tokens"`

	// Temperature for sampling.
	Temperature float64 `yaml:"temperature"`

	// Timeout bounds a single provider call.
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the defaults the web app has always used.
func DefaultConfig() Config {
	return Config{
		Temperature: 0.7,
		MaxTokens:   4096,
		Timeout:     2 * time.Minute,
	}
}

// NewAdapter constructs the adapter for a provider tag. The credential is
// supplied per request, so adapters are built per call and hold no state
// beyond their client.
func NewAdapter(ctx context.Context, provider, apiKey string, config Config) (Adapter, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIAdapter(apiKey, config), nil
	case ProviderGoogle:
		return NewGoogleAdapter(ctx, apiKey, config)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
	}
}
