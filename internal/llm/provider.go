// Package llm adds an optional narrative layer on top of finished
// recommendation responses. Providers are plain text generators; the
// summarizer owns prompt construction and output discipline. Nothing
// here ever influences retrieval scores or ranks.
package llm

import (
	"context"

	"github.com/dwisetya/recase/internal/model"
)

// Provider is one LLM backend.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Generate produces text for a prompt.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// IsAvailable checks that the provider is configured and reachable.
	IsAvailable(ctx context.Context) bool
}

// GenerateRequest is one text generation call.
type GenerateRequest struct {
	// System sets the assistant's role.
	System string

	// Prompt is the user-turn content.
	Prompt string

	// Model overrides the configured model when non-empty.
	Model string

	// MaxTokens limits the response length.
	MaxTokens int
}

// GenerateResponse is the provider's output.
type GenerateResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds provider configuration.
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", "".
	Provider string

	// Model name, provider-specific.
	Model string

	// APIKey for hosted providers.
	APIKey string

	// BaseURL for custom endpoints (e.g. Ollama, proxies).
	BaseURL string

	// Timeout in seconds for API requests.
	Timeout int

	// MaxTokens for response generation.
	MaxTokens int
}

// DefaultConfig returns the disabled-by-default configuration.
func DefaultConfig() Config {
	return Config{
		Provider:  "",
		Timeout:   30,
		MaxTokens: 800,
	}
}

// ConfigFromModel converts the application config section.
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:  mc.Provider,
		Model:     mc.Model,
		APIKey:    mc.APIKey,
		BaseURL:   mc.BaseURL,
		Timeout:   mc.Timeout,
		MaxTokens: mc.MaxTokens,
	}
}
