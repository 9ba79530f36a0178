// Package llm talks to hosted generative text APIs.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/planthelper/backend/config"
)

// ErrMissingAPIKey is returned when a call is attempted without credentials
var ErrMissingAPIKey = errors.New("no API key configured for the generative text service")

// CompletionRequest is a provider-neutral single-turn completion
type CompletionRequest struct {
	System           string
	Prompt           string
	MaxTokens        int
	Temperature      float64
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
}

// Client abstracts a generative text provider
type Client interface {
	// Complete returns the raw text produced for req
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// Provider returns a short provider label, e.g. "openai"
	Provider() string
}

// APIError is returned for non-2xx responses from the provider
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// New builds the client selected by cfg.LLMProvider
func New(ctx context.Context, cfg *config.Config) (Client, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIAPIURL, cfg.OpenAIModel), nil
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiAPIURL, cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}
