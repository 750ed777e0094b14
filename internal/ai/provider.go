// Package ai talks to the external language-model provider: it picks the
// model tier, shapes prompts, and turns free-text replies into answers,
// confidence scores and memory tags.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hyperdrift-io/whats-that-again/internal/config"
)

// Message is one role-tagged entry sent to a provider.
type Message struct {
	Role    string
	Content string
}

// Request is a provider-neutral completion request.
type Request struct {
	Model        string
	SystemPrompt string
	Messages     []Message
	MaxTokens    int
}

// Provider sends one completion request and returns the reply text.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// NewProvider builds the provider selected by cfg.AIProvider.
func NewProvider(ctx context.Context, cfg config.Config, log *slog.Logger) (Provider, error) {
	timeout := time.Duration(cfg.AITimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	switch strings.ToLower(strings.TrimSpace(cfg.AIProvider)) {
	case config.ProviderAnthropic:
		return NewAnthropicProvider(cfg.AnthropicAPIKey, WithAnthropicTimeout(timeout)), nil
	case config.ProviderOpenAI:
		return NewOpenAIResponsesProvider(
			cfg.OpenAIAPIKey,
			cfg.OpenAIBaseURL,
			&http.Client{Timeout: timeout},
			log,
		), nil
	case config.ProviderCompat:
		return NewCompatProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, timeout), nil
	case config.ProviderGemini:
		return NewGeminiProvider(ctx, cfg.GeminiAPIKey, &http.Client{Timeout: timeout})
	case config.ProviderMock:
		return MockProvider{}, nil
	}
	return nil, fmt.Errorf("unsupported AI provider %q", cfg.AIProvider)
}
