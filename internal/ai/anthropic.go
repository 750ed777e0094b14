package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hyperdrift-io/whats-that-again/internal/conversation"
)

// AnthropicProvider implements Provider with the Anthropic Messages API.
type AnthropicProvider struct {
	client anthropic.Client
}

type AnthropicOption func(*[]anthropicoption.RequestOption)

func WithAnthropicBaseURL(baseURL string) AnthropicOption {
	return func(opts *[]anthropicoption.RequestOption) {
		*opts = append(*opts, anthropicoption.WithBaseURL(baseURL))
	}
}

func WithAnthropicTimeout(timeout time.Duration) AnthropicOption {
	return func(opts *[]anthropicoption.RequestOption) {
		*opts = append(*opts, anthropicoption.WithRequestTimeout(timeout))
	}
}

func NewAnthropicProvider(apiKey string, opts ...AnthropicOption) *AnthropicProvider {
	requestOpts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(strings.TrimSpace(apiKey)),
		anthropicoption.WithMaxRetries(0),
	}
	for _, opt := range opts {
		opt(&requestOpts)
	}
	return &AnthropicProvider{client: anthropic.NewClient(requestOpts...)}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Complete(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Model) == "" {
		return "", errors.New("anthropic: model is required")
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  buildAnthropicMessages(req.Messages),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}

	parts := make([]string, 0, len(message.Content))
	for _, block := range message.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", errors.New("anthropic: response had no text content")
	}
	return strings.Join(parts, "\n"), nil
}

func buildAnthropicMessages(messages []Message) []anthropic.MessageParam {
	params := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		block := anthropic.NewTextBlock(msg.Content)
		switch msg.Role {
		case conversation.RoleUser:
			params = append(params, anthropic.NewUserMessage(block))
		case conversation.RoleAssistant:
			params = append(params, anthropic.NewAssistantMessage(block))
		}
	}
	return params
}
