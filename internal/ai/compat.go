package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hyperdrift-io/whats-that-again/internal/conversation"
)

// CompatProvider implements Provider for any OpenAI-compatible Chat
// Completions endpoint (DeepSeek, MiniMax, Ollama, vLLM, ...).
type CompatProvider struct {
	client openai.Client
}

func NewCompatProvider(apiKey, baseURL string, timeout time.Duration) *CompatProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(apiKey)),
		option.WithMaxRetries(0),
	}
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	return &CompatProvider{client: openai.NewClient(opts...)}
}

func (p *CompatProvider) Name() string { return "compat" }

func (p *CompatProvider) Complete(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Model) == "" {
		return "", errors.New("compat: model is required")
	}
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: buildCompatMessages(req),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("compat: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("compat: response had no choices")
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("compat: response content is empty")
	}
	return content, nil
}

func buildCompatMessages(req Request) []openai.ChatCompletionMessageParamUnion {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		params = append(params, openai.SystemMessage(req.SystemPrompt))
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case conversation.RoleUser:
			params = append(params, openai.UserMessage(msg.Content))
		case conversation.RoleAssistant:
			params = append(params, openai.AssistantMessage(msg.Content))
		}
	}
	return params
}
