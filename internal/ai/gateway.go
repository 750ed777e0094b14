package ai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hyperdrift-io/whats-that-again/internal/conversation"
)

const (
	defaultMaxOutputTokens    = 1000
	defaultMemoryTagMaxTokens = 100
)

// Answer is the parsed reply to a primary query.
type Answer struct {
	Text       string
	Confidence float64
	Model      string
}

type GatewayOption func(*Gateway)

func WithMaxOutputTokens(n int) GatewayOption {
	return func(g *Gateway) {
		if n > 0 {
			g.maxOutputTokens = n
		}
	}
}

func WithMemoryTagMaxTokens(n int) GatewayOption {
	return func(g *Gateway) {
		if n > 0 {
			g.memoryTagMaxTokens = n
		}
	}
}

func WithGatewayLogger(log *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		g.log = log
	}
}

// Gateway shapes prompts for a Provider and parses what comes back.
type Gateway struct {
	provider           Provider
	maxOutputTokens    int
	memoryTagMaxTokens int
	log                *slog.Logger
}

func NewGateway(provider Provider, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		provider:           provider,
		maxOutputTokens:    defaultMaxOutputTokens,
		memoryTagMaxTokens: defaultMemoryTagMaxTokens,
		log:                slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Ask sends query plus history to model. Provider failures are not returned
// as errors: the answer text carries the error and confidence is 0.
func (g *Gateway) Ask(ctx context.Context, query string, history []conversation.Turn, model string) Answer {
	reply, err := g.provider.Complete(ctx, Request{
		Model:        model,
		SystemPrompt: answerSystemPrompt,
		Messages:     buildMessages(history, query),
		MaxTokens:    g.maxOutputTokens,
	})
	if err != nil {
		g.log.Error("ai query failed", "provider", g.provider.Name(), "model", model, "err", err)
		return Answer{Text: "Error: " + err.Error(), Confidence: 0, Model: model}
	}

	text, confidence := ParseConfidence(reply)
	return Answer{Text: text, Confidence: confidence, Model: model}
}

// MemoryTags asks model for up to five short phrases associated with term.
// Failures yield an empty slice.
func (g *Gateway) MemoryTags(ctx context.Context, term, originalQuery, model string) []string {
	reply, err := g.provider.Complete(ctx, Request{
		Model:        model,
		SystemPrompt: memoryTagSystemPrompt,
		Messages: []Message{
			{Role: conversation.RoleUser, Content: memoryTagUserPrompt(term, originalQuery)},
		},
		MaxTokens: g.memoryTagMaxTokens,
	})
	if err != nil {
		g.log.Warn("memory tag generation failed", "provider", g.provider.Name(), "model", model, "err", err)
		return []string{}
	}
	tags := ExtractTags(reply)
	if len(tags) == 0 {
		g.log.Debug("memory tag reply had no usable array", "reply", truncateForLog(reply, 200))
	}
	return tags
}

// buildMessages converts history to provider messages and appends query
// unless it is already the last user message.
func buildMessages(history []conversation.Turn, query string) []Message {
	messages := make([]Message, 0, len(history)+1)
	for _, turn := range history {
		role := strings.ToLower(strings.TrimSpace(turn.Role))
		if role != conversation.RoleUser && role != conversation.RoleAssistant {
			continue
		}
		messages = append(messages, Message{Role: role, Content: turn.Content})
	}

	if n := len(messages); n == 0 || messages[n-1].Role != conversation.RoleUser || messages[n-1].Content != query {
		messages = append(messages, Message{Role: conversation.RoleUser, Content: query})
	}
	return messages
}
