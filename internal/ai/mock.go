package ai

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/hyperdrift-io/whats-that-again/internal/conversation"
)

// MockProvider answers offline with canned replies. It is selected with
// AI_PROVIDER=mock for local frontend work.
type MockProvider struct{}

func (MockProvider) Name() string { return "mock" }

func (MockProvider) Complete(_ context.Context, req Request) (string, error) {
	question := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == conversation.RoleUser {
			question = strings.TrimSpace(req.Messages[i].Content)
			break
		}
	}
	if question == "" {
		question = "No question provided."
	}

	if req.SystemPrompt == memoryTagSystemPrompt {
		return mockTags(question), nil
	}

	lowered := strings.ToLower(question)
	answer := "Mock response: " + question + "\nConfidence: 0.5"
	switch {
	case strings.Contains(lowered, "big") && strings.Contains(lowered, "piano"):
		answer = "The movie you're thinking of is Big (1988), starring Tom Hanks.\nConfidence: 0.9"
	case strings.Contains(lowered, "song"):
		answer = "It might be \"Wonderwall\" by Oasis, but I'm not sure.\nConfidence: 0.2"
	}
	return answer, nil
}

func mockTags(prompt string) string {
	subject := prompt
	for _, line := range strings.Split(prompt, "\n") {
		if term, ok := strings.CutPrefix(strings.TrimSpace(line), "Term to generate memory tags for:"); ok {
			subject = term
			break
		}
	}

	words := strings.Fields(strings.ToLower(subject))
	tags := make([]string, 0, 3)
	seen := make(map[string]struct{})
	for i := len(words) - 1; i >= 0 && len(tags) < 3; i-- {
		word := strings.Trim(words[i], ".,:;!?\"'()")
		if len(word) < 4 {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		tags = append(tags, word)
	}
	encoded, _ := json.Marshal(tags)
	return "Here are some tags: " + string(encoded)
}
