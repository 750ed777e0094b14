package ai

import (
	"github.com/hyperdrift-io/whats-that-again/internal/config"
	"github.com/hyperdrift-io/whats-that-again/internal/conversation"
)

// Tiers is the fixed escalation order of model ids. Index 0 is the default.
type Tiers []string

var defaultTiers = map[string]Tiers{
	config.ProviderAnthropic: {"claude-3-7-sonnet-20250219", "claude-3-opus-20240229"},
	config.ProviderOpenAI:    {"gpt-5-mini", "gpt-5"},
	config.ProviderGemini:    {"gemini-2.5-flash", "gemini-2.5-pro"},
	config.ProviderMock:      {"mock-standard", "mock-advanced"},
}

// ResolveTiers returns the configured override, or the provider's defaults.
func ResolveTiers(cfg config.Config) Tiers {
	if len(cfg.ModelTiers) > 0 {
		return Tiers(cfg.ModelTiers)
	}
	return defaultTiers[cfg.AIProvider]
}

// Model returns the model id for level, clamped into range.
func (t Tiers) Model(level int) string {
	if len(t) == 0 {
		return ""
	}
	if level < 0 {
		level = 0
	}
	if level >= len(t) {
		level = len(t) - 1
	}
	return t[level]
}

func (t Tiers) Index(model string) int {
	for i, m := range t {
		if m == model {
			return i
		}
	}
	return -1
}

// Select picks the tier for the next query. Without tryNext, or without
// history, it is 0. Otherwise the most recent turn carrying a model moves one
// tier up, clamped at the last tier; an unknown model falls back to 0.
func (t Tiers) Select(history []conversation.Turn, tryNext bool) int {
	if !tryNext || len(history) == 0 || len(t) == 0 {
		return 0
	}
	for i := len(history) - 1; i >= 0; i-- {
		model := history[i].Model
		if model == "" {
			continue
		}
		idx := t.Index(model)
		if idx < 0 {
			return 0
		}
		return min(idx+1, len(t)-1)
	}
	return 0
}
