package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderCompat    = "compat"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)

type Config struct {
	AppEnv             string
	AppName            string
	AppPort            string
	CORSAllowOrigins   []string
	AIProvider         string
	AnthropicAPIKey    string
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	GeminiAPIKey       string
	ModelTiers         []string
	AIMaxOutputTokens  int
	MemoryTagMaxTokens int
	AITimeoutSeconds   int
	MaxDailyQueries    int
	UsageFile          string
	UsageDatabaseURL   string
	FrontendDir        string
	LogLevel           string
	LogFormat          string
}

func Load() Config {
	_ = godotenv.Load(".env")

	return Config{
		AppEnv:             getEnv("APP_ENV", "local"),
		AppName:            getEnv("APP_NAME", "WhatsThatAgain API"),
		AppPort:            getEnv("APP_PORT", "8000"),
		CORSAllowOrigins:   getEnvCSV("CORS_ALLOW_ORIGINS", []string{"*"}),
		AIProvider:         strings.ToLower(getEnv("AI_PROVIDER", ProviderAnthropic)),
		AnthropicAPIKey:    getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		ModelTiers:         getEnvCSV("MODEL_TIERS", nil),
		AIMaxOutputTokens:  getEnvInt("AI_MAX_OUTPUT_TOKENS", 1000),
		MemoryTagMaxTokens: getEnvInt("MEMORY_TAG_MAX_TOKENS", 100),
		AITimeoutSeconds:   getEnvInt("AI_TIMEOUT_SECONDS", 30),
		MaxDailyQueries:    getEnvInt("MAX_DAILY_QUERIES", 100),
		UsageFile:          getEnv("USAGE_FILE", "usage_count.txt"),
		UsageDatabaseURL:   getEnv("USAGE_DATABASE_URL", ""),
		FrontendDir:        getEnv("FRONTEND_DIR", "../frontend/dist"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "pretty")),
	}
}

func (c Config) Validate() error {
	switch c.AIProvider {
	case ProviderAnthropic:
		if strings.TrimSpace(c.AnthropicAPIKey) == "" {
			return errors.New("ANTHROPIC_API_KEY is required when AI_PROVIDER=anthropic")
		}
	case ProviderOpenAI, ProviderCompat:
		if strings.TrimSpace(c.OpenAIAPIKey) == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER=%s", c.AIProvider)
		}
		if strings.TrimSpace(c.OpenAIBaseURL) == "" {
			return errors.New("OPENAI_BASE_URL is required")
		}
		if c.AIProvider == ProviderCompat && len(c.ModelTiers) == 0 {
			return errors.New("MODEL_TIERS is required when AI_PROVIDER=compat")
		}
	case ProviderGemini:
		if strings.TrimSpace(c.GeminiAPIKey) == "" {
			return errors.New("GEMINI_API_KEY is required when AI_PROVIDER=gemini")
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unsupported AI_PROVIDER %q", c.AIProvider)
	}
	if c.MaxDailyQueries < 0 {
		return errors.New("MAX_DAILY_QUERIES must not be negative")
	}
	if c.AIMaxOutputTokens <= 0 {
		return errors.New("AI_MAX_OUTPUT_TOKENS must be positive")
	}
	if strings.TrimSpace(c.UsageFile) == "" && strings.TrimSpace(c.UsageDatabaseURL) == "" {
		return errors.New("USAGE_FILE or USAGE_DATABASE_URL is required")
	}
	if c.LogFormat != "pretty" && c.LogFormat != "json" {
		return fmt.Errorf("unsupported LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvCSV(key string, fallback []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, item := range parts {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}
