package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/hyperdrift-io/whats-that-again/internal/conversation"
)

// OpenAIResponsesProvider implements Provider against the OpenAI Responses
// API over plain HTTP.
type OpenAIResponsesProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

func NewOpenAIResponsesProvider(apiKey, baseURL string, httpClient *http.Client, log *slog.Logger) *OpenAIResponsesProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = slog.Default()
	}
	return &OpenAIResponsesProvider{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
		log:        log,
	}
}

func (p *OpenAIResponsesProvider) Name() string { return "openai" }

type responsesInputText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type responsesInputBlock struct {
	Role    string               `json:"role"`
	Content []responsesInputText `json:"content"`
}

func (p *OpenAIResponsesProvider) Complete(ctx context.Context, req Request) (string, error) {
	if p.apiKey == "" {
		return "", errors.New("OPENAI_API_KEY is not configured")
	}
	if p.baseURL == "" {
		return "", errors.New("OPENAI_BASE_URL is not configured")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		return "", errors.New("openai: model is required")
	}

	input := buildResponsesInput(req)
	if len(input) == 0 {
		return "", errors.New("AI request input is empty")
	}
	payload := map[string]any{
		"model":             model,
		"input":             input,
		"max_output_tokens": req.MaxTokens,
		"text": map[string]any{
			"verbosity": "low",
		},
	}
	if supportsReasoningEffort(model) {
		payload["reasoning"] = map[string]any{"effort": "low"}
	}
	bodyRaw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/responses", bytes.NewReader(bodyRaw))
	if err != nil {
		return "", err
	}
	request.Header.Set("Authorization", "Bearer "+p.apiKey)
	request.Header.Set("Content-Type", "application/json")

	response, err := p.httpClient.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return "", err
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return "", fmt.Errorf("openai responses error (%d): %s", response.StatusCode, truncateForLog(string(responseBody), 500))
	}

	parsed := parseJSONStringMap(responseBody)
	answer := extractResponseAnswer(parsed)
	if answer == "" {
		if truncatedByOutputLimit(parsed) {
			return "", errors.New("openai response incomplete due max_output_tokens")
		}
		p.log.Warn("openai response had no extractable answer", "body", truncateForLog(string(responseBody), 1200))
		return "", errors.New("openai response answer is empty")
	}
	return answer, nil
}

func buildResponsesInput(req Request) []responsesInputBlock {
	input := make([]responsesInputBlock, 0, len(req.Messages)+1)
	if system := strings.TrimSpace(req.SystemPrompt); system != "" {
		input = append(input, responsesInputBlock{
			Role:    "system",
			Content: []responsesInputText{{Type: "input_text", Text: system}},
		})
	}
	for _, msg := range req.Messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		contentType := "input_text"
		switch msg.Role {
		case conversation.RoleUser:
		case conversation.RoleAssistant:
			contentType = "output_text"
		default:
			continue
		}
		input = append(input, responsesInputBlock{
			Role:    msg.Role,
			Content: []responsesInputText{{Type: contentType, Text: content}},
		})
	}
	return input
}

// supportsReasoningEffort reports whether model accepts reasoning.effort:
// gpt-5 and the o-series (o1, o3, o4-mini, ...).
func supportsReasoningEffort(model string) bool {
	model = strings.ToLower(model)
	if strings.HasPrefix(model, "gpt-5") {
		return true
	}
	return len(model) >= 2 && model[0] == 'o' && model[1] >= '1' && model[1] <= '9'
}

// extractResponseAnswer returns the reply text of a Responses payload. The
// top-level output_text shortcut wins; otherwise every text part of every
// output message is joined by newlines.
func extractResponseAnswer(data map[string]any) string {
	if direct := strings.TrimSpace(toString(data["output_text"])); direct != "" {
		return direct
	}

	outputs, _ := data["output"].([]any)
	var parts []string
	for _, item := range outputs {
		message, _ := item.(map[string]any)
		contents, _ := message["content"].([]any)
		for _, raw := range contents {
			part, ok := raw.(map[string]any)
			if !ok || !isResponseTextPart(part) {
				continue
			}
			if text := responsePartText(part); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, "\n")
}

func isResponseTextPart(part map[string]any) bool {
	switch strings.ToLower(strings.TrimSpace(toString(part["type"]))) {
	case "output_text", "text":
		return true
	}
	return false
}

// responsePartText reads "text" as a plain string or as {"value": ...}.
func responsePartText(part map[string]any) string {
	if nested, ok := part["text"].(map[string]any); ok {
		return strings.TrimSpace(toString(nested["value"]))
	}
	if text := strings.TrimSpace(toString(part["text"])); text != "" {
		return text
	}
	return strings.TrimSpace(toString(part["output_text"]))
}

// truncatedByOutputLimit reports an incomplete response cut off by
// max_output_tokens.
func truncatedByOutputLimit(parsed map[string]any) bool {
	details, _ := parsed["incomplete_details"].(map[string]any)
	return strings.EqualFold(strings.TrimSpace(toString(details["reason"])), "max_output_tokens")
}

func parseJSONStringMap(input []byte) map[string]any {
	if len(input) == 0 {
		return map[string]any{}
	}
	var result map[string]any
	if err := json.Unmarshal(input, &result); err != nil || result == nil {
		return map[string]any{}
	}
	return result
}

func toString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

// truncateForLog shortens value to at most limit bytes for log lines.
func truncateForLog(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 || len(value) <= limit {
		return value
	}
	return value[:limit] + "...(truncated)"
}
