package ai

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	// FallbackConfidence is used when the reply carries no confidence line.
	FallbackConfidence = 0.4
	// DisclaimerThreshold is the confidence below which answers get a
	// disclaimer. Not the same value as FallbackConfidence.
	DisclaimerThreshold = 0.3
	DisclaimerPrefix    = "I'm not confident about this, but: "

	maxMemoryTags = 5
)

var (
	confidencePattern = regexp.MustCompile(`Confidence:\s*(\d+\.\d+)`)
	jsonArrayPattern  = regexp.MustCompile(`(?s)\[.*\]`)
	htmlTagPattern    = regexp.MustCompile(`<.*?>`)
)

// ParseConfidence extracts the first "Confidence: X.X" score from text and
// returns the text with every such marker removed.
func ParseConfidence(text string) (string, float64) {
	trimmed := strings.TrimSpace(text)
	confidence := FallbackConfidence
	if match := confidencePattern.FindStringSubmatch(trimmed); match != nil {
		if parsed, err := strconv.ParseFloat(match[1], 64); err == nil {
			confidence = parsed
		}
	}
	answer := strings.TrimSpace(confidencePattern.ReplaceAllString(trimmed, ""))
	return answer, confidence
}

// Disclaim prefixes low-confidence answers.
func Disclaim(answer string, confidence float64) string {
	if confidence < DisclaimerThreshold {
		return DisclaimerPrefix + answer
	}
	return answer
}

// ExtractTags pulls the bracketed JSON array out of a free-text reply and
// returns at most five non-empty, trimmed strings. Anything unparsable
// yields an empty slice.
func ExtractTags(text string) []string {
	raw := jsonArrayPattern.FindString(text)
	if raw == "" {
		return []string{}
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var items []any
	if err := dec.Decode(&items); err != nil {
		return []string{}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return []string{}
	}

	tags := make([]string, 0, maxMemoryTags)
	for _, item := range items {
		if len(tags) == maxMemoryTags {
			break
		}
		tag := strings.TrimSpace(stringifyTag(item))
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// stringifyTag renders one array element: true as True, float literals keep
// a fractional part (1.0), integers stay bare. Falsy values become "".
// Nested arrays and objects stay as JSON.
func stringifyTag(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if !v {
			return ""
		}
		return "True"
	case json.Number:
		return stringifyNumber(v)
	case []any:
		if len(v) == 0 {
			return ""
		}
	case map[string]any:
		if len(v) == 0 {
			return ""
		}
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(encoded)
}

func stringifyNumber(n json.Number) string {
	literal := n.String()
	f, err := n.Float64()
	if err != nil || f == 0 {
		return ""
	}
	if !strings.ContainsAny(literal, ".eE") {
		return literal
	}

	// Shortest round-trip digits; exponent form outside [1e-4, 1e16).
	exp := math.Floor(math.Log10(math.Abs(f)))
	if exp < -4 || exp >= 16 {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	out := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(out, ".") {
		out += ".0"
	}
	return out
}

// StripHTML removes anything that looks like an HTML tag.
func StripHTML(input string) string {
	return htmlTagPattern.ReplaceAllString(input, "")
}
