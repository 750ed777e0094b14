package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/hyperdrift-io/whats-that-again/internal/ai"
	"github.com/hyperdrift-io/whats-that-again/internal/usage"
)

type failingProvider struct{}

func (failingProvider) Name() string { return "failing" }

func (failingProvider) Complete(context.Context, ai.Request) (string, error) {
	return "", errors.New("upstream unavailable")
}

type brokenUsageStore struct{}

func (brokenUsageStore) Load(context.Context) (usage.Record, error) {
	return usage.Record{}, usage.ErrNoRecord
}

func (brokenUsageStore) Save(context.Context, usage.Record) error {
	return errors.New("disk full")
}

func TestSearchAnswersAndStartsSession(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, envOptions{})

	rec, body := postSearch(t, env.router, map[string]any{"query": "movie with the giant piano, Big?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(body.Answer, "Tom Hanks") {
		t.Fatalf("unexpected answer %q", body.Answer)
	}
	if strings.Contains(body.Answer, "Confidence:") {
		t.Fatalf("confidence marker leaked into answer %q", body.Answer)
	}
	if body.Confidence != 0.9 {
		t.Fatalf("expected confidence 0.9, got %v", body.Confidence)
	}
	if body.UsageInfo != "Queries today: 1/100" {
		t.Fatalf("unexpected usage info %q", body.UsageInfo)
	}
	if body.SessionID != "session-1" {
		t.Fatalf("expected generated session id, got %q", body.SessionID)
	}
	if body.Model != "mock-standard" || body.ModelLevel != 0 {
		t.Fatalf("unexpected model %q level %d", body.Model, body.ModelLevel)
	}
	if len(body.MemoryTags) == 0 || len(body.MemoryTags) > 5 {
		t.Fatalf("unexpected memory tags %v", body.MemoryTags)
	}

	history, err := env.sessions.Get(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(history))
	}
	if history[0].Content != "movie with the giant piano, Big?" || history[1].Model != "mock-standard" {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestSearchEscalatesModelTier(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, envOptions{})

	_, first := postSearch(t, env.router, map[string]any{"query": "that song from the radio", "sessionId": "abc"})
	if first.ModelLevel != 0 {
		t.Fatalf("expected first tier, got %d", first.ModelLevel)
	}

	_, second := postSearch(t, env.router, map[string]any{"query": "that song from the radio", "sessionId": "abc", "tryNextModel": true})
	if second.ModelLevel != 1 || second.Model != "mock-advanced" {
		t.Fatalf("expected escalation to mock-advanced, got %q level %d", second.Model, second.ModelLevel)
	}

	_, third := postSearch(t, env.router, map[string]any{"query": "still not it", "sessionId": "abc", "tryNextModel": true})
	if third.ModelLevel != 1 {
		t.Fatalf("expected clamp at last tier, got %d", third.ModelLevel)
	}

	_, fresh := postSearch(t, env.router, map[string]any{"query": "new topic", "sessionId": "other", "tryNextModel": true})
	if fresh.ModelLevel != 0 {
		t.Fatalf("expected new session to start at first tier, got %d", fresh.ModelLevel)
	}
}

func TestSearchDisclaimsLowConfidence(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, envOptions{})

	_, body := postSearch(t, env.router, map[string]any{"query": "that song with the whistling"})
	if !strings.HasPrefix(body.Answer, ai.DisclaimerPrefix) {
		t.Fatalf("expected disclaimer prefix, got %q", body.Answer)
	}
	if body.Confidence != 0.2 {
		t.Fatalf("expected confidence 0.2, got %v", body.Confidence)
	}
}

func TestSearchDegradesOnProviderError(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, envOptions{provider: failingProvider{}})

	rec, body := postSearch(t, env.router, map[string]any{"query": "anything"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with degraded answer, got %d", rec.Code)
	}
	if body.Answer != ai.DisclaimerPrefix+"Error: upstream unavailable" {
		t.Fatalf("unexpected degraded answer %q", body.Answer)
	}
	if body.Confidence != 0 || body.Model != "mock-standard" {
		t.Fatalf("unexpected confidence %v model %q", body.Confidence, body.Model)
	}
	if body.MemoryTags == nil || len(body.MemoryTags) != 0 {
		t.Fatalf("expected empty memory tags, got %v", body.MemoryTags)
	}
	if !strings.Contains(rec.Body.String(), `"memoryTags":[]`) {
		t.Fatalf("memoryTags must serialize as an array: %s", rec.Body.String())
	}
}

func TestSearchRejectsWhenQuotaExhausted(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, envOptions{limit: 2})

	for i := 0; i < 2; i++ {
		rec, _ := postSearch(t, env.router, map[string]any{"query": "question", "sessionId": "s"})
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := performJSON(t, env.router, http.MethodPost, "/search", map[string]any{"query": "one more", "sessionId": "s"})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	detail := decodeJSON[map[string]string](t, rec)
	if detail["detail"] != "Daily query limit reached" {
		t.Fatalf("unexpected detail %q", detail["detail"])
	}

	history, err := env.sessions.Get(context.Background(), "s")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(history) != 4 {
		t.Fatalf("rejected request must not touch history, got %d turns", len(history))
	}
	if env.usage.Saves() != 2 {
		t.Fatalf("rejected request must not persist usage, got %d saves", env.usage.Saves())
	}
}

func TestSearchRejectsInvalidInput(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, envOptions{})

	cases := []struct {
		name string
		body any
	}{
		{name: "malformed json", body: "{not json"},
		{name: "missing body", body: nil},
		{name: "blank query", body: map[string]any{"query": "   "}},
		{name: "markup only", body: map[string]any{"query": "<b></b>"}},
	}
	for _, tc := range cases {
		rec := performJSON(t, env.router, http.MethodPost, "/search", tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}
	if env.usage.Saves() != 0 {
		t.Fatalf("invalid requests must not consume quota")
	}
}

func TestSearchStripsMarkupFromQuery(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, envOptions{})

	_, body := postSearch(t, env.router, map[string]any{"query": "<i>what</i> is that thing", "sessionId": "m"})
	history, _ := env.sessions.Get(context.Background(), body.SessionID)
	if len(history) == 0 || history[0].Content != "what is that thing" {
		t.Fatalf("expected stripped query in history, got %+v", history)
	}
}

func TestSearchFailsWhenUsageCannotBePersisted(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, envOptions{store: brokenUsageStore{}})

	rec := performJSON(t, env.router, http.MethodPost, "/search", map[string]any{"query": "q"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if env.sessions.Len() != 0 {
		t.Fatalf("failed request must not create a session")
	}
}
