package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hyperdrift-io/whats-that-again/internal/ai"
	"github.com/hyperdrift-io/whats-that-again/internal/conversation"
)

type searchRequest struct {
	Query        string `json:"query"`
	SessionID    string `json:"sessionId"`
	TryNextModel bool   `json:"tryNextModel"`
}

type searchResponse struct {
	Answer     string   `json:"answer"`
	Confidence float64  `json:"confidence"`
	UsageInfo  string   `json:"usage_info"`
	MemoryTags []string `json:"memoryTags"`
	SessionID  string   `json:"sessionId"`
	Model      string   `json:"model"`
	ModelLevel int      `json:"modelLevel"`
}

func (a *App) search(c *gin.Context) {
	var payload searchRequest
	if !mustJSON(c, &payload) {
		return
	}
	query := strings.TrimSpace(ai.StripHTML(payload.Query))
	if query == "" {
		writeError(c, http.StatusBadRequest, "query is required")
		return
	}

	ctx := c.Request.Context()

	// Quota first: a rejected request must leave the session untouched.
	decision, err := a.tracker.CheckAndConsume(ctx)
	if err != nil {
		a.log.Error("usage tracking failed", "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to record usage")
		return
	}
	if decision.LimitReached {
		writeError(c, http.StatusTooManyRequests, "Daily query limit reached")
		return
	}

	sessionID := strings.TrimSpace(payload.SessionID)
	if sessionID == "" {
		sessionID = a.newSessionID()
	}
	history, err := a.sessions.Get(ctx, sessionID)
	if err != nil {
		a.log.Error("load conversation failed", "session", sessionID, "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to load conversation")
		return
	}

	level := a.tiers.Select(history, payload.TryNextModel)
	answer := a.gateway.Ask(ctx, query, history, a.tiers.Model(level))
	processed := ai.Disclaim(answer.Text, answer.Confidence)
	tags := a.gateway.MemoryTags(ctx, processed, query, answer.Model)

	if err := a.sessions.Append(ctx, sessionID,
		conversation.UserTurn(query),
		conversation.AssistantTurn(processed, answer.Model),
	); err != nil {
		a.log.Error("save conversation failed", "session", sessionID, "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to save conversation")
		return
	}

	if tags == nil {
		tags = []string{}
	}
	c.JSON(http.StatusOK, searchResponse{
		Answer:     processed,
		Confidence: answer.Confidence,
		UsageInfo:  decision.Info(),
		MemoryTags: tags,
		SessionID:  sessionID,
		Model:      answer.Model,
		ModelLevel: level,
	})
}
