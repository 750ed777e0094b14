// Package conversation keeps short, per-session chat history.
package conversation

import (
	"context"
	"sync"
)

// MaxTurns is how many turns a session keeps (ten exchanges).
const MaxTurns = 20

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a session. Model is only set on assistant turns.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
}

func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

func AssistantTurn(content, model string) Turn {
	return Turn{Role: RoleAssistant, Content: content, Model: model}
}

// Store maps session ids to their recent turns.
type Store interface {
	// Get returns a copy of the session's turns, oldest first. Unknown
	// sessions yield an empty slice.
	Get(ctx context.Context, sessionID string) ([]Turn, error)
	// Append adds turns and keeps only the most recent MaxTurns.
	Append(ctx context.Context, sessionID string, turns ...Turn) error
}

// MemoryStore is a process-local Store. Sessions are never evicted.
type MemoryStore struct {
	mu       sync.RWMutex
	maxTurns int
	sessions map[string][]Turn
}

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithLimit(MaxTurns)
}

func NewMemoryStoreWithLimit(maxTurns int) *MemoryStore {
	if maxTurns <= 0 {
		maxTurns = MaxTurns
	}
	return &MemoryStore{
		maxTurns: maxTurns,
		sessions: make(map[string][]Turn),
	}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.sessions[sessionID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (s *MemoryStore) Append(_ context.Context, sessionID string, turns ...Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.sessions[sessionID], turns...)
	if len(history) > s.maxTurns {
		trimmed := make([]Turn, s.maxTurns)
		copy(trimmed, history[len(history)-s.maxTurns:])
		history = trimmed
	}
	s.sessions[sessionID] = history
	return nil
}

// Len reports how many sessions are held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
