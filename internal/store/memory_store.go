package store

import (
	"sync"
	"time"

	"github.com/voyago/voyago/internal/domain"
)

// MemorySessionStates is an in-memory SessionStates implementation for
// tests and ephemeral runs (session.store: memory).
type MemorySessionStates struct {
	mu     sync.RWMutex
	states map[string]domain.SessionState
}

// NewMemorySessionStates creates an empty in-memory session state store.
func NewMemorySessionStates() *MemorySessionStates {
	return &MemorySessionStates{states: make(map[string]domain.SessionState)}
}

// Get returns the session state for a chat, or nil if none exists.
func (s *MemorySessionStates) Get(chatID string) (*domain.SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[chatID]
	if !ok {
		return nil, nil
	}
	cp := state
	return &cp, nil
}

// Upsert stores the state keyed by its chat id.
func (s *MemorySessionStates) Upsert(state domain.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now()
	}
	s.states[state.ChatID] = state
	return nil
}
