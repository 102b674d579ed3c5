package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is a volatile Store keeping sessions in a process-local map.
// Safe for concurrent access. Sessions are deep-copied on the way in and out
// so callers never share mutable state with the store. Expiry is the
// registry's job via Sweep.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return cloneSession(sess)
}

func (m *MemoryStore) Save(_ context.Context, sess *Session) error {
	if sess == nil {
		return ErrNilSession
	}
	if sess.SessionID == "" {
		return ErrInvalidSession
	}

	clone, err := cloneSession(sess)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.SessionID] = clone
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	return ok, nil
}

// Sweep removes sessions idle since before olderThan and reports how many
// were dropped.
func (m *MemoryStore) Sweep(_ context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, sess := range m.sessions {
		if sess.LastActivity.Before(olderThan) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// cloneSession round-trips through JSON. Slower than a hand-written copy but
// guaranteed to stay in sync with the persisted representation.
func cloneSession(sess *Session) (*Session, error) {
	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("clone session: %w", err)
	}
	var out Session
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("clone session: %w", err)
	}
	return &out, nil
}
