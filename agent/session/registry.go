// Package session owns the lifecycle of chat sessions: creation, lookup,
// mutation, and expiry against a pluggable persistence backend.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	statex "github.com/shoptalk-ai/shoptalk/agent/state"
)

// ErrSessionNotFound is returned by Get when no session exists under the id.
var ErrSessionNotFound = statex.ErrSessionNotFound

type Config struct {
	TTLHours   int `envconfig:"TTL_HOURS" split_words:"true" default:"24"`
	MaxHistory int `envconfig:"MAX_HISTORY" split_words:"true" default:"50"`
}

// Registry creates, retrieves, and expires sessions. All mutations of one
// session id run inside a per-id critical section so concurrent turns on the
// same session cannot lose counter or history updates; operations on
// different ids never contend.
type Registry struct {
	store      statex.Store
	ttl        time.Duration
	maxHistory int

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	now func() time.Time
}

func NewRegistry(store statex.Store, cfg Config) (*Registry, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}

	ttlHours := cfg.TTLHours
	if ttlHours <= 0 {
		ttlHours = 24
	}
	maxHistory := cfg.MaxHistory
	if maxHistory <= 0 {
		maxHistory = statex.DefaultMaxHistory
	}

	return &Registry{
		store:      store,
		ttl:        time.Duration(ttlHours) * time.Hour,
		maxHistory: maxHistory,
		locks:      make(map[string]*sync.Mutex),
		now:        time.Now,
	}, nil
}

// MaxHistory reports the configured history cap applied to new sessions.
func (r *Registry) MaxHistory() int {
	return r.maxHistory
}

// Create generates a fresh session for the customer and persists it.
func (r *Registry) Create(ctx context.Context, customerID string) (*statex.Session, error) {
	sess := statex.NewSession(customerID, r.maxHistory, r.now())
	if err := r.store.Save(ctx, sess); err != nil {
		return nil, err
	}

	log.Info().
		Str("session_id", sess.SessionID).
		Str("customer_id", sess.CustomerID).
		Msg("session created")

	return sess, nil
}

// Get returns the stored session or ErrSessionNotFound. It never creates.
func (r *Registry) Get(ctx context.Context, sessionID string) (*statex.Session, error) {
	sess, err := r.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.EnsureContext(r.maxHistory, r.now())
	return sess, nil
}

// Update loads the session, applies the mutation, refreshes last_activity,
// and saves, all under the session's lock. A missing session is a silent
// no-op; callers that care should Get first.
func (r *Registry) Update(ctx context.Context, sessionID string, apply func(*statex.Session)) error {
	unlock := r.lock(sessionID)
	defer unlock()

	sess, err := r.store.Load(ctx, sessionID)
	if errors.Is(err, statex.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	sess.EnsureContext(r.maxHistory, r.now())
	if apply != nil {
		apply(sess)
	}
	sess.Touch(r.now())

	return r.store.Save(ctx, sess)
}

// Delete removes the session, reporting whether anything was removed.
// Idempotent.
func (r *Registry) Delete(ctx context.Context, sessionID string) (bool, error) {
	unlock := r.lock(sessionID)
	defer unlock()

	removed, err := r.store.Delete(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if removed {
		log.Info().Str("session_id", sessionID).Msg("session deleted")
	}
	return removed, nil
}

// ExpireSweep removes sessions idle longer than the configured TTL. When the
// backend enforces TTL natively (no Sweeper implementation) the swept count
// is always zero.
func (r *Registry) ExpireSweep(ctx context.Context) (int, error) {
	sweeper, ok := r.store.(statex.Sweeper)
	if !ok {
		return 0, nil
	}

	cutoff := r.now().Add(-r.ttl)
	removed, err := sweeper.Sweep(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("expired sessions swept")
	}
	return removed, nil
}

// ActiveCount reports the number of stored sessions when the backend can
// count them. Remote backends that cannot enumerate keys report ok=false.
func (r *Registry) ActiveCount() (int, bool) {
	if c, ok := r.store.(interface{ Len() int }); ok {
		return c.Len(), true
	}
	return 0, false
}

// WithLock runs fn while holding the session's lock. Used by the chat
// service to make its read-dispatch-write turn a single critical section.
func (r *Registry) WithLock(sessionID string, fn func() error) error {
	unlock := r.lock(sessionID)
	defer unlock()
	return fn()
}

// Save persists a session the caller already holds the lock for.
func (r *Registry) Save(ctx context.Context, sess *statex.Session) error {
	return r.store.Save(ctx, sess)
}

// lock acquires the per-session mutex, lazily allocating it. Lock entries
// are tiny and bounded by the number of distinct session ids seen, so they
// are not reclaimed.
func (r *Registry) lock(sessionID string) func() {
	r.mu.Lock()
	m, ok := r.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		r.locks[sessionID] = m
	}
	r.mu.Unlock()

	m.Lock()
	return m.Unlock
}
