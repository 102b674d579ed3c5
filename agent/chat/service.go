// Package chat ties the session registry, the per-session context, and the
// dispatch orchestrator into the single entry point the transport layer
// calls for every customer turn.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/shoptalk-ai/shoptalk/agent/contract"
	intentx "github.com/shoptalk-ai/shoptalk/agent/intent"
	"github.com/shoptalk-ai/shoptalk/agent/orchestrator"
	sessionx "github.com/shoptalk-ai/shoptalk/agent/session"
	statex "github.com/shoptalk-ai/shoptalk/agent/state"
)

type Service struct {
	registry *sessionx.Registry
	orch     *orchestrator.Orchestrator
	now      func() time.Time
}

func New(registry *sessionx.Registry, orch *orchestrator.Orchestrator) (*Service, error) {
	if registry == nil {
		return nil, errors.New("session registry is required")
	}
	if orch == nil {
		return nil, errors.New("orchestrator is required")
	}
	return &Service{registry: registry, orch: orch, now: time.Now}, nil
}

// Chat processes one customer turn. A missing or stale session id creates a
// fresh session for the customer. The returned session id identifies the
// session the turn ran against.
//
// The whole turn runs inside the session's critical section so concurrent
// turns on the same session cannot interleave history or counter updates;
// turns on different sessions proceed independently.
func (s *Service) Chat(ctx context.Context, message, sessionID, customerID string) (contractx.Envelope, string, error) {
	sess, err := s.resolveSession(ctx, sessionID, customerID)
	if err != nil {
		return contractx.Envelope{}, "", err
	}

	var envelope contractx.Envelope
	err = s.registry.WithLock(sess.SessionID, func() error {
		// Reload under the lock; the earlier read may be stale.
		current, err := s.registry.Get(ctx, sess.SessionID)
		if err != nil {
			return err
		}
		sess = current

		sess.Context.AddMessage("user", message, s.now())
		recordEntities(sess.Context, message)

		envelope = s.orch.Process(ctx, message, sess.Context.Snapshot())

		sess.Context.Set("last_intent", string(envelope.Intent))
		if envelope.Success {
			sess.Context.AddMessage("assistant", envelope.Message, s.now())
		}
		sess.MessageCount++
		sess.Touch(s.now())

		return s.registry.Save(ctx, sess)
	})
	if err != nil {
		return contractx.Envelope{}, "", err
	}

	return envelope, sess.SessionID, nil
}

// ResetContext clears the session's accumulated context. The customer id
// survives the reset.
func (s *Service) ResetContext(ctx context.Context, sessionID string) error {
	if _, err := s.registry.Get(ctx, sessionID); err != nil {
		return err
	}
	return s.registry.Update(ctx, sessionID, func(sess *statex.Session) {
		sess.Context.Reset()
	})
}

// History returns up to limit recent messages for the session.
func (s *Service) History(ctx context.Context, sessionID string, limit int) ([]statex.Message, error) {
	sess, err := s.registry.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	return sess.Context.GetHistory(limit), nil
}

// ActiveSessions reports the stored session count when the backend supports
// counting.
func (s *Service) ActiveSessions() (int, bool) {
	return s.registry.ActiveCount()
}

// DeleteSession removes a session, reporting whether it existed.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	return s.registry.Delete(ctx, sessionID)
}

func (s *Service) resolveSession(ctx context.Context, sessionID, customerID string) (*statex.Session, error) {
	if strings.TrimSpace(sessionID) != "" {
		sess, err := s.registry.Get(ctx, sessionID)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, sessionx.ErrSessionNotFound) {
			return nil, err
		}
		log.Debug().Str("session_id", sessionID).Msg("stale session id, creating new session")
	}
	return s.registry.Create(ctx, customerID)
}

// recordEntities accumulates per-message entities into the session context.
func recordEntities(c *statex.Context, message string) {
	entities := intentx.ExtractEntities(message)
	if entities.OrderID != "" {
		c.SetEntity("mentioned_orders", "ORD-"+entities.OrderID)
	}
	if entities.Color != "" || entities.Size != "" {
		filters := c.Fields.Filters
		if filters == nil {
			filters = make(map[string]any, 2)
		}
		if entities.Color != "" {
			filters["color"] = entities.Color
		}
		if entities.Size != "" {
			filters["size"] = entities.Size
		}
		c.Set("filters", filters)
	}
}
