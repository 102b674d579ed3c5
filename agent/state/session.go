package state

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AnonymousCustomer is the customer id recorded when the caller supplies none.
const AnonymousCustomer = "anonymous"

// Session is a customer's ongoing interaction. It owns its Context; both are
// persisted together under the session id.
type Session struct {
	SessionID    string    `json:"session_id"`
	CustomerID   string    `json:"customer_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	MessageCount int       `json:"message_count"`

	Context *Context `json:"context"`
}

// NewSessionID generates an opaque session token. The random part is wide
// enough that collisions are negligible.
func NewSessionID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "SES-" + strings.ToUpper(raw[:12])
}

// NewSession creates a session with an empty context. maxHistory bounds the
// context's conversation history.
func NewSession(customerID string, maxHistory int, now time.Time) *Session {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		customerID = AnonymousCustomer
	}

	id := NewSessionID()
	ctx := NewContext(id, maxHistory, now)
	ctx.Fields.CustomerID = customerID

	return &Session{
		SessionID:    id,
		CustomerID:   customerID,
		CreatedAt:    now.UTC(),
		LastActivity: now.UTC(),
		Context:      ctx,
	}
}

// Touch refreshes the activity timestamp.
func (s *Session) Touch(now time.Time) {
	s.LastActivity = now.UTC()
}

// EnsureContext makes sure the context delegate exists, e.g. after loading a
// partially populated record from an external store.
func (s *Session) EnsureContext(maxHistory int, now time.Time) {
	if s.Context == nil {
		s.Context = NewContext(s.SessionID, maxHistory, now)
		s.Context.Fields.CustomerID = s.CustomerID
	}
	if s.Context.maxHistory <= 0 {
		s.Context.maxHistory = maxHistory
	}
}
