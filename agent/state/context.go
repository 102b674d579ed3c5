package state

import (
	"fmt"
	"time"
)

// DefaultMaxHistory bounds conversation history when no cap is configured.
const DefaultMaxHistory = 50

// Message is one conversation history record.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Fields are the known per-session context values. Extra carries ad hoc keys
// set by callers outside the closed set.
type Fields struct {
	CustomerID   string         `json:"customer_id,omitempty"`
	CurrentTopic string         `json:"current_topic,omitempty"`
	ProductFocus string         `json:"product_focus,omitempty"`
	Filters      map[string]any `json:"filters,omitempty"`
	LastIntent   string         `json:"last_intent,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// Entities accumulate values extracted from the conversation. The two list
// categories append-if-absent; everything else overwrites under Other.
type Entities struct {
	MentionedProducts []string       `json:"mentioned_products,omitempty"`
	MentionedOrders   []string       `json:"mentioned_orders,omitempty"`
	Preferences       map[string]any `json:"preferences,omitempty"`
	Other             map[string]any `json:"other,omitempty"`
}

// Context is the accumulated per-session conversation state handed to agents
// on every turn. It is not safe for concurrent use on its own; the session
// registry serializes access per session id.
type Context struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	Fields    Fields    `json:"fields"`
	History   []Message `json:"history,omitempty"`
	Entities  Entities  `json:"entities"`

	maxHistory int
}

// Snapshot is the serialized view of a context supplied to agent execution.
// History is truncated to the most recent entries.
type Snapshot struct {
	SessionID string    `json:"session_id"`
	Fields    Fields    `json:"fields"`
	Entities  Entities  `json:"entities"`
	History   []Message `json:"history"`
	CreatedAt time.Time `json:"created_at"`
}

func NewContext(sessionID string, maxHistory int, now time.Time) *Context {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Context{
		SessionID:  sessionID,
		CreatedAt:  now.UTC(),
		maxHistory: maxHistory,
	}
}

// Set stores a context value. Known keys land on their typed field; any other
// key is accepted into the extension map.
func (c *Context) Set(key string, value any) {
	switch key {
	case "customer_id":
		c.Fields.CustomerID = fmt.Sprint(value)
	case "current_topic":
		c.Fields.CurrentTopic = fmt.Sprint(value)
	case "product_focus":
		c.Fields.ProductFocus = fmt.Sprint(value)
	case "last_intent":
		c.Fields.LastIntent = fmt.Sprint(value)
	case "filters":
		if m, ok := value.(map[string]any); ok {
			c.Fields.Filters = m
		}
	default:
		if c.Fields.Extra == nil {
			c.Fields.Extra = make(map[string]any, 4)
		}
		c.Fields.Extra[key] = value
	}
}

// Get returns the value for key, or def when unset.
func (c *Context) Get(key string, def any) any {
	switch key {
	case "customer_id":
		if c.Fields.CustomerID != "" {
			return c.Fields.CustomerID
		}
	case "current_topic":
		if c.Fields.CurrentTopic != "" {
			return c.Fields.CurrentTopic
		}
	case "product_focus":
		if c.Fields.ProductFocus != "" {
			return c.Fields.ProductFocus
		}
	case "last_intent":
		if c.Fields.LastIntent != "" {
			return c.Fields.LastIntent
		}
	case "filters":
		if c.Fields.Filters != nil {
			return c.Fields.Filters
		}
	default:
		if v, ok := c.Fields.Extra[key]; ok {
			return v
		}
	}
	return def
}

// AddMessage appends a history record, evicting the oldest entries once the
// cap is exceeded. The newest maxHistory entries are always retained.
func (c *Context) AddMessage(role, content string, now time.Time) {
	c.History = append(c.History, Message{
		Role:      role,
		Content:   content,
		Timestamp: now.UTC(),
	})

	limit := c.maxHistory
	if limit <= 0 {
		limit = DefaultMaxHistory
	}
	if len(c.History) > limit {
		c.History = c.History[len(c.History)-limit:]
	}
}

// GetHistory returns up to limit recent entries in chronological order. The
// read is non-destructive; repeated calls return the same window until the
// next AddMessage.
func (c *Context) GetHistory(limit int) []Message {
	if limit <= 0 || len(c.History) == 0 {
		return nil
	}
	if limit > len(c.History) {
		limit = len(c.History)
	}
	out := make([]Message, limit)
	copy(out, c.History[len(c.History)-limit:])
	return out
}

// SetEntity records an extracted entity. List categories deduplicate by
// value; preferences merge by key; any other category overwrites.
func (c *Context) SetEntity(category string, value any) {
	switch category {
	case "mentioned_products":
		c.Entities.MentionedProducts = appendUnique(c.Entities.MentionedProducts, fmt.Sprint(value))
	case "mentioned_orders":
		c.Entities.MentionedOrders = appendUnique(c.Entities.MentionedOrders, fmt.Sprint(value))
	case "preferences":
		if m, ok := value.(map[string]any); ok {
			c.Entities.Preferences = m
		}
	default:
		if c.Entities.Other == nil {
			c.Entities.Other = make(map[string]any, 4)
		}
		c.Entities.Other[category] = value
	}
}

// GetEntity returns the accumulated value for an entity category, or def.
func (c *Context) GetEntity(category string, def any) any {
	switch category {
	case "mentioned_products":
		if c.Entities.MentionedProducts != nil {
			return c.Entities.MentionedProducts
		}
	case "mentioned_orders":
		if c.Entities.MentionedOrders != nil {
			return c.Entities.MentionedOrders
		}
	case "preferences":
		if c.Entities.Preferences != nil {
			return c.Entities.Preferences
		}
	default:
		if v, ok := c.Entities.Other[category]; ok {
			return v
		}
	}
	return def
}

// Reset returns the context to its initial shape. Only the customer id field
// survives.
func (c *Context) Reset() {
	customerID := c.Fields.CustomerID
	c.Fields = Fields{CustomerID: customerID}
	c.History = nil
	c.Entities = Entities{}
}

// Snapshot serializes the context for a downstream agent call. History is
// limited to the last 5 entries.
func (c *Context) Snapshot() Snapshot {
	return Snapshot{
		SessionID: c.SessionID,
		Fields:    c.Fields,
		Entities:  c.Entities,
		History:   c.GetHistory(5),
		CreatedAt: c.CreatedAt,
	}
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
