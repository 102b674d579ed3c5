package state

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

func testTime() time.Time {
	return time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
}

func TestContextSetGet(t *testing.T) {
	t.Parallel()

	c := NewContext("SES-TEST", 10, testTime())

	c.Set("customer_id", "CUST-1")
	c.Set("current_topic", "phones")
	c.Set("product_focus", "PROD-001")
	c.Set("last_intent", "product_query")
	c.Set("filters", map[string]any{"color": "blue"})
	c.Set("loyalty_tier", "gold")

	if got := c.Get("customer_id", ""); got != "CUST-1" {
		t.Errorf("customer_id = %v, want CUST-1", got)
	}
	if got := c.Get("product_focus", ""); got != "PROD-001" {
		t.Errorf("product_focus = %v, want PROD-001", got)
	}
	if got := c.Get("loyalty_tier", nil); got != "gold" {
		t.Errorf("extra key = %v, want gold", got)
	}
	if got := c.Get("missing", "fallback"); got != "fallback" {
		t.Errorf("missing key = %v, want fallback", got)
	}

	filters, ok := c.Get("filters", nil).(map[string]any)
	if !ok || filters["color"] != "blue" {
		t.Errorf("filters = %v, want map with color=blue", filters)
	}
}

func TestContextHistoryCap(t *testing.T) {
	t.Parallel()

	const limit = 5
	c := NewContext("SES-TEST", limit, testTime())

	for i := 0; i < limit+3; i++ {
		c.AddMessage("user", fmt.Sprintf("message %d", i), testTime())
	}

	if len(c.History) != limit {
		t.Fatalf("history length = %d, want %d", len(c.History), limit)
	}
	// Oldest entries evicted; newest retained in order.
	if c.History[0].Content != "message 3" {
		t.Errorf("oldest retained = %q, want %q", c.History[0].Content, "message 3")
	}
	if c.History[limit-1].Content != "message 7" {
		t.Errorf("newest = %q, want %q", c.History[limit-1].Content, "message 7")
	}
}

func TestContextGetHistoryNonDestructive(t *testing.T) {
	t.Parallel()

	c := NewContext("SES-TEST", 10, testTime())
	for i := 0; i < 4; i++ {
		c.AddMessage("user", fmt.Sprintf("m%d", i), testTime())
	}

	first := c.GetHistory(2)
	second := c.GetHistory(2)
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("window lengths = %d, %d, want 2, 2", len(first), len(second))
	}
	if first[0].Content != second[0].Content || first[1].Content != second[1].Content {
		t.Error("repeated reads returned different windows")
	}
	if first[1].Content != "m3" {
		t.Errorf("window end = %q, want m3", first[1].Content)
	}

	// Mutating the returned slice must not affect stored history.
	first[0].Content = "mutated"
	if c.History[2].Content == "mutated" {
		t.Error("GetHistory returned a view into stored history")
	}
}

func TestContextSetEntityDedup(t *testing.T) {
	t.Parallel()

	c := NewContext("SES-TEST", 10, testTime())

	c.SetEntity("mentioned_orders", "ORD-1")
	c.SetEntity("mentioned_orders", "ORD-1")
	c.SetEntity("mentioned_orders", "ORD-2")
	c.SetEntity("mentioned_products", "PROD-001")
	c.SetEntity("shipping_zip", "10001")

	if len(c.Entities.MentionedOrders) != 2 {
		t.Errorf("mentioned_orders = %v, want 2 unique entries", c.Entities.MentionedOrders)
	}
	if got := c.GetEntity("shipping_zip", nil); got != "10001" {
		t.Errorf("other category = %v, want 10001", got)
	}
	if got := c.GetEntity("preferences", "none"); got != "none" {
		t.Errorf("unset category = %v, want default", got)
	}
}

func TestContextReset(t *testing.T) {
	t.Parallel()

	c := NewContext("SES-TEST", 10, testTime())
	c.Set("customer_id", "CUST-9")
	c.Set("current_topic", "returns")
	c.AddMessage("user", "hello", testTime())
	c.SetEntity("mentioned_orders", "ORD-1")

	c.Reset()

	if c.Fields.CustomerID != "CUST-9" {
		t.Errorf("customer_id after reset = %q, want CUST-9", c.Fields.CustomerID)
	}
	if c.Fields.CurrentTopic != "" {
		t.Errorf("current_topic after reset = %q, want empty", c.Fields.CurrentTopic)
	}
	if len(c.History) != 0 {
		t.Errorf("history after reset has %d entries, want 0", len(c.History))
	}
	if len(c.Entities.MentionedOrders) != 0 {
		t.Errorf("entities after reset = %v, want empty", c.Entities.MentionedOrders)
	}
}

func TestContextSnapshotLastFive(t *testing.T) {
	t.Parallel()

	c := NewContext("SES-TEST", 20, testTime())
	for i := 0; i < 8; i++ {
		c.AddMessage("user", fmt.Sprintf("m%d", i), testTime())
	}

	snap := c.Snapshot()
	if len(snap.History) != 5 {
		t.Fatalf("snapshot history length = %d, want 5", len(snap.History))
	}
	if snap.History[0].Content != "m3" || snap.History[4].Content != "m7" {
		t.Errorf("snapshot window = %q..%q, want m3..m7",
			snap.History[0].Content, snap.History[4].Content)
	}
	if snap.SessionID != "SES-TEST" {
		t.Errorf("snapshot session id = %q", snap.SessionID)
	}
}

func TestSessionJSONRoundTrip(t *testing.T) {
	t.Parallel()

	sess := NewSession("CUST-1", 10, testTime())
	sess.Context.AddMessage("user", "hi", testTime())

	payload, err := json.Marshal(sess)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var restored Session
	if err := json.Unmarshal(payload, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if restored.SessionID != sess.SessionID {
		t.Errorf("session id = %q, want %q", restored.SessionID, sess.SessionID)
	}
	if restored.Context == nil {
		t.Fatal("context lost in round trip")
	}
	if len(restored.Context.History) != 1 {
		t.Errorf("history length = %d, want 1", len(restored.Context.History))
	}

	// The unexported cap does not survive JSON; EnsureContext restores it.
	restored.EnsureContext(10, testTime())
	for i := 0; i < 15; i++ {
		restored.Context.AddMessage("user", "x", testTime())
	}
	if len(restored.Context.History) != 10 {
		t.Errorf("history length after refill = %d, want 10", len(restored.Context.History))
	}
}

func TestNewSessionDefaults(t *testing.T) {
	t.Parallel()

	sess := NewSession("  ", 0, testTime())
	if sess.CustomerID != AnonymousCustomer {
		t.Errorf("customer id = %q, want %q", sess.CustomerID, AnonymousCustomer)
	}
	if len(sess.SessionID) != len("SES-")+12 {
		t.Errorf("session id %q has unexpected length", sess.SessionID)
	}
	if sess.Context.Fields.CustomerID != AnonymousCustomer {
		t.Errorf("context customer id = %q", sess.Context.Fields.CustomerID)
	}
}
