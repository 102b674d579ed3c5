package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shoptalk-ai/shoptalk/agent/agents"
	"github.com/shoptalk-ai/shoptalk/agent/chat"
	"github.com/shoptalk-ai/shoptalk/agent/orchestrator"
	sessionx "github.com/shoptalk-ai/shoptalk/agent/session"
	statex "github.com/shoptalk-ai/shoptalk/agent/state"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	registry, err := sessionx.NewRegistry(statex.NewMemoryStore(), sessionx.Config{})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	orch := orchestrator.New(
		agents.NewProductAgent(nil),
		agents.NewOrderAgent(nil),
		agents.NewRecommendationAgent(nil),
		agents.NewSupportAgent(nil),
		agents.NewCheckoutAgent(nil),
	)

	svc, err := chat.New(registry, orch)
	if err != nil {
		t.Fatalf("new chat service: %v", err)
	}

	srv, err := New(Config{Addr: ":0"}, svc)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decode(t, rec)["status"]; got != "healthy" {
		t.Errorf("status field = %v, want healthy", got)
	}
}

func TestChatEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/chat", map[string]any{
		"message":     "Where is my order #12345?",
		"customer_id": "CUST-1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	body := decode(t, rec)
	if body["success"] != true {
		t.Fatalf("success = %v, body = %v", body["success"], body)
	}
	if body["agent"] != "OrderAgent" {
		t.Errorf("agent = %v, want OrderAgent", body["agent"])
	}
	if body["intent"] != "order_status" {
		t.Errorf("intent = %v, want order_status", body["intent"])
	}

	sessionID, _ := body["session_id"].(string)
	if !strings.HasPrefix(sessionID, "SES-") {
		t.Fatalf("session id = %q, want SES- prefix", sessionID)
	}

	// Session continuity across requests.
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/chat", map[string]any{
		"message":    "and when will it arrive?",
		"session_id": sessionID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode(t, rec)["session_id"]; got != sessionID {
		t.Errorf("session id changed: %v -> %v", sessionID, got)
	}
}

func TestChatEndpointValidation(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/chat", map[string]any{"message": ""})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty message status = %d, want 400", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader("{not json"))
	recorder := httptest.NewRecorder()
	srv.Handler().ServeHTTP(recorder, req)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", recorder.Code)
	}
}

func TestSessionEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/chat", map[string]any{
		"message": "recommend me a phone",
	})
	sessionID := decode(t, rec)["session_id"].(string)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/sessions/"+sessionID+"/history?limit=5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	history, _ := decode(t, rec)["history"].([]any)
	if len(history) != 2 {
		t.Errorf("history length = %d, want 2", len(history))
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+sessionID+"/reset", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/sessions/"+sessionID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if got := decode(t, rec)["deleted"]; got != true {
		t.Errorf("deleted = %v, want true", got)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/sessions/"+sessionID+"/history", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("history after delete status = %d, want 404", rec.Code)
	}
}

func TestRetailEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/products/search", map[string]any{"query": "iphone"})
	if rec.Code != http.StatusOK {
		t.Fatalf("product search status = %d", rec.Code)
	}
	if got := decode(t, rec)["total_results"].(float64); got != 1 {
		t.Errorf("total_results = %v, want 1", got)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/orders/track", map[string]any{"order_id": "ORD-42"})
	if rec.Code != http.StatusOK {
		t.Fatalf("order track status = %d", rec.Code)
	}
	if got := decode(t, rec)["order_id"]; got != "ORD-42" {
		t.Errorf("order_id = %v, want ORD-42", got)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/orders/track", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing order_id status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/cart/coupon", map[string]any{"coupon_code": "SAVE10"})
	if rec.Code != http.StatusOK {
		t.Fatalf("coupon status = %d", rec.Code)
	}
	if got := decode(t, rec)["valid"]; got != true {
		t.Errorf("valid = %v, want true", got)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/cart/CUST-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cart status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/returns", map[string]any{"order_id": "ORD-42", "reason": "damaged"})
	if rec.Code != http.StatusOK {
		t.Fatalf("returns status = %d", rec.Code)
	}
	returnID, _ := decode(t, rec)["return_id"].(string)
	if !strings.HasPrefix(returnID, "RET-") {
		t.Errorf("return_id = %q, want RET- prefix", returnID)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/recommendations/CUST-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("recommendations status = %d", rec.Code)
	}
	if got := decode(t, rec)["customer_id"]; got != "CUST-1" {
		t.Errorf("customer_id = %v, want CUST-1", got)
	}
}
