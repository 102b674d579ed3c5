// Package server exposes the chatbot over HTTP. The /api/v1/chat endpoint
// is the only path through the agent core; the remaining retail endpoints
// are thin pass-throughs over the mock agent data.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/shoptalk-ai/shoptalk/agent/agents"
	"github.com/shoptalk-ai/shoptalk/agent/chat"
	sessionx "github.com/shoptalk-ai/shoptalk/agent/session"
)

const apiVersion = "1.0.0"

type Config struct {
	Addr            string        `envconfig:"ADDR" split_words:"true" default:":8000"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" split_words:"true" default:"10s"`
}

type Server struct {
	svc     *chat.Service
	product *agents.ProductAgent
	order   *agents.OrderAgent
	rec     *agents.RecommendationAgent
	support *agents.SupportAgent
	cart    *agents.CheckoutAgent

	httpServer *http.Server
}

func New(cfg Config, svc *chat.Service) (*Server, error) {
	if svc == nil {
		return nil, errors.New("chat service is required")
	}

	s := &Server{
		svc: svc,
		// Direct agent facades for the pass-through endpoints. These bypass
		// the dispatch loop entirely.
		product: agents.NewProductAgent(nil),
		order:   agents.NewOrderAgent(nil),
		rec:     agents.NewRecommendationAgent(nil),
		support: agents.NewSupportAgent(nil),
		cart:    agents.NewCheckoutAgent(nil),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/chat", s.handleChat)

		r.Get("/sessions/{sessionID}/history", s.handleHistory)
		r.Post("/sessions/{sessionID}/reset", s.handleReset)
		r.Delete("/sessions/{sessionID}", s.handleDeleteSession)

		r.Post("/products/search", s.handleProductSearch)
		r.Get("/products/{productID}", s.handleProductDetails)

		r.Post("/orders/track", s.handleOrderTrack)
		r.Get("/orders/{orderID}", s.handleOrderDetails)

		r.Get("/cart/{customerID}", s.handleGetCart)
		r.Post("/cart/coupon", s.handleCoupon)

		r.Post("/returns", s.handleCreateReturn)
		r.Get("/returns/{returnID}", s.handleReturnStatus)

		r.Get("/recommendations/{customerID}", s.handleRecommendations)
	})

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type chatRequest struct {
	Message    string `json:"message"`
	SessionID  string `json:"session_id,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
}

type chatResponse struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	SessionID string         `json:"session_id"`
	Data      map[string]any `json:"data,omitempty"`
	Intent    string         `json:"intent,omitempty"`
	Agent     string         `json:"agent,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	envelope, sessionID, err := s.svc.Chat(r.Context(), req.Message, req.SessionID, req.CustomerID)
	if err != nil {
		log.Error().Err(err).Msg("chat turn failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Success:   envelope.Success,
		Message:   envelope.Message,
		SessionID: sessionID,
		Data:      envelope.Data,
		Intent:    string(envelope.Intent),
		Agent:     envelope.Agent,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	history, err := s.svc.History(r.Context(), sessionID, limit)
	if err != nil {
		if errors.Is(err, sessionx.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"history":    history,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := s.svc.ResetContext(r.Context(), sessionID); err != nil {
		if errors.Is(err, sessionx.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": sessionID, "reset": true})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	removed, err := s.svc.DeleteSession(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": sessionID, "deleted": removed})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":        "ShopTalk Retail Chatbot",
		"version":     apiVersion,
		"description": "Multi-agent retail customer service chatbot",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{
		"status":    "healthy",
		"version":   apiVersion,
		"timestamp": time.Now().UTC(),
		"services": map[string]string{
			"api":    "running",
			"agents": "ready",
		},
	}
	if count, ok := s.svc.ActiveSessions(); ok {
		body["active_sessions"] = count
	}
	writeJSON(w, http.StatusOK, body)
}

type productSearchRequest struct {
	Query    string  `json:"query"`
	MaxPrice float64 `json:"max_price,omitempty"`
}

func (s *Server) handleProductSearch(w http.ResponseWriter, r *http.Request) {
	var req productSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, s.product.SearchProducts(req.Query, req.MaxPrice))
}

func (s *Server) handleProductDetails(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.product.ProductDetails(chi.URLParam(r, "productID")))
}

type orderTrackRequest struct {
	OrderID string `json:"order_id"`
}

func (s *Server) handleOrderTrack(w http.ResponseWriter, r *http.Request) {
	var req orderTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "order_id is required")
		return
	}
	writeJSON(w, http.StatusOK, s.order.TrackOrder(req.OrderID))
}

func (s *Server) handleOrderDetails(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.order.OrderDetails(chi.URLParam(r, "orderID")))
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cart.GetCart(chi.URLParam(r, "customerID")))
}

type couponRequest struct {
	CartID     string `json:"cart_id,omitempty"`
	CouponCode string `json:"coupon_code"`
}

func (s *Server) handleCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, s.cart.ApplyCoupon(req.CartID, req.CouponCode))
}

type returnRequest struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason,omitempty"`
}

func (s *Server) handleCreateReturn(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "order_id is required")
		return
	}
	writeJSON(w, http.StatusOK, s.support.InitiateReturn(req.OrderID, req.Reason, "all"))
}

func (s *Server) handleReturnStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.support.ReturnStatus(chi.URLParam(r, "returnID")))
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.rec.PersonalizedRecommendations(chi.URLParam(r, "customerID")))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
