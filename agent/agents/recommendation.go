package agents

import (
	"context"
	"strings"

	contractx "github.com/shoptalk-ai/shoptalk/agent/contract"
	intentx "github.com/shoptalk-ai/shoptalk/agent/intent"
	statex "github.com/shoptalk-ai/shoptalk/agent/state"
)

const recommendationInstruction = "You are a retail recommendation assistant. " +
	"Rewrite the structured suggestions below into one short, enthusiastic " +
	"reply. Mention at most three products with prices."

// RecommendationAgent suggests similar, personalized, and trending products
// from mock recommendation data.
type RecommendationAgent struct {
	base
}

func NewRecommendationAgent(responder contractx.Responder) *RecommendationAgent {
	return &RecommendationAgent{base{name: intentx.AgentRecommendation, responder: responder}}
}

func (a *RecommendationAgent) Execute(ctx context.Context, task string, snapshot statex.Snapshot) (contractx.AgentResult, error) {
	lowered := strings.ToLower(task)

	switch {
	case strings.Contains(lowered, "similar") || strings.Contains(lowered, "like this") || strings.Contains(lowered, "alternative"):
		focus := snapshot.Fields.ProductFocus
		if focus == "" {
			focus = "PROD-001"
		}
		payload := a.SimilarProducts(focus)
		template := "Based on what you're looking at, the Samsung Galaxy S24 Ultra and Google Pixel 8 Pro are close matches."
		return a.result(a.reply(ctx, recommendationInstruction, template, payload), payload)

	case strings.Contains(lowered, "trending") || strings.Contains(lowered, "popular"):
		payload := a.TrendingProducts("")
		template := "Right now the iPhone 15 Pro, PS5 Slim, and Stanley Tumbler are trending."
		return a.result(a.reply(ctx, recommendationInstruction, template, payload), payload)

	default:
		customerID := snapshot.Fields.CustomerID
		if customerID == "" {
			customerID = statex.AnonymousCustomer
		}
		payload := a.PersonalizedRecommendations(customerID)
		template := "Based on your recent purchases I'd suggest the AirPods Pro 2, a MagSafe Charger, and a case for your phone."
		return a.result(a.reply(ctx, recommendationInstruction, template, payload), payload)
	}
}

func (a *RecommendationAgent) SimilarProducts(productID string) map[string]any {
	return map[string]any{
		"product_id": productID,
		"similar_products": []map[string]any{
			{"id": "PROD-002", "name": "Samsung Galaxy S24 Ultra", "price": 1199.00, "match_score": 0.92},
			{"id": "PROD-003", "name": "Google Pixel 8 Pro", "price": 999.00, "match_score": 0.88},
			{"id": "PROD-004", "name": "OnePlus 12", "price": 799.00, "match_score": 0.85},
		},
	}
}

func (a *RecommendationAgent) PersonalizedRecommendations(customerID string) map[string]any {
	return map[string]any{
		"customer_id": customerID,
		"recommendations": []map[string]any{
			{"id": "PROD-010", "name": "AirPods Pro 2", "price": 249.00, "reason": "Based on your iPhone purchase"},
			{"id": "PROD-011", "name": "MagSafe Charger", "price": 39.00, "reason": "Popular with iPhone users"},
			{"id": "PROD-012", "name": "iPhone 15 Pro Case", "price": 49.00, "reason": "Protect your new phone"},
		},
		"based_on": []string{"purchase_history", "browsing_behavior", "similar_customers"},
	}
}

func (a *RecommendationAgent) CrossSellItems(cartItems string) map[string]any {
	return map[string]any{
		"cart_items": strings.Split(cartItems, ","),
		"cross_sell": []map[string]any{
			{"id": "PROD-020", "name": "AppleCare+ for iPhone", "price": 199.00, "savings": "Save 20% when bought with iPhone"},
			{"id": "PROD-021", "name": "Lightning to USB-C Cable", "price": 19.00, "reason": "Essential accessory"},
		},
	}
}

func (a *RecommendationAgent) TrendingProducts(category string) map[string]any {
	if category == "" {
		category = "all"
	}
	return map[string]any{
		"category": category,
		"trending": []map[string]any{
			{"id": "PROD-001", "name": "iPhone 15 Pro", "sales_trend": "+45%", "rank": 1},
			{"id": "PROD-030", "name": "PS5 Slim", "sales_trend": "+38%", "rank": 2},
			{"id": "PROD-031", "name": "Stanley Tumbler", "sales_trend": "+120%", "rank": 3},
		},
		"period": "last_7_days",
	}
}
