// Package intent classifies customer messages into a closed set of intents
// and maps each intent to the agent responsible for it.
package intent

import "strings"

// Intent is a closed category describing what a customer message asks for.
type Intent string

const (
	ProductQuery   Intent = "product_query"
	OrderStatus    Intent = "order_status"
	Recommendation Intent = "recommendation"
	ReturnRequest  Intent = "return_request"
	CartHelp       Intent = "cart_help"
	CheckoutHelp   Intent = "checkout_help"
	GeneralInquiry Intent = "general_inquiry"
)

// Agent names resolvable from the routing table.
const (
	AgentProduct        = "ProductAgent"
	AgentOrder          = "OrderAgent"
	AgentRecommendation = "RecommendationAgent"
	AgentSupport        = "SupportAgent"
	AgentCheckout       = "CheckoutAgent"
)

// Confidence is a fixed placeholder score attached to every classification.
const Confidence = 0.85

// rule pairs an intent with the keywords that select it. Rules are evaluated
// in order; the first rule with any keyword present in the lowercased message
// wins, so earlier rules take precedence over later ones.
type rule struct {
	intent   Intent
	keywords []string
}

var rules = []rule{
	{OrderStatus, []string{"order", "track", "where is", "delivery", "shipping", "arrived"}},
	{ReturnRequest, []string{"return", "refund", "exchange", "broken", "damaged", "wrong"}},
	{CartHelp, []string{"cart", "checkout", "pay", "coupon", "discount", "promo"}},
	{Recommendation, []string{"recommend", "suggest", "similar", "like this", "alternative"}},
	{ProductQuery, []string{"have", "stock", "available", "price", "specs", "feature", "size", "color"}},
}

// routing is exhaustive over the intent set; Route falls back to the product
// agent for anything unmapped.
var routing = map[Intent]string{
	ProductQuery:   AgentProduct,
	OrderStatus:    AgentOrder,
	Recommendation: AgentRecommendation,
	ReturnRequest:  AgentSupport,
	CartHelp:       AgentCheckout,
	CheckoutHelp:   AgentCheckout,
	GeneralInquiry: AgentProduct,
}

// Classify returns the intent of the first matching rule, or GeneralInquiry
// when no keyword matches. It never fails.
func Classify(text string) Intent {
	lowered := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lowered, kw) {
				return r.intent
			}
		}
	}
	return GeneralInquiry
}

// Route resolves the agent name responsible for an intent.
func Route(in Intent) string {
	if name, ok := routing[in]; ok {
		return name
	}
	return AgentProduct
}

// Decision is the ephemeral outcome of routing a single message. It is
// computed per message and never persisted.
type Decision struct {
	Intent      Intent  `json:"intent"`
	TargetAgent string  `json:"target_agent"`
	Confidence  float64 `json:"confidence"`
}

// Decide classifies text and resolves its target agent in one step.
func Decide(text string) Decision {
	in := Classify(text)
	return Decision{
		Intent:      in,
		TargetAgent: Route(in),
		Confidence:  Confidence,
	}
}
