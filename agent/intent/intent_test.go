package intent

import "testing"

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		want    Intent
	}{
		{"order tracking", "Where is my order #12345?", OrderStatus},
		{"delivery question", "When will my delivery arrive?", OrderStatus},
		{"return request", "I want a refund for my broken headphones", ReturnRequest},
		{"exchange", "Can I exchange this for a different size? It arrived damaged", OrderStatus},
		{"cart help", "How do I apply a coupon at checkout?", CartHelp},
		{"promo code", "Do you have any promo codes?", CartHelp},
		{"recommendation", "Can you recommend a good laptop?", Recommendation},
		{"similar products", "Show me something similar", Recommendation},
		{"product stock", "Do you have the iPhone 15 Pro in stock?", ProductQuery},
		{"product price", "What's the price of the Galaxy S24?", ProductQuery},
		{"fallback", "Hello there!", GeneralInquiry},
		{"empty", "", GeneralInquiry},
		{"case insensitive", "WHERE IS MY ORDER?", OrderStatus},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tt.message); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}

// Earlier rules win when a message matches keywords from several intents.
func TestClassifyRuleOrder(t *testing.T) {
	t.Parallel()

	if got := Classify("I want to return my order"); got != OrderStatus {
		t.Errorf("Classify = %q, want %q (order rule precedes return rule)", got, OrderStatus)
	}
	if got := Classify("refund to my card at checkout"); got != ReturnRequest {
		t.Errorf("Classify = %q, want %q (return rule precedes cart rule)", got, ReturnRequest)
	}
}

func TestRoute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   Intent
		want string
	}{
		{ProductQuery, AgentProduct},
		{OrderStatus, AgentOrder},
		{Recommendation, AgentRecommendation},
		{ReturnRequest, AgentSupport},
		{CartHelp, AgentCheckout},
		{CheckoutHelp, AgentCheckout},
		{GeneralInquiry, AgentProduct},
		{Intent("bogus"), AgentProduct},
	}

	for _, tt := range tests {
		tt := tt
		if got := Route(tt.in); got != tt.want {
			t.Errorf("Route(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecide(t *testing.T) {
	t.Parallel()

	d := Decide("track my package please, it's an order")
	if d.Intent != OrderStatus {
		t.Errorf("Intent = %q, want %q", d.Intent, OrderStatus)
	}
	if d.TargetAgent != AgentOrder {
		t.Errorf("TargetAgent = %q, want %q", d.TargetAgent, AgentOrder)
	}
	if d.Confidence != Confidence {
		t.Errorf("Confidence = %v, want %v", d.Confidence, Confidence)
	}
}

func TestExtractEntities(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		message   string
		wantOrder string
		wantColor string
		wantSize  string
	}{
		{"order id", "Where is my order #12345?", "12345", "", ""},
		{"color and size", "Do you have it in blue, size large?", "", "blue", "large"},
		{"nothing", "Hello!", "", "", ""},
		{"order and color", "Order #777 was supposed to be black", "777", "black", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ExtractEntities(tt.message)
			if got.OrderID != tt.wantOrder {
				t.Errorf("OrderID = %q, want %q", got.OrderID, tt.wantOrder)
			}
			if got.Color != tt.wantColor {
				t.Errorf("Color = %q, want %q", got.Color, tt.wantColor)
			}
			if got.Size != tt.wantSize {
				t.Errorf("Size = %q, want %q", got.Size, tt.wantSize)
			}
		})
	}
}
