package agents

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/shoptalk-ai/shoptalk/agent/contract"
	intentx "github.com/shoptalk-ai/shoptalk/agent/intent"
	statex "github.com/shoptalk-ai/shoptalk/agent/state"
)

const orderInstruction = "You are a retail order-tracking assistant. Rewrite " +
	"the structured tracking data below into one short, reassuring update for " +
	"the customer. Include carrier and estimated delivery."

const defaultOrderID = "ORD-12345"

// OrderAgent handles order tracking and status inquiries against mock order
// data.
type OrderAgent struct {
	base
}

func NewOrderAgent(responder contractx.Responder) *OrderAgent {
	return &OrderAgent{base{name: intentx.AgentOrder, responder: responder}}
}

func (a *OrderAgent) Execute(ctx context.Context, task string, snapshot statex.Snapshot) (contractx.AgentResult, error) {
	lowered := strings.ToLower(task)

	orderID := defaultOrderID
	if entities := intentx.ExtractEntities(task); entities.OrderID != "" {
		orderID = "ORD-" + entities.OrderID
	} else if len(snapshot.Entities.MentionedOrders) > 0 {
		orderID = snapshot.Entities.MentionedOrders[len(snapshot.Entities.MentionedOrders)-1]
	}

	switch {
	case strings.Contains(lowered, "my orders") || strings.Contains(lowered, "order history"):
		customerID := snapshot.Fields.CustomerID
		if customerID == "" {
			customerID = statex.AnonymousCustomer
		}
		payload := a.CustomerOrders(customerID)
		template := fmt.Sprintf("You have %v orders on file; the most recent one is on its way.", payload["total_orders"])
		return a.result(a.reply(ctx, orderInstruction, template, payload), payload)

	case strings.Contains(lowered, "detail") || strings.Contains(lowered, "receipt") || strings.Contains(lowered, "invoice"):
		payload := a.OrderDetails(orderID)
		template := fmt.Sprintf("Order %s totals $%.2f and is currently %s.", orderID, payload["total"], payload["status"])
		return a.result(a.reply(ctx, orderInstruction, template, payload), payload)

	default:
		payload := a.TrackOrder(orderID)
		template := fmt.Sprintf("Order %s is in transit with %s, estimated delivery %s.",
			orderID, payload["carrier"], payload["estimated_delivery"])
		return a.result(a.reply(ctx, orderInstruction, template, payload), payload)
	}
}

func (a *OrderAgent) TrackOrder(orderID string) map[string]any {
	return map[string]any{
		"order_id":           orderID,
		"status":             "in_transit",
		"status_display":     "In Transit 🚚",
		"ordered_date":       "2024-01-03",
		"shipped_date":       "2024-01-04",
		"carrier":            "FedEx",
		"tracking_number":    "7894561230123",
		"estimated_delivery": "2024-01-07",
		"latest_update": map[string]any{
			"timestamp": "2024-01-05 14:30",
			"location":  "Memphis, TN",
			"status":    "Package departed - On the way to destination",
		},
		"tracking_history": []map[string]any{
			{"date": "2024-01-04", "status": "Shipped", "location": "Warehouse"},
			{"date": "2024-01-04", "status": "In Transit", "location": "Chicago, IL"},
			{"date": "2024-01-05", "status": "In Transit", "location": "Memphis, TN"},
		},
		"items": []map[string]any{
			{"name": "iPhone 15 Pro - Blue", "quantity": 1, "price": 999.00},
		},
	}
}

func (a *OrderAgent) OrderDetails(orderID string) map[string]any {
	return map[string]any{
		"order_id":    orderID,
		"customer_id": "CUST-12345",
		"status":      "processing",
		"order_date":  "2024-01-03",
		"items": []map[string]any{
			{"name": "iPhone 15 Pro - Blue", "sku": "IPH15P-BL-256", "quantity": 1, "price": 1099.00},
		},
		"subtotal": 1099.00,
		"tax":      87.92,
		"shipping": 0.00,
		"total":    1186.92,
		"shipping_address": map[string]any{
			"name":   "John Doe",
			"street": "123 Main St",
			"city":   "New York",
			"state":  "NY",
			"zip":    "10001",
		},
		"payment_method": "Visa ending in 4242",
	}
}

func (a *OrderAgent) CustomerOrders(customerID string) map[string]any {
	return map[string]any{
		"customer_id": customerID,
		"orders": []map[string]any{
			{"order_id": "ORD-12345", "date": "2024-01-03", "status": "in_transit", "total": 1186.92, "items_count": 1},
			{"order_id": "ORD-12344", "date": "2023-12-20", "status": "delivered", "total": 299.99, "items_count": 2},
		},
		"total_orders": 2,
	}
}
