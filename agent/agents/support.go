package agents

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/shoptalk-ai/shoptalk/agent/contract"
	intentx "github.com/shoptalk-ai/shoptalk/agent/intent"
	statex "github.com/shoptalk-ai/shoptalk/agent/state"
)

const supportInstruction = "You are a retail support assistant handling " +
	"returns and refunds. Rewrite the structured data below into one short, " +
	"empathetic reply with the next step the customer should take."

// SupportAgent handles returns, refunds, and escalation tickets against mock
// support data.
type SupportAgent struct {
	base
}

func NewSupportAgent(responder contractx.Responder) *SupportAgent {
	return &SupportAgent{base{name: intentx.AgentSupport, responder: responder}}
}

func (a *SupportAgent) Execute(ctx context.Context, task string, snapshot statex.Snapshot) (contractx.AgentResult, error) {
	lowered := strings.ToLower(task)

	orderID := defaultOrderID
	if entities := intentx.ExtractEntities(task); entities.OrderID != "" {
		orderID = "ORD-" + entities.OrderID
	} else if len(snapshot.Entities.MentionedOrders) > 0 {
		orderID = snapshot.Entities.MentionedOrders[len(snapshot.Entities.MentionedOrders)-1]
	}

	switch {
	case strings.Contains(lowered, "refund"):
		payload := a.ProcessRefund(orderID, "original_payment")
		template := fmt.Sprintf("Your refund of $%.2f for order %s is processing; expect it in %s.",
			payload["refund_amount"], orderID, payload["estimated_processing"])
		return a.result(a.reply(ctx, supportInstruction, template, payload), payload)

	case strings.Contains(lowered, "status"):
		payload := a.ReturnStatus(newID("RET-"))
		template := "Your return is in transit to our warehouse; the refund follows inspection."
		return a.result(a.reply(ctx, supportInstruction, template, payload), payload)

	case strings.Contains(lowered, "ticket") || strings.Contains(lowered, "complaint"):
		payload := a.CreateTicket("general", task, orderID)
		template := fmt.Sprint(payload["confirmation"])
		return a.result(a.reply(ctx, supportInstruction, template, payload), payload)

	default:
		eligibility := a.CheckReturnEligibility(orderID)
		payload := a.InitiateReturn(orderID, task, "all")
		payload["eligibility"] = eligibility
		template := fmt.Sprintf("I've started return %s for order %s. Your prepaid label is ready, and the refund lands 3-5 business days after we receive the package.",
			payload["return_id"], orderID)
		return a.result(a.reply(ctx, supportInstruction, template, payload), payload)
	}
}

func (a *SupportAgent) CheckReturnEligibility(orderID string) map[string]any {
	return map[string]any{
		"order_id":           orderID,
		"eligible":           true,
		"return_window_days": 30,
		"days_remaining":     25,
		"return_type":        []string{"full_refund", "exchange", "store_credit"},
		"items": []map[string]any{
			{"name": "iPhone 15 Pro - Blue", "returnable": true, "refund_amount": 999.00},
		},
		"return_conditions": []string{
			"Item must be unused and in original packaging",
			"All accessories must be included",
			"Original receipt required",
		},
	}
}

func (a *SupportAgent) InitiateReturn(orderID, reason, items string) map[string]any {
	return map[string]any{
		"return_id":    newID("RET-"),
		"order_id":     orderID,
		"status":       "initiated",
		"reason":       reason,
		"items":        items,
		"return_label": "https://example.com/return-label/12345",
		"drop_off_locations": []string{
			"Any FedEx location",
			"Schedule pickup",
		},
		"refund_estimate": map[string]any{
			"amount":          999.00,
			"method":          "original_payment",
			"processing_days": "3-5 business days after receipt",
		},
	}
}

func (a *SupportAgent) ReturnStatus(returnID string) map[string]any {
	return map[string]any{
		"return_id": returnID,
		"status":    "in_transit",
		"tracker": []map[string]any{
			{"date": "2024-01-05", "status": "Return initiated"},
			{"date": "2024-01-06", "status": "Package dropped off"},
			{"date": "2024-01-07", "status": "In transit to warehouse"},
		},
		"estimated_arrival":       "2024-01-10",
		"refund_after_inspection": true,
	}
}

func (a *SupportAgent) ProcessRefund(orderID, refundType string) map[string]any {
	return map[string]any{
		"refund_id":            newID("REF-"),
		"order_id":             orderID,
		"status":               "processing",
		"refund_amount":        999.00,
		"refund_method":        refundType,
		"estimated_processing": "3-5 business days",
		"confirmation_sent":    true,
	}
}

func (a *SupportAgent) CreateTicket(issueType, description, orderID string) map[string]any {
	ticketID := newID("TKT-")
	return map[string]any{
		"ticket_id":          ticketID,
		"issue_type":         issueType,
		"order_id":           orderID,
		"priority":           "normal",
		"status":             "open",
		"estimated_response": "24-48 hours",
		"agent_assigned":     false,
		"confirmation":       fmt.Sprintf("We've received your request. Ticket #%s", ticketID),
	}
}
