package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	contractx "github.com/shoptalk-ai/shoptalk/agent/contract"
	intentx "github.com/shoptalk-ai/shoptalk/agent/intent"
	statex "github.com/shoptalk-ai/shoptalk/agent/state"
)

const checkoutInstruction = "You are a retail checkout assistant. Rewrite " +
	"the structured cart data below into one short, helpful reply with the " +
	"current total and any savings."

// couponPattern matches coupon-looking tokens such as SAVE10 or FREESHIP.
var couponPattern = regexp.MustCompile(`\b[A-Z]{3,}\d*\b`)

type coupon struct {
	Type     string
	Value    float64
	MinOrder float64
}

var validCoupons = map[string]coupon{
	"SAVE10":    {Type: "percentage", Value: 10, MinOrder: 50},
	"FREESHIP":  {Type: "free_shipping", Value: 0, MinOrder: 0},
	"WELCOME20": {Type: "fixed", Value: 20, MinOrder: 100},
}

// CheckoutAgent manages the cart, coupons, and shipping options against mock
// checkout data.
type CheckoutAgent struct {
	base
}

func NewCheckoutAgent(responder contractx.Responder) *CheckoutAgent {
	return &CheckoutAgent{base{name: intentx.AgentCheckout, responder: responder}}
}

func (a *CheckoutAgent) Execute(ctx context.Context, task string, snapshot statex.Snapshot) (contractx.AgentResult, error) {
	lowered := strings.ToLower(task)

	customerID := snapshot.Fields.CustomerID
	if customerID == "" {
		customerID = statex.AnonymousCustomer
	}

	switch {
	case strings.Contains(lowered, "coupon") || strings.Contains(lowered, "promo") || strings.Contains(lowered, "discount"):
		code := extractCouponCode(task)
		payload := a.ApplyCoupon("CART-12345", code)
		template := fmt.Sprint(payload["message"])
		return a.result(a.reply(ctx, checkoutInstruction, template, payload), payload)

	case strings.Contains(lowered, "shipping"):
		payload := a.ShippingOptions("CART-12345", "10001")
		template := "Standard shipping is free for your order; express is $9.99 for 2-3 day delivery."
		return a.result(a.reply(ctx, checkoutInstruction, template, payload), payload)

	case strings.Contains(lowered, "add"):
		payload := a.AddToCart(customerID, "PROD-001", 1)
		template := fmt.Sprint(payload["message"])
		return a.result(a.reply(ctx, checkoutInstruction, template, payload), payload)

	default:
		payload := a.GetCart(customerID)
		template := fmt.Sprintf("Your cart has %v item(s) totalling $%.2f.", payload["items_count"], payload["total"])
		return a.result(a.reply(ctx, checkoutInstruction, template, payload), payload)
	}
}

func (a *CheckoutAgent) GetCart(customerID string) map[string]any {
	return map[string]any{
		"customer_id": customerID,
		"cart_id":     "CART-12345",
		"items": []map[string]any{
			{"id": "PROD-001", "name": "iPhone 15 Pro - Blue 256GB", "price": 1099.00, "quantity": 1},
		},
		"subtotal":    1099.00,
		"tax":         87.92,
		"shipping":    0.00,
		"discount":    0.00,
		"total":       1186.92,
		"items_count": 1,
	}
}

func (a *CheckoutAgent) AddToCart(customerID, productID string, quantity int) map[string]any {
	return map[string]any{
		"success":     true,
		"product_id":  productID,
		"quantity":    quantity,
		"cart_total":  1186.92,
		"items_count": 1,
		"message":     "Item added to cart!",
	}
}

func (a *CheckoutAgent) ApplyCoupon(cartID, code string) map[string]any {
	upper := strings.ToUpper(strings.TrimSpace(code))
	c, ok := validCoupons[upper]
	if !ok {
		return map[string]any{
			"valid":       false,
			"coupon_code": code,
			"message":     "Sorry, this coupon code is invalid or expired.",
		}
	}

	savings := c.Value
	if c.Type == "percentage" {
		savings = 109.90
	}
	return map[string]any{
		"valid":          true,
		"coupon_code":    upper,
		"discount_type":  c.Type,
		"discount_value": c.Value,
		"savings":        savings,
		"new_total":      1077.02,
		"message":        fmt.Sprintf("Coupon %s applied! You saved $%.2f", upper, savings),
	}
}

func (a *CheckoutAgent) UpdateCartItem(cartID, productID string, quantity int) map[string]any {
	if quantity == 0 {
		return map[string]any{
			"success":    true,
			"action":     "removed",
			"product_id": productID,
			"message":    "Item removed from cart",
		}
	}
	return map[string]any{
		"success":      true,
		"action":       "updated",
		"product_id":   productID,
		"new_quantity": quantity,
		"message":      fmt.Sprintf("Quantity updated to %d", quantity),
	}
}

func (a *CheckoutAgent) ShippingOptions(cartID, zipCode string) map[string]any {
	return map[string]any{
		"cart_id":  cartID,
		"zip_code": zipCode,
		"options": []map[string]any{
			{"method": "standard", "name": "Standard Shipping", "price": 0.00, "estimated_days": "5-7 business days", "free_above": 50.00},
			{"method": "express", "name": "Express Shipping", "price": 9.99, "estimated_days": "2-3 business days"},
			{"method": "overnight", "name": "Overnight Shipping", "price": 24.99, "estimated_days": "1 business day"},
		},
	}
}

func extractCouponCode(task string) string {
	for _, match := range couponPattern.FindAllString(task, -1) {
		if _, ok := validCoupons[match]; ok {
			return match
		}
	}
	// No known code in the message; return the first coupon-looking token so
	// the validation path can reject it with a useful message.
	if match := couponPattern.FindString(task); match != "" {
		return match
	}
	return ""
}
