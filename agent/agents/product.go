package agents

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/shoptalk-ai/shoptalk/agent/contract"
	intentx "github.com/shoptalk-ai/shoptalk/agent/intent"
	statex "github.com/shoptalk-ai/shoptalk/agent/state"
)

const productInstruction = "You are a retail product assistant. Rewrite the " +
	"structured product data below into one short, friendly answer for the " +
	"customer. Mention price and stock status. Never invent products."

// ProductAgent answers product searches, detail lookups, and availability
// checks against the mock catalog.
type ProductAgent struct {
	base
}

func NewProductAgent(responder contractx.Responder) *ProductAgent {
	return &ProductAgent{base{name: intentx.AgentProduct, responder: responder}}
}

func (a *ProductAgent) Execute(ctx context.Context, task string, snapshot statex.Snapshot) (contractx.AgentResult, error) {
	lowered := strings.ToLower(task)

	switch {
	case strings.Contains(lowered, "stock") || strings.Contains(lowered, "available") || strings.Contains(lowered, "inventory"):
		focus := snapshot.Fields.ProductFocus
		if focus == "" {
			focus = "PROD-001"
		}
		payload := a.CheckInventory(focus, "")
		template := fmt.Sprintf("Good news, %s is in stock (%v units available).", focus, payload["quantity"])
		return a.result(a.reply(ctx, productInstruction, template, payload), payload)

	case strings.Contains(lowered, "compare"):
		payload := a.CompareProducts("PROD-001,PROD-002")
		template := "Here's a side-by-side comparison of the two phones, covering display, camera, and battery."
		return a.result(a.reply(ctx, productInstruction, template, payload), payload)

	case strings.Contains(lowered, "detail") || strings.Contains(lowered, "specs"):
		focus := snapshot.Fields.ProductFocus
		if focus == "" {
			focus = "PROD-001"
		}
		payload := a.ProductDetails(focus)
		template := fmt.Sprintf("%s, $%.2f. %s", payload["name"], payload["price"], payload["description"])
		return a.result(a.reply(ctx, productInstruction, template, payload), payload)

	default:
		payload := a.SearchProducts(task, 0)
		total := payload["total_results"].(int)
		template := fmt.Sprintf("I found %d matching products for you.", total)
		if total == 0 {
			template = "I couldn't find a matching product, but here are our most popular items instead."
			payload = a.SearchProducts("", 0)
		}
		return a.result(a.reply(ctx, productInstruction, template, payload), payload)
	}
}

type product struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	InStock bool    `json:"in_stock"`
	Rating  float64 `json:"rating"`
}

var catalog = []product{
	{ID: "PROD-001", Name: "iPhone 15 Pro - Blue Titanium", Price: 999.00, InStock: true, Rating: 4.8},
	{ID: "PROD-002", Name: "Samsung Galaxy S24 Ultra", Price: 1199.00, InStock: true, Rating: 4.7},
	{ID: "PROD-003", Name: "Nike Air Max 270 - Running Shoes", Price: 150.00, InStock: true, Rating: 4.5},
}

// SearchProducts filters the mock catalog by substring and optional maximum
// price. An empty query matches everything.
func (a *ProductAgent) SearchProducts(query string, maxPrice float64) map[string]any {
	lowered := strings.ToLower(query)

	results := make([]product, 0, len(catalog))
	for _, p := range catalog {
		if lowered != "" && !strings.Contains(strings.ToLower(p.Name), lowered) {
			continue
		}
		if maxPrice > 0 && p.Price > maxPrice {
			continue
		}
		results = append(results, p)
	}

	return map[string]any{
		"query":         query,
		"products":      results,
		"total_results": len(results),
	}
}

func (a *ProductAgent) ProductDetails(productID string) map[string]any {
	return map[string]any{
		"id":          productID,
		"name":        "iPhone 15 Pro - Blue Titanium",
		"description": "The most advanced iPhone ever with A17 Pro chip.",
		"category":    "Electronics",
		"brand":       "Apple",
		"price":       999.00,
		"specs": map[string]any{
			"display": "6.1-inch Super Retina XDR",
			"chip":    "A17 Pro",
			"camera":  "48MP main camera",
			"battery": "Up to 29 hours video playback",
		},
		"variants": []map[string]any{
			{"storage": "128GB", "price": 999.00},
			{"storage": "256GB", "price": 1099.00},
			{"storage": "512GB", "price": 1299.00},
			{"storage": "1TB", "price": 1499.00},
		},
		"colors":        []string{"Blue Titanium", "Black Titanium", "White Titanium", "Natural Titanium"},
		"in_stock":      true,
		"rating":        4.8,
		"reviews_count": 1250,
	}
}

func (a *ProductAgent) CheckInventory(productID, variant string) map[string]any {
	return map[string]any{
		"product_id":          productID,
		"variant":             variant,
		"in_stock":            true,
		"quantity":            15,
		"low_stock_threshold": 5,
		"is_low_stock":        false,
		"stores_with_stock":   []string{"Main Warehouse", "Store NYC", "Store LA"},
	}
}

func (a *ProductAgent) CompareProducts(productIDs string) map[string]any {
	return map[string]any{
		"products": []map[string]any{
			{"id": "PROD-001", "name": "iPhone 15 Pro", "price": 999, "rating": 4.8},
			{"id": "PROD-002", "name": "Samsung Galaxy S24", "price": 1199, "rating": 4.7},
		},
		"comparison_attributes": map[string]any{
			"display": map[string]string{"PROD-001": "6.1 inch", "PROD-002": "6.8 inch"},
			"camera":  map[string]string{"PROD-001": "48MP", "PROD-002": "200MP"},
			"battery": map[string]string{"PROD-001": "3274 mAh", "PROD-002": "5000 mAh"},
		},
		"requested": strings.Split(productIDs, ","),
	}
}
