package intent

import (
	"regexp"
	"strings"
)

var orderIDPattern = regexp.MustCompile(`#(\d+)`)

var knownColors = []string{"red", "blue", "green", "black", "white", "pink", "gold", "silver"}

var knownSizes = []string{"small", "medium", "large", "xl", "xxl", "xs"}

// Entities are the values recognizable from a single message. Zero fields
// mean nothing was found.
type Entities struct {
	OrderID string `json:"order_id,omitempty"`
	Color   string `json:"color,omitempty"`
	Size    string `json:"size,omitempty"`
}

// ExtractEntities pulls order ids, colors, and sizes out of a raw message
// with plain pattern matching.
func ExtractEntities(message string) Entities {
	var out Entities

	if m := orderIDPattern.FindStringSubmatch(message); m != nil {
		out.OrderID = m[1]
	}

	lowered := strings.ToLower(message)
	for _, color := range knownColors {
		if strings.Contains(lowered, color) {
			out.Color = color
			break
		}
	}
	for _, size := range knownSizes {
		if strings.Contains(lowered, size) {
			out.Size = size
			break
		}
	}
	return out
}
