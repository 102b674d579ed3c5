package contract

import (
	intentx "github.com/shoptalk-ai/shoptalk/agent/intent"
)

// AgentResult is what a specialist agent returns from one execution.
type AgentResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Envelope is the uniform response shape returned for every turn, success or
// failure. Error carries the raw diagnostic for logging; Message is always
// safe to show the customer.
type Envelope struct {
	Success       bool           `json:"success"`
	Message       string         `json:"message"`
	Data          map[string]any `json:"data,omitempty"`
	Intent        intentx.Intent `json:"intent,omitempty"`
	Agent         string         `json:"agent,omitempty"`
	ExecutionTime float64        `json:"execution_time"`
	Error         string         `json:"error,omitempty"`
}
