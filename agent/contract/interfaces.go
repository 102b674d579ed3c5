package contract

import (
	"context"

	statex "github.com/shoptalk-ai/shoptalk/agent/state"
)

// Agent is a named handler capable of executing a customer task against its
// backend. Implementations are opaque to the dispatch loop.
type Agent interface {
	Name() string
	Execute(ctx context.Context, task string, snapshot statex.Snapshot) (AgentResult, error)
}

// Responder turns a structured summary into conversational prose, typically
// via a language model. Implementations must be optional: agents fall back
// to their template reply when responding fails.
type Responder interface {
	Respond(ctx context.Context, instruction, summary string) (string, error)
}
