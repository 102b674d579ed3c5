// Package agents contains the specialist agents behind the routing table.
// Each one is a facade over mock retail data; when a Responder is attached
// the template replies are rephrased by a language model, otherwise they are
// returned as-is.
package agents

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/shoptalk-ai/shoptalk/agent/contract"
)

type base struct {
	name      string
	responder contractx.Responder
}

func (b base) Name() string {
	return b.name
}

// reply renders the final message: the template when no responder is
// configured or the model call fails, the polished text otherwise.
func (b base) reply(ctx context.Context, instruction, template string, payload map[string]any) string {
	if b.responder == nil {
		return template
	}

	summary := template
	if encoded, err := json.Marshal(payload); err == nil {
		summary = template + "\n\n" + string(encoded)
	}

	polished, err := b.responder.Respond(ctx, instruction, summary)
	if err != nil {
		log.Warn().Err(err).Str("agent", b.name).Msg("responder failed, using template reply")
		return template
	}
	if strings.TrimSpace(polished) == "" {
		return template
	}
	return polished
}

func (b base) result(message string, payload map[string]any) (contractx.AgentResult, error) {
	return contractx.AgentResult{
		Success: true,
		Message: message,
		Data:    payload,
	}, nil
}

func newID(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + strings.ToUpper(raw[:8])
}
