// Package orchestrator dispatches classified customer messages to the
// registered specialist agents and normalizes every outcome into a uniform
// response envelope.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/shoptalk-ai/shoptalk/agent/contract"
	intentx "github.com/shoptalk-ai/shoptalk/agent/intent"
	statex "github.com/shoptalk-ai/shoptalk/agent/state"
)

// TurnState tracks a single turn through the dispatch pipeline. Each turn is
// attempted exactly once; Failed is terminal, the caller may resubmit.
type TurnState string

const (
	TurnReceived   TurnState = "received"
	TurnClassified TurnState = "classified"
	TurnRouted     TurnState = "routed"
	TurnDispatched TurnState = "dispatched"
	TurnCompleted  TurnState = "completed"
	TurnFailed     TurnState = "failed"
)

// User-facing fallback messages. Raw errors never reach the customer.
const (
	msgUnknownAgent = "I'm sorry, I couldn't understand your request. Could you please rephrase?"
	msgAgentFailure = "I apologize, but I encountered an error. Please try again."
)

// Orchestrator routes messages to agents by name. Construction-time
// registration only; the registry is read-only afterwards, so Process is
// safe for concurrent use.
type Orchestrator struct {
	agents map[string]contractx.Agent
	now    func() time.Time
}

func New(agents ...contractx.Agent) *Orchestrator {
	registry := make(map[string]contractx.Agent, len(agents))
	for _, a := range agents {
		if a == nil {
			continue
		}
		registry[a.Name()] = a
	}
	return &Orchestrator{
		agents: registry,
		now:    time.Now,
	}
}

// Agents lists the registered agent names.
func (o *Orchestrator) Agents() []string {
	names := make([]string, 0, len(o.agents))
	for name := range o.agents {
		names = append(names, name)
	}
	return names
}

// Process runs one turn: classify, route, dispatch, normalize. All failures
// are recovered here into a failure envelope; nothing propagates to the
// transport layer.
func (o *Orchestrator) Process(ctx context.Context, message string, snapshot statex.Snapshot) contractx.Envelope {
	start := o.now()
	state := TurnReceived

	if strings.TrimSpace(message) == "" {
		return o.failure(start, "", "", contractx.ErrEmptyMessage.Error())
	}

	decision := intentx.Decide(message)
	state = TurnClassified
	log.Debug().
		Str("intent", string(decision.Intent)).
		Float64("confidence", decision.Confidence).
		Str("turn_state", string(state)).
		Msg("message classified")

	target, ok := o.agents[decision.TargetAgent]
	if !ok {
		log.Warn().
			Str("agent", decision.TargetAgent).
			Str("intent", string(decision.Intent)).
			Str("turn_state", string(TurnFailed)).
			Msg("no agent registered for routing target")
		return o.failure(start, decision.Intent, decision.TargetAgent,
			fmt.Sprintf("Unknown agent: %s", decision.TargetAgent))
	}
	state = TurnRouted

	log.Debug().
		Str("agent", decision.TargetAgent).
		Str("intent", string(decision.Intent)).
		Str("turn_state", string(state)).
		Msg("dispatching message")

	result, err := target.Execute(ctx, message, snapshot)
	state = TurnDispatched
	if err != nil {
		log.Error().
			Err(err).
			Str("agent", decision.TargetAgent).
			Str("turn_state", string(TurnFailed)).
			Msg("agent execution failed")
		return o.failure(start, decision.Intent, decision.TargetAgent, err.Error())
	}

	state = TurnCompleted
	if !result.Success {
		state = TurnFailed
	}

	message = result.Message
	if message == "" {
		if out, ok := result.Data["output"].(string); ok {
			message = out
		}
	}

	elapsed := o.now().Sub(start).Seconds()
	log.Info().
		Str("agent", decision.TargetAgent).
		Str("intent", string(decision.Intent)).
		Str("turn_state", string(state)).
		Float64("execution_time", elapsed).
		Msg("turn processed")

	return contractx.Envelope{
		Success:       result.Success,
		Message:       message,
		Data:          result.Data,
		Intent:        decision.Intent,
		Agent:         decision.TargetAgent,
		ExecutionTime: elapsed,
		Error:         result.Error,
	}
}

func (o *Orchestrator) failure(start time.Time, in intentx.Intent, agentName, diagnostic string) contractx.Envelope {
	userMsg := msgAgentFailure
	if strings.HasPrefix(diagnostic, "Unknown agent:") {
		userMsg = msgUnknownAgent
	}
	return contractx.Envelope{
		Success:       false,
		Message:       userMsg,
		Intent:        in,
		Agent:         agentName,
		ExecutionTime: o.now().Sub(start).Seconds(),
		Error:         diagnostic,
	}
}
