package agents

import (
	"context"
	"errors"
	"fmt"

	openaisdk "github.com/openai/openai-go"

	contractx "github.com/shoptalk-ai/shoptalk/agent/contract"
	openrouterx "github.com/shoptalk-ai/shoptalk/pkg/openrouter"
)

// OpenRouterResponder rephrases structured agent output into conversational
// prose through an OpenRouter-compatible chat completion endpoint.
type OpenRouterResponder struct {
	client *openaisdk.Client
	cfg    openrouterx.Config
}

var _ contractx.Responder = (*OpenRouterResponder)(nil)

// NewOpenRouterResponder returns nil when the config carries no API key, so
// callers can pass the result straight to the agent constructors.
func NewOpenRouterResponder(cfg openrouterx.Config) *OpenRouterResponder {
	client := openrouterx.NewClient(cfg)
	if client == nil {
		return nil
	}
	return &OpenRouterResponder{client: client, cfg: cfg}
}

func (r *OpenRouterResponder) Respond(ctx context.Context, instruction, summary string) (string, error) {
	if r == nil || r.client == nil {
		return "", errors.New("responder not configured")
	}

	resp, err := r.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: r.cfg.Model,
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(instruction),
			openaisdk.UserMessage(summary),
		},
		Temperature:         openaisdk.Float(r.cfg.Temperature),
		MaxCompletionTokens: openaisdk.Int(int64(r.cfg.MaxCompletionToken)),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
