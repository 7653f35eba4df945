// Package grok implements modeladapter.Adapter for xAI's Grok models using
// the OpenAI-compatible chat completions API.
package grok

import (
	"context"
	"net/http"

	"github.com/germanamz/llmrouter/pkg/model"
	"github.com/germanamz/llmrouter/pkg/modeladapter"
	"github.com/germanamz/llmrouter/pkg/modeladapter/usage"
)

// Kind is the provider type served by this adapter.
const Kind = "grok"

// DefaultModel is sent when the configuration names no model.
const DefaultModel = "grok-3-mini"

var _ modeladapter.Adapter = (*GrokAdapter)(nil)

// GrokAdapter sends chat completions to xAI's Grok API. api_base is
// typically "https://api.x.ai/v1".
type GrokAdapter struct {
	client *http.Client
}

// New creates a GrokAdapter. A nil client falls back to
// modeladapter.DefaultClient.
func New(client *http.Client) *GrokAdapter {
	return &GrokAdapter{client: client}
}

// Generate sends prompt to the Grok chat completions endpoint and returns
// the assistant's reply.
func (g *GrokAdapter) Generate(ctx context.Context, prompt string, cfg model.Config, overrides model.Parameters) (modeladapter.Completion, error) {
	eff := model.Resolve(overrides, cfg.Defaults)
	name := cfg.ModelOr(DefaultModel)

	req := chatRequest{
		Model:       name,
		Messages:    []apiMessage{{Role: "user", Content: prompt}},
		Temperature: eff.Temperature,
		MaxTokens:   eff.MaxTokens,
	}

	api := modeladapter.New(cfg.APIBase, modeladapter.Auth{Key: cfg.APIKey}, g.client)

	var resp chatResponse
	if err := api.PostJSON(ctx, modeladapter.CompletionsPath, req, &resp); err != nil {
		return modeladapter.Completion{}, err
	}

	if len(resp.Choices) == 0 {
		return modeladapter.Completion{}, modeladapter.Errorf(modeladapter.KindMalformedResponse, "grok: empty response")
	}

	text := resp.Choices[0].Message.Content
	if text == "" {
		return modeladapter.Completion{}, modeladapter.Errorf(modeladapter.KindMalformedResponse, "grok: no text in first choice (finish reason %q)", resp.Choices[0].FinishReason)
	}

	return modeladapter.Completion{
		Text:  text,
		Model: name,
		Usage: usage.TokenCount{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

// API request/response types.

type chatRequest struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
	MaxTokens   int          `json:"max_tokens"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string   `json:"id"`
	Choices []choice `json:"choices"`
	Usage   apiUsage `json:"usage"`
}

type choice struct {
	Message      apiMessage `json:"message"`
	FinishReason string     `json:"finish_reason"`
}

type apiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}
