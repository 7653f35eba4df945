// Package doubao provides an Adapter for Doubao (Volcengine Ark) chat
// completions, an OpenAI-compatible JSON API.
package doubao

import (
	"context"
	"net/http"

	"github.com/germanamz/llmrouter/pkg/model"
	"github.com/germanamz/llmrouter/pkg/modeladapter"
	"github.com/germanamz/llmrouter/pkg/modeladapter/usage"
)

// Kind is the provider type served by this adapter.
const Kind = "doubao"

// DefaultModel is sent when the configuration names no model.
const DefaultModel = "doubao-pro"

var _ modeladapter.Adapter = (*Adapter)(nil)

// Adapter implements modeladapter.Adapter for the Doubao chat API.
type Adapter struct {
	client *http.Client
}

// New creates an Adapter. A nil client falls back to
// modeladapter.DefaultClient.
func New(client *http.Client) *Adapter {
	return &Adapter{client: client}
}

// Generate sends prompt as a single user message to
// {cfg.APIBase}/chat/completions and returns the first choice's content.
func (a *Adapter) Generate(ctx context.Context, prompt string, cfg model.Config, overrides model.Parameters) (modeladapter.Completion, error) {
	eff := model.Resolve(overrides, cfg.Defaults)
	name := cfg.ModelOr(DefaultModel)

	req := apiRequest{
		Model:       name,
		Messages:    []apiMessage{{Role: "user", Content: prompt}},
		Temperature: eff.Temperature,
		MaxTokens:   eff.MaxTokens,
	}

	var resp apiResponse
	if err := modeladapter.ForConfig(cfg, a.client).PostJSON(ctx, modeladapter.CompletionsPath, req, &resp); err != nil {
		return modeladapter.Completion{}, err
	}

	if len(resp.Choices) == 0 {
		return modeladapter.Completion{}, modeladapter.Errorf(modeladapter.KindMalformedResponse, "doubao: empty choices in response")
	}

	text := resp.Choices[0].Message.Content
	if text == nil || *text == "" {
		return modeladapter.Completion{}, modeladapter.Errorf(modeladapter.KindMalformedResponse, "doubao: missing message content in first choice")
	}

	return modeladapter.Completion{
		Text:  *text,
		Model: name,
		Usage: usage.TokenCount{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

// --- wire types ---

type apiRequest struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
	MaxTokens   int          `json:"max_tokens"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Choices []apiChoice `json:"choices"`
	Usage   apiUsage    `json:"usage"`
}

type apiChoice struct {
	Message struct {
		Role    string  `json:"role"`
		Content *string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type apiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}
