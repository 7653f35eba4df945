// Package anthropic provides an Adapter for the Anthropic Messages API.
package anthropic

import (
	"context"
	"net/http"
	"strings"

	"github.com/germanamz/llmrouter/pkg/model"
	"github.com/germanamz/llmrouter/pkg/modeladapter"
	"github.com/germanamz/llmrouter/pkg/modeladapter/usage"
)

// Kind is the provider type served by this adapter.
const Kind = "anthropic"

// DefaultModel is sent when the configuration names no model.
const DefaultModel = "claude-3-5-haiku-latest"

// APIVersion is sent in the anthropic-version header.
const APIVersion = "2023-06-01"

const messagesPath = "/v1/messages"

var _ modeladapter.Adapter = (*Adapter)(nil)

// Adapter implements modeladapter.Adapter for the Anthropic Messages API.
// api_base should be "https://api.anthropic.com" (no /v1 suffix).
type Adapter struct {
	client *http.Client
}

// New creates an Adapter. A nil client falls back to
// modeladapter.DefaultClient.
func New(client *http.Client) *Adapter {
	return &Adapter{client: client}
}

// Generate sends prompt as a single user turn and returns the concatenated
// text blocks of the reply.
func (a *Adapter) Generate(ctx context.Context, prompt string, cfg model.Config, overrides model.Parameters) (modeladapter.Completion, error) {
	eff := model.Resolve(overrides, cfg.Defaults)
	name := cfg.ModelOr(DefaultModel)

	api := modeladapter.New(cfg.APIBase, modeladapter.Auth{Key: cfg.APIKey, Header: "x-api-key"}, a.client)
	api.Headers = map[string]string{"anthropic-version": APIVersion}

	req := apiRequest{
		Model:       name,
		MaxTokens:   eff.MaxTokens,
		Temperature: eff.Temperature,
		Messages: []apiMessage{{
			Role:    "user",
			Content: []apiContent{{Type: "text", Text: prompt}},
		}},
	}

	var resp apiResponse
	if err := api.PostJSON(ctx, messagesPath, req, &resp); err != nil {
		return modeladapter.Completion{}, err
	}

	text := resp.text()
	if text == "" {
		return modeladapter.Completion{}, modeladapter.Errorf(modeladapter.KindMalformedResponse, "anthropic: no text content (stop reason %q)", resp.StopReason)
	}

	return modeladapter.Completion{
		Text:  text,
		Model: name,
		Usage: usage.TokenCount{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}, nil
}

// --- request types ---

type apiRequest struct {
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens"`
	Messages    []apiMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
}

type apiMessage struct {
	Role    string       `json:"role"`
	Content []apiContent `json:"content"`
}

type apiContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// --- response types ---

type apiResponse struct {
	Content    []apiContent `json:"content"`
	StopReason string       `json:"stop_reason"`
	Usage      apiUsage     `json:"usage"`
}

type apiUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// text joins the text blocks in order; other block types are ignored.
func (r apiResponse) text() string {
	var sb strings.Builder

	for _, block := range r.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return sb.String()
}
