// Package openai provides an Adapter for OpenAI-compatible chat completion
// APIs, built on the go-openai SDK.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/germanamz/llmrouter/pkg/model"
	"github.com/germanamz/llmrouter/pkg/modeladapter"
	"github.com/germanamz/llmrouter/pkg/modeladapter/usage"
	goopenai "github.com/sashabaranov/go-openai"
)

// Kind is the provider type served by this adapter.
const Kind = "openai"

// DefaultModel is sent when the configuration names no model.
const DefaultModel = "gpt-3.5-turbo"

var _ modeladapter.Adapter = (*Adapter)(nil)

// Adapter implements modeladapter.Adapter for the OpenAI Chat Completions API.
type Adapter struct {
	client *http.Client
}

// New creates an Adapter. A nil client falls back to
// modeladapter.DefaultClient.
func New(client *http.Client) *Adapter {
	return &Adapter{client: client}
}

// Generate sends prompt as a single user message and returns the first
// choice's content. A fresh SDK client is built per call from cfg so that the
// key and base URL are scoped to this request.
func (a *Adapter) Generate(ctx context.Context, prompt string, cfg model.Config, overrides model.Parameters) (modeladapter.Completion, error) {
	eff := model.Resolve(overrides, cfg.Defaults)
	name := cfg.ModelOr(DefaultModel)

	resp, err := a.sdk(cfg).CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: name,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: wireTemperature(eff.Temperature),
		MaxTokens:   eff.MaxTokens,
	})
	if err != nil {
		return modeladapter.Completion{}, classify(err)
	}

	if len(resp.Choices) == 0 {
		return modeladapter.Completion{}, modeladapter.Errorf(modeladapter.KindMalformedResponse, "openai: empty choices in response")
	}

	text := resp.Choices[0].Message.Content
	if text == "" {
		return modeladapter.Completion{}, modeladapter.Errorf(modeladapter.KindMalformedResponse, "openai: missing message content in first choice")
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

// wireTemperature converts t for the SDK, whose request field is omitempty:
// a zero would be dropped and the provider default used instead.
func wireTemperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}

	return float32(t)
}

func (a *Adapter) sdk(cfg model.Config) *goopenai.Client {
	sc := goopenai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/"); base != "" {
		sc.BaseURL = base
	}

	if a.client != nil {
		sc.HTTPClient = a.client
	} else {
		sc.HTTPClient = modeladapter.DefaultClient()
	}

	return goopenai.NewClientWithConfig(sc)
}

// classify maps go-openai errors onto the failure taxonomy.
func classify(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return modeladapter.Rejected(apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return modeladapter.Rejected(reqErr.HTTPStatusCode, strings.TrimSpace(string(reqErr.Body)))
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return modeladapter.Errorf(modeladapter.KindMalformedResponse, "openai: decode response: %w", err)
	}

	return modeladapter.Errorf(modeladapter.KindTransport, "openai: %w", err)
}
