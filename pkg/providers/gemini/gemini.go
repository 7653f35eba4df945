// Package gemini provides an Adapter for the Google Gemini API.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/germanamz/llmrouter/pkg/model"
	"github.com/germanamz/llmrouter/pkg/modeladapter"
	"github.com/germanamz/llmrouter/pkg/modeladapter/usage"
)

// Kind is the provider type served by this adapter.
const Kind = "gemini"

// DefaultModel is sent when the configuration names no model.
const DefaultModel = "gemini-2.0-flash"

var _ modeladapter.Adapter = (*Adapter)(nil)

// Adapter implements modeladapter.Adapter for the Google Gemini API.
// api_base should be "https://generativelanguage.googleapis.com" (no trailing slash).
type Adapter struct {
	client *http.Client
}

// New creates an Adapter. A nil client falls back to
// modeladapter.DefaultClient.
func New(client *http.Client) *Adapter {
	return &Adapter{client: client}
}

// Generate sends prompt as a single user content and returns the first
// candidate's text.
func (a *Adapter) Generate(ctx context.Context, prompt string, cfg model.Config, overrides model.Parameters) (modeladapter.Completion, error) {
	eff := model.Resolve(overrides, cfg.Defaults)
	name := cfg.ModelOr(DefaultModel)

	api := modeladapter.New(cfg.APIBase, modeladapter.Auth{Key: cfg.APIKey, Header: "x-goog-api-key"}, a.client)
	path := fmt.Sprintf("/v1beta/models/%s:generateContent", url.PathEscape(name))

	req := apiRequest{
		Contents: []apiContent{{Role: "user", Parts: []apiPart{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     eff.Temperature,
			MaxOutputTokens: eff.MaxTokens,
		},
	}

	var resp apiResponse
	if err := api.PostJSON(ctx, path, req, &resp); err != nil {
		return modeladapter.Completion{}, err
	}

	if len(resp.Candidates) == 0 {
		return modeladapter.Completion{}, modeladapter.Errorf(modeladapter.KindMalformedResponse, "gemini: empty candidates in response")
	}

	text := resp.Candidates[0].text()
	if text == "" {
		return modeladapter.Completion{}, modeladapter.Errorf(modeladapter.KindMalformedResponse, "gemini: no text in first candidate (finish reason %q)", resp.Candidates[0].FinishReason)
	}

	return modeladapter.Completion{
		Text:  text,
		Model: name,
		Usage: usage.TokenCount{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
		},
	}, nil
}

// --- request types ---

type apiRequest struct {
	Contents         []apiContent     `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type apiContent struct {
	Role  string    `json:"role"`
	Parts []apiPart `json:"parts"`
}

type apiPart struct {
	Text    string `json:"text,omitempty"`
	Thought bool   `json:"thought,omitempty"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// --- response types ---

type apiResponse struct {
	Candidates    []apiCandidate `json:"candidates"`
	UsageMetadata apiUsageMeta   `json:"usageMetadata"`
}

type apiCandidate struct {
	Content      apiContent `json:"content"`
	FinishReason string     `json:"finishReason"`
}

type apiUsageMeta struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// text joins the candidate's answer parts, skipping thought summaries.
func (c apiCandidate) text() string {
	var sb strings.Builder

	for _, p := range c.Content.Parts {
		if p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}

	return sb.String()
}
