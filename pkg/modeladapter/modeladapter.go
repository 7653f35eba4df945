package modeladapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/germanamz/llmrouter/pkg/model"
	"github.com/germanamz/llmrouter/pkg/modeladapter/usage"
)

// CompletionsPath is the chat completions path appended to a model's API base.
const CompletionsPath = "/chat/completions"

// maxErrorBody caps how much of a rejected response body is kept.
const maxErrorBody = 4096

// Completion is a successful generation.
type Completion struct {
	Text  string           // First choice content, verbatim.
	Model string           // Provider-side model identifier that was requested.
	Usage usage.TokenCount // Token usage reported by the provider, if any.
}

// Adapter translates a single prompt into one provider's wire format and
// back. Implementations must not keep per-call state: credentials and the
// target URL come from cfg on every call. Errors are *Error values.
type Adapter interface {
	Generate(ctx context.Context, prompt string, cfg model.Config, overrides model.Parameters) (Completion, error)
}

// AdapterFunc adapts a plain function to the Adapter interface.
type AdapterFunc func(ctx context.Context, prompt string, cfg model.Config, overrides model.Parameters) (Completion, error)

// Generate calls the underlying function.
func (f AdapterFunc) Generate(ctx context.Context, prompt string, cfg model.Config, overrides model.Parameters) (Completion, error) {
	return f(ctx, prompt, cfg, overrides)
}

// Auth holds authentication settings for an LLM provider API.
type Auth struct {
	Key    string // API key value.
	Header string // Header name (default: "Authorization").
	Scheme string // Scheme prefix (default: "Bearer" when Header is "Authorization").
}

// ModelAdapter is a request-scoped HTTP helper for provider implementations.
// Build one per call from the model configuration so that credentials never
// outlive the request that carries them.
type ModelAdapter struct {
	Auth    Auth              // Authentication settings.
	BaseURL string            // API base URL (no trailing slash).
	Client  *http.Client      // HTTP client; falls back to DefaultClient.
	Headers map[string]string // Extra headers applied to every request.
}

var (
	defaultClientOnce sync.Once
	defaultClient     *http.Client
)

// DefaultClient returns the shared fallback HTTP client. Its transport pool
// is shared by every call that does not bring its own client.
func DefaultClient() *http.Client {
	defaultClientOnce.Do(func() {
		defaultClient = &http.Client{Timeout: 10 * time.Minute}
	})

	return defaultClient
}

// New creates a ModelAdapter with the given settings. A trailing slash on
// baseURL is dropped. A nil client falls back to DefaultClient at call time.
func New(baseURL string, auth Auth, client *http.Client) ModelAdapter {
	return ModelAdapter{
		Auth:    auth,
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Client:  client,
	}
}

// ForConfig creates a ModelAdapter carrying cfg's base URL and bearer key.
func ForConfig(cfg model.Config, client *http.Client) ModelAdapter {
	return New(cfg.APIBase, Auth{Key: cfg.APIKey}, client)
}

func (a ModelAdapter) httpClient() *http.Client {
	if a.Client != nil {
		return a.Client
	}

	return DefaultClient()
}

// NewRequest builds an *http.Request with the base URL, auth, and custom
// headers already applied.
func (a ModelAdapter) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, body)
	if err != nil {
		return nil, err
	}

	if a.Auth.Key != "" {
		header := a.Auth.Header
		if header == "" {
			header = "Authorization"
		}

		value := a.Auth.Key
		if header == "Authorization" {
			scheme := a.Auth.Scheme
			if scheme == "" {
				scheme = "Bearer"
			}

			value = scheme + " " + value
		} else if a.Auth.Scheme != "" {
			value = a.Auth.Scheme + " " + value
		}

		req.Header.Set(header, value)
	}

	for k, v := range a.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// Do sends the request using the configured HTTP client.
func (a ModelAdapter) Do(req *http.Request) (*http.Response, error) {
	return a.httpClient().Do(req) //nolint:gosec // URL is built from trusted model configuration.
}

// PostJSON marshals payload as JSON, sends a POST to the given path, checks
// for a 2xx status, and decodes the response body into dest. Failures are
// classified: transport problems as KindTransport, non-2xx statuses as
// KindProviderRejected and undecodable bodies as KindMalformedResponse.
// If dest is nil the response body is discarded after the status check.
func (a ModelAdapter) PostJSON(ctx context.Context, path string, payload any, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return Errorf(KindInternal, "marshal payload: %w", err)
	}

	req, err := a.NewRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return Errorf(KindTransport, "build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := a.Do(req)
	if err != nil {
		return Errorf(KindTransport, "do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Rejected(resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if dest == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return Errorf(KindMalformedResponse, "decode response: %w", err)
	}

	return nil
}
