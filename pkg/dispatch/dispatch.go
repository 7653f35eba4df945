// Package dispatch routes a prompt to the adapter of a configured model and
// normalizes the outcome.
//
// A Client resolves the model name against a registry, selects the adapter
// registered for the model's provider type and invokes it through a small
// middleware chain. Generate returns classified errors; Text is the string
// boundary for presentation layers and never panics.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/germanamz/llmrouter/pkg/model"
	"github.com/germanamz/llmrouter/pkg/modeladapter"
	"github.com/germanamz/llmrouter/pkg/modeladapter/usage"
	"github.com/germanamz/llmrouter/pkg/registry"
	"github.com/google/uuid"
)

// DefaultTimeout bounds each provider call unless overridden by WithTimeout.
const DefaultTimeout = 60 * time.Second

// Request is one generation request.
type Request struct {
	Prompt    string           // Must not be blank.
	Model     string           // Registry name; empty selects the registry default.
	Overrides model.Parameters // Per-call parameters, merged over model defaults.
}

// Client dispatches requests to provider adapters. It is safe for concurrent
// use; the registry it reads is never mutated.
type Client struct {
	reg        *registry.Registry
	log        *slog.Logger
	httpClient *http.Client
	timeout    time.Duration
	metrics    *Metrics
	adapters   map[string]modeladapter.Adapter
	extra      []Middleware
	usage      usage.Tracker
	handler    Handler
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithTimeout sets the per-call deadline. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient sets the HTTP client handed to provider factories.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics records every generation in m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithAdapter binds a provider type to an adapter for this client only,
// taking precedence over process-wide registrations.
func WithAdapter(kind string, a modeladapter.Adapter) Option {
	return func(c *Client) { c.adapters[kind] = a }
}

// WithMiddleware appends middlewares around adapter invocation. They run
// inside the logger and timeout, outside panic recovery.
func WithMiddleware(mws ...Middleware) Option {
	return func(c *Client) { c.extra = append(c.extra, mws...) }
}

// New creates a Client over reg. A nil reg behaves as an empty registry.
func New(reg *registry.Registry, opts ...Option) *Client {
	if reg == nil {
		reg = registry.New(nil)
	}

	c := &Client{
		reg:      reg,
		log:      slog.Default(),
		timeout:  DefaultTimeout,
		adapters: make(map[string]modeladapter.Adapter),
	}

	for _, opt := range opts {
		opt(c)
	}

	mws := []Middleware{Logger(c.log), Timeout(c.timeout)}
	mws = append(mws, c.extra...)
	mws = append(mws, Recovery())
	c.handler = chain(invoke, mws...)

	return c
}

// Models returns the configured model names in declaration order.
func (c *Client) Models() []string { return c.reg.Names() }

// DefaultModel returns the model used when a request names none.
func (c *Client) DefaultModel() (string, bool) { return c.reg.Default() }

// Usage returns the client's token usage tracker.
func (c *Client) Usage() *usage.Tracker { return &c.usage }

// adapter selects the adapter for a provider type.
func (c *Client) adapter(kind string) (modeladapter.Adapter, bool) {
	if a, ok := c.adapters[kind]; ok {
		return a, true
	}

	f, ok := getFactory(kind)
	if !ok {
		return nil, false
	}

	return f(c.httpClient), true
}

// Generate resolves the model, selects its adapter and invokes it. Every
// error is a *modeladapter.Error; panics are recovered as KindInternal.
func (c *Client) Generate(ctx context.Context, req Request) (comp modeladapter.Completion, err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	var modelName, provider string

	// Only resolved names become metric labels.
	metricModel := unknownModel

	defer func() {
		if r := recover(); r != nil {
			comp = modeladapter.Completion{}
			err = modeladapter.Errorf(modeladapter.KindInternal, "dispatch panicked: %v", r)
			c.log.ErrorContext(ctx, "generation panicked", "model", modelName, "panic", r)
		}

		c.metrics.observe(metricModel, provider, err, time.Since(start), comp.Usage)
	}()

	if strings.TrimSpace(req.Prompt) == "" {
		return modeladapter.Completion{}, modeladapter.Errorf(modeladapter.KindInvalidRequest, "prompt is empty")
	}

	modelName = req.Model
	if modelName == "" {
		def, ok := c.reg.Default()
		if !ok {
			return modeladapter.Completion{}, modeladapter.Errorf(modeladapter.KindConfigMissing, "no model configured")
		}
		modelName = def
	}

	cfg, ok := c.reg.Lookup(modelName)
	if !ok {
		c.log.WarnContext(ctx, "generation for unknown model", "model", modelName)
		return modeladapter.Completion{}, modeladapter.Errorf(modeladapter.KindModelNotFound, "configuration not found for model %q", modelName)
	}
	metricModel = modelName
	provider = cfg.Provider

	a, ok := c.adapter(cfg.Provider)
	if !ok {
		c.log.WarnContext(ctx, "generation for unsupported provider", "model", modelName, "provider", provider)
		return modeladapter.Completion{}, modeladapter.Errorf(modeladapter.KindUnsupportedProvider, "unsupported provider type %q for model %q", cfg.Provider, modelName)
	}

	comp, err = c.handler(ctx, &Call{
		ID:        uuid.NewString(),
		Prompt:    req.Prompt,
		Config:    cfg,
		Overrides: req.Overrides,
		Adapter:   a,
	})
	if err != nil {
		return modeladapter.Completion{}, classify(err)
	}

	c.usage.Add(modelName, comp.Usage)

	return comp, nil
}

// classify ensures err is a *modeladapter.Error. Context errors that escaped
// an adapter unclassified count as transport failures.
func classify(err error) error {
	var e *modeladapter.Error
	if errors.As(err, &e) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return modeladapter.Errorf(modeladapter.KindTransport, "%w", err)
	}

	return modeladapter.Errorf(modeladapter.KindInternal, "%w", err)
}

// Text is the presentation boundary: it generates with the given model and
// parameters and always returns a string, either the model's answer verbatim
// or a rendered failure. An empty modelName selects the default model.
func (c *Client) Text(ctx context.Context, prompt, modelName string, temperature float64, maxTokens int) string {
	return c.text(ctx, Request{
		Prompt:    prompt,
		Model:     modelName,
		Overrides: model.Temperature(temperature).With(model.MaxTokens(maxTokens)),
	})
}

// TextWithDefaults is Text without parameter overrides: the model's
// configured defaults, then the global fallbacks, apply.
func (c *Client) TextWithDefaults(ctx context.Context, prompt, modelName string) string {
	return c.text(ctx, Request{Prompt: prompt, Model: modelName})
}

func (c *Client) text(ctx context.Context, req Request) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = Render(modeladapter.Errorf(modeladapter.KindInternal, "dispatch panicked: %v", r))
		}
	}()

	comp, err := c.Generate(ctx, req)
	if err != nil {
		return Render(err)
	}

	return comp.Text
}

// Render formats a failure as a deterministic, human-readable line of the
// form "error [kind]: detail". A nil error renders as the empty string.
func Render(err error) string {
	if err == nil {
		return ""
	}

	var e *modeladapter.Error
	if errors.As(err, &e) {
		return fmt.Sprintf("error [%s]: %s", e.Kind, e.Detail)
	}

	return fmt.Sprintf("error [%s]: %s", modeladapter.KindInternal, err.Error())
}
