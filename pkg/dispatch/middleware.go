package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/germanamz/llmrouter/pkg/model"
	"github.com/germanamz/llmrouter/pkg/modeladapter"
)

// Call is one resolved generation: the model has been looked up and an
// adapter selected.
type Call struct {
	ID        string
	Prompt    string
	Config    model.Config
	Overrides model.Parameters
	Adapter   modeladapter.Adapter
}

// Handler invokes a resolved call.
type Handler func(ctx context.Context, call *Call) (modeladapter.Completion, error)

// Middleware wraps a Handler, returning a new Handler with added behaviour.
type Middleware func(next Handler) Handler

// invoke is the innermost handler.
func invoke(ctx context.Context, call *Call) (modeladapter.Completion, error) {
	return call.Adapter.Generate(ctx, call.Prompt, call.Config, call.Overrides)
}

func chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}

	return h
}

// --- Timeout middleware ---

// Timeout returns a Middleware that bounds each call with a deadline.
// A non-positive d disables it.
func Timeout(d time.Duration) Middleware {
	return func(next Handler) Handler {
		if d <= 0 {
			return next
		}

		return func(ctx context.Context, call *Call) (modeladapter.Completion, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			return next(ctx, call)
		}
	}
}

// --- Recovery middleware ---

// Recovery returns a Middleware that converts adapter panics into
// KindInternal errors.
func Recovery() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, call *Call) (c modeladapter.Completion, err error) {
			defer func() {
				if r := recover(); r != nil {
					c = modeladapter.Completion{}
					err = modeladapter.Errorf(modeladapter.KindInternal, "adapter %q panicked: %v", call.Config.Provider, r)
				}
			}()

			return next(ctx, call)
		}
	}
}

// --- Logger middleware ---

// Logger returns a Middleware that logs call start, duration, and failure
// kind. Prompts and credentials are never logged.
func Logger(log *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, call *Call) (modeladapter.Completion, error) {
			log.DebugContext(ctx, "generation started",
				"request_id", call.ID,
				"model", call.Config.Name,
				"provider", call.Config.Provider,
				"prompt_chars", len(call.Prompt),
			)

			start := time.Now()

			c, err := next(ctx, call)

			duration := time.Since(start)

			if err != nil {
				log.ErrorContext(ctx, "generation failed",
					"request_id", call.ID,
					"model", call.Config.Name,
					"provider", call.Config.Provider,
					"duration", duration,
					"kind", modeladapter.KindOf(err),
					"error", err,
				)
			} else {
				log.InfoContext(ctx, "generation finished",
					"request_id", call.ID,
					"model", call.Config.Name,
					"provider", call.Config.Provider,
					"duration", duration,
					"input_tokens", c.Usage.InputTokens,
					"output_tokens", c.Usage.OutputTokens,
				)
			}

			return c, err
		}
	}
}
