// Package registry holds the named model configurations a process routes to.
//
// A Registry is built once from a JSON or YAML mapping of model name to model
// settings and is read-only afterwards, so it may be shared between
// goroutines without locking. Loading never fails: unreadable or malformed
// sources produce an empty registry and a warning log.
//
// Values may reference environment variables as ${VAR}. Only the braced
// form is expanded; a bare $ is kept literally.
package registry

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/germanamz/llmrouter/pkg/model"
)

// ErrNotFound is returned by Get for names absent from the registry.
var ErrNotFound = errors.New("registry: model not found")

// Registry is an ordered, read-only set of model configurations.
type Registry struct {
	names   []string
	configs map[string]model.Config
	def     string
}

// Option configures Load, LoadFile and New.
type Option func(*options)

type options struct {
	log *slog.Logger
	def string
}

// WithLogger sets the logger used to report skipped entries and load
// failures. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithDefault names the model used when a caller does not pick one. It is
// ignored when the name is not in the registry.
func WithDefault(name string) Option {
	return func(o *options) { o.def = name }
}

func buildOptions(opts []Option) options {
	o := options{log: slog.Default()}
	for _, fn := range opts {
		fn(&o)
	}

	return o
}

// New builds a registry from configs in the given order. A later config with
// an already used name replaces the earlier one but keeps its position.
func New(configs []model.Config, opts ...Option) *Registry {
	o := buildOptions(opts)

	r := &Registry{configs: make(map[string]model.Config, len(configs))}
	for _, c := range configs {
		if _, dup := r.configs[c.Name]; !dup {
			r.names = append(r.names, c.Name)
		}
		r.configs[c.Name] = c
	}

	if _, ok := r.configs[o.def]; ok {
		r.def = o.def
	} else if o.def != "" {
		o.log.Warn("registry: default model not configured", "model", o.def)
	}

	return r
}

// LoadFile reads the model catalog at path. A missing or unreadable file
// yields an empty registry.
func LoadFile(path string, opts ...Option) *Registry {
	o := buildOptions(opts)

	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		o.log.Warn("registry: config file unavailable, no models loaded", "path", path, "error", err)
		return New(nil, opts...)
	}

	return parse(data, path, o, opts)
}

// Load reads a model catalog from r. Read or parse failures yield an empty
// registry.
func Load(r io.Reader, opts ...Option) *Registry {
	o := buildOptions(opts)

	data, err := io.ReadAll(r)
	if err != nil {
		o.log.Warn("registry: config source unreadable, no models loaded", "error", err)
		return New(nil, opts...)
	}

	return parse(data, "", o, opts)
}

func parse(data []byte, source string, o options, opts []Option) *Registry {
	configs, skipped, err := decode(data)
	if err != nil {
		o.log.Warn("registry: config malformed, no models loaded", "source", source, "error", err)
		return New(nil, opts...)
	}

	for _, s := range skipped {
		o.log.Warn("registry: skipping invalid model entry", "source", source, "model", s.name, "error", s.err)
	}

	return New(configs, opts...)
}

// Names returns model names in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)

	return out
}

// Len returns the number of configured models.
func (r *Registry) Len() int { return len(r.names) }

// Lookup returns the configuration for name.
func (r *Registry) Lookup(name string) (model.Config, bool) {
	c, ok := r.configs[name]
	return c, ok
}

// Get is Lookup with an error result wrapping ErrNotFound.
func (r *Registry) Get(name string) (model.Config, error) {
	c, ok := r.configs[name]
	if !ok {
		return model.Config{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	return c, nil
}

// Default returns the explicitly configured default model, or else the first
// declared one. The bool is false when the registry is empty.
func (r *Registry) Default() (string, bool) {
	if r.def != "" {
		return r.def, true
	}

	if len(r.names) == 0 {
		return "", false
	}

	return r.names[0], true
}
