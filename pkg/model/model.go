// Package model holds provider-agnostic model configuration and the rules for
// resolving effective generation parameters.
package model

// Fallback parameters used when neither the caller nor the model
// configuration sets a value.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

// Parameters are optional generation settings. A nil field means "not set".
type Parameters struct {
	Temperature *float64 `yaml:"temperature" json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	MaxTokens   *int     `yaml:"max_tokens" json:"max_tokens,omitempty" validate:"omitempty,gte=0"`
}

// Config describes one named model. It is immutable once loaded into a
// registry and is always passed by value.
type Config struct {
	Name     string     // Registry key.
	Provider string     // Provider type, e.g. "doubao" or "openai".
	APIBase  string     // API base URL, without the completion path.
	APIKey   string     // Forwarded as a bearer credential.
	Model    string     // Provider-side model identifier; empty means adapter default.
	Defaults Parameters // Per-model default parameters.
}

// Effective is the fully resolved parameter set sent to a provider.
type Effective struct {
	Temperature float64
	MaxTokens   int
}

// Resolve merges overrides over defaults key by key, falling back to
// DefaultTemperature and DefaultMaxTokens.
func Resolve(overrides, defaults Parameters) Effective {
	eff := Effective{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}

	switch {
	case overrides.Temperature != nil:
		eff.Temperature = *overrides.Temperature
	case defaults.Temperature != nil:
		eff.Temperature = *defaults.Temperature
	}

	switch {
	case overrides.MaxTokens != nil:
		eff.MaxTokens = *overrides.MaxTokens
	case defaults.MaxTokens != nil:
		eff.MaxTokens = *defaults.MaxTokens
	}

	return eff
}

// Temperature returns a Parameters value with only the temperature set.
func Temperature(t float64) Parameters { return Parameters{Temperature: &t} }

// MaxTokens returns a Parameters value with only max tokens set.
func MaxTokens(n int) Parameters { return Parameters{MaxTokens: &n} }

// With returns p with the non-nil fields of o applied on top.
func (p Parameters) With(o Parameters) Parameters {
	if o.Temperature != nil {
		p.Temperature = o.Temperature
	}
	if o.MaxTokens != nil {
		p.MaxTokens = o.MaxTokens
	}

	return p
}

// ModelOr returns the configured model identifier or fallback when unset.
func (c Config) ModelOr(fallback string) string {
	if c.Model == "" {
		return fallback
	}

	return c.Model
}
