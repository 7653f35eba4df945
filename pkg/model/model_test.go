package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_OverrideWins(t *testing.T) {
	eff := Resolve(Temperature(0.9), Temperature(0.3))

	assert.InDelta(t, 0.9, eff.Temperature, 1e-9)
	assert.Equal(t, DefaultMaxTokens, eff.MaxTokens)
}

func TestResolve_ConfigDefault(t *testing.T) {
	eff := Resolve(Parameters{}, Temperature(0.3))

	assert.InDelta(t, 0.3, eff.Temperature, 1e-9)
}

func TestResolve_Fallback(t *testing.T) {
	eff := Resolve(Parameters{}, Parameters{})

	assert.InDelta(t, 0.7, eff.Temperature, 1e-9)
	assert.Equal(t, 2000, eff.MaxTokens)
}

func TestResolve_PerKeyMerge(t *testing.T) {
	defaults := Temperature(0.3).With(MaxTokens(512))

	eff := Resolve(MaxTokens(64), defaults)

	assert.InDelta(t, 0.3, eff.Temperature, 1e-9)
	assert.Equal(t, 64, eff.MaxTokens)
}

func TestResolve_ZeroIsAValue(t *testing.T) {
	eff := Resolve(Temperature(0).With(MaxTokens(0)), Temperature(0.3).With(MaxTokens(100)))

	assert.Zero(t, eff.Temperature)
	assert.Zero(t, eff.MaxTokens)
}

func TestParameters_With(t *testing.T) {
	p := Temperature(0.1).With(Parameters{})
	assert.InDelta(t, 0.1, *p.Temperature, 1e-9)
	assert.Nil(t, p.MaxTokens)

	p = p.With(Temperature(0.5))
	assert.InDelta(t, 0.5, *p.Temperature, 1e-9)
}

func TestConfig_ModelOr(t *testing.T) {
	assert.Equal(t, "fallback", Config{}.ModelOr("fallback"))
	assert.Equal(t, "gpt-4o", Config{Model: "gpt-4o"}.ModelOr("fallback"))
}
