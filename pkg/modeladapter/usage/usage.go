// Package usage accumulates token usage reported by providers.
package usage

import (
	"slices"
	"sync"
)

// TokenCount holds input and output token counts for a single LLM call.
type TokenCount struct {
	InputTokens  int
	OutputTokens int
}

// Total returns the sum of input and output tokens.
func (tc TokenCount) Total() int {
	return tc.InputTokens + tc.OutputTokens
}

// Plus returns the element-wise sum of tc and o.
func (tc TokenCount) Plus(o TokenCount) TokenCount {
	return TokenCount{
		InputTokens:  tc.InputTokens + o.InputTokens,
		OutputTokens: tc.OutputTokens + o.OutputTokens,
	}
}

// Tracker accumulates token usage per model name.
// The zero value is ready to use and it is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	calls  int
	totals map[string]TokenCount
}

// Add records one call's usage against the named model.
func (t *Tracker) Add(model string, tc TokenCount) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.totals == nil {
		t.totals = make(map[string]TokenCount)
	}

	t.totals[model] = t.totals[model].Plus(tc)
	t.calls++
}

// Model returns the aggregate usage for one model.
func (t *Tracker) Model(name string) TokenCount {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.totals[name]
}

// Models returns the names of models with recorded usage, sorted.
func (t *Tracker) Models() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	names := make([]string, 0, len(t.totals))
	for name := range t.totals {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// Total returns the aggregate token count across all models.
func (t *Tracker) Total() TokenCount {
	t.mu.Lock()
	defer t.mu.Unlock()

	var total TokenCount
	for _, tc := range t.totals {
		total = total.Plus(tc)
	}

	return total
}

// Count returns the number of recorded calls.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.calls
}

// Reset clears all recorded usage.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.calls = 0
	t.totals = nil
}
