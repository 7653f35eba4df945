package dispatch

import (
	"net/http"
	"slices"
	"sync"

	"github.com/germanamz/llmrouter/pkg/modeladapter"
	"github.com/germanamz/llmrouter/pkg/providers/anthropic"
	"github.com/germanamz/llmrouter/pkg/providers/doubao"
	"github.com/germanamz/llmrouter/pkg/providers/gemini"
	"github.com/germanamz/llmrouter/pkg/providers/grok"
	"github.com/germanamz/llmrouter/pkg/providers/openai"
)

// ProviderFactory creates an Adapter that sends requests through client.
// client may be nil, in which case the adapter uses its default.
type ProviderFactory func(client *http.Client) modeladapter.Adapter

var (
	factoryMu   sync.RWMutex
	factories   = map[string]ProviderFactory{}
	defaultsReg sync.Once
)

func ensureDefaults() {
	defaultsReg.Do(func() {
		factories[doubao.Kind] = newDoubao
		factories[openai.Kind] = newOpenAI
		factories[grok.Kind] = newGrok
		factories[anthropic.Kind] = newAnthropic
		factories[gemini.Kind] = newGemini
	})
}

// RegisterProvider registers a provider factory under the given provider
// type. It can be called before New to extend every client with additional
// providers; registering an existing kind replaces it.
func RegisterProvider(kind string, factory ProviderFactory) {
	ensureDefaults()

	factoryMu.Lock()
	defer factoryMu.Unlock()

	factories[kind] = factory
}

// Providers returns the registered provider types, sorted.
func Providers() []string {
	ensureDefaults()

	factoryMu.RLock()
	defer factoryMu.RUnlock()

	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)

	return kinds
}

// getFactory returns the factory for the given kind.
func getFactory(kind string) (ProviderFactory, bool) {
	ensureDefaults()

	factoryMu.RLock()
	defer factoryMu.RUnlock()

	f, ok := factories[kind]
	return f, ok
}

func newDoubao(client *http.Client) modeladapter.Adapter { return doubao.New(client) }

func newOpenAI(client *http.Client) modeladapter.Adapter { return openai.New(client) }

func newGrok(client *http.Client) modeladapter.Adapter { return grok.New(client) }

func newAnthropic(client *http.Client) modeladapter.Adapter { return anthropic.New(client) }

func newGemini(client *http.Client) modeladapter.Adapter { return gemini.New(client) }
