// Package providers groups the concrete provider adapters.
//
// Each sub-package implements [github.com/germanamz/llmrouter/pkg/modeladapter.Adapter]
// for one provider family:
//   - [github.com/germanamz/llmrouter/pkg/providers/doubao]: Doubao (Volcengine Ark) over raw JSON
//   - [github.com/germanamz/llmrouter/pkg/providers/openai]: OpenAI-compatible APIs via go-openai
//   - [github.com/germanamz/llmrouter/pkg/providers/grok]: xAI Grok chat completions
//   - [github.com/germanamz/llmrouter/pkg/providers/anthropic]: Anthropic Messages API
//   - [github.com/germanamz/llmrouter/pkg/providers/gemini]: Google Gemini generateContent
//
// Adapters are registered by provider type in the dispatch package.
package providers
