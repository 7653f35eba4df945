// Package modeladapter defines the provider adapter contract and the shared
// pieces every adapter uses.
//
// It contains:
//   - [Adapter] interface and [Completion] result
//   - [ModelAdapter], a request-scoped HTTP helper with auth and custom headers
//   - [Error] and [Kind], the failure taxonomy surfaced to callers
//   - [github.com/germanamz/llmrouter/pkg/modeladapter/usage]: thread-safe token usage tracker
//
// This package contains no provider-specific code. Concrete adapters live in
// separate packages under pkg/providers.
package modeladapter
