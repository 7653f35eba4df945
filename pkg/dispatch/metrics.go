package dispatch

import (
	"errors"
	"time"

	"github.com/germanamz/llmrouter/pkg/modeladapter"
	"github.com/germanamz/llmrouter/pkg/modeladapter/usage"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "llmrouter"

// outcomeSuccess labels generations that returned text.
const outcomeSuccess = "success"

// unknownModel labels generations whose model name did not resolve.
const unknownModel = "unknown"

// Metrics holds the Prometheus collectors updated by a Client.
type Metrics struct {
	Requests *prometheus.CounterVec   // by model, provider, outcome (success or failure kind)
	Duration *prometheus.HistogramVec // by model, provider
	Tokens   *prometheus.CounterVec   // by model, direction (input or output)
}

// NewMetrics creates the collectors and registers them with reg. Collectors
// already registered by an earlier call are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "generations_total",
			Help:      "Generation requests by model, provider and outcome.",
		}, []string{"model", "provider", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "generation_duration_seconds",
			Help:      "Wall time of generation requests.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"model", "provider"}),
		Tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tokens_total",
			Help:      "Tokens reported by providers.",
		}, []string{"model", "direction"}),
	}

	var err error
	m.Requests, err = register(reg, m.Requests)
	if err != nil {
		return nil, err
	}

	m.Duration, err = register(reg, m.Duration)
	if err != nil {
		return nil, err
	}

	m.Tokens, err = register(reg, m.Tokens)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}

		return c, err
	}

	return c, nil
}

// observe records one finished generation. modelName is unknownModel and
// provider is empty when the request failed before a model was resolved.
func (m *Metrics) observe(modelName, provider string, err error, elapsed time.Duration, tc usage.TokenCount) {
	if m == nil {
		return
	}

	outcome := outcomeSuccess
	if err != nil {
		outcome = string(modeladapter.KindOf(err))
	}

	m.Requests.WithLabelValues(modelName, provider, outcome).Inc()
	m.Duration.WithLabelValues(modelName, provider).Observe(elapsed.Seconds())

	if tc.InputTokens > 0 {
		m.Tokens.WithLabelValues(modelName, "input").Add(float64(tc.InputTokens))
	}
	if tc.OutputTokens > 0 {
		m.Tokens.WithLabelValues(modelName, "output").Add(float64(tc.OutputTokens))
	}
}
