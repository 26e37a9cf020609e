package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/upb/multiai-chatbot/services/chat"
	"github.com/upb/multiai-chatbot/services/providers"
)

const namespace = "multiai"

// invalidServiceLabel replaces unknown service names to bound label cardinality
const invalidServiceLabel = "invalid"

// ChatMetrics records chat outcomes as Prometheus series
type ChatMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	tokens   *prometheus.CounterVec
}

// NewChatMetrics creates the chat collectors and registers them on reg
func NewChatMetrics(reg prometheus.Registerer) (*ChatMetrics, error) {
	m := &ChatMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Chat requests by service and error kind (empty error kind means success)",
		}, []string{"service", "error_kind"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_request_duration_seconds",
			Help:      "Time spent routing and answering chat requests",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"service"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_tokens_total",
			Help:      "Tokens reported by upstream providers",
		}, []string{"service", "type"}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.latency, m.tokens} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveChat implements chat.Observer
func (m *ChatMetrics) ObserveChat(_ context.Context, outcome chat.Outcome) {
	service := serviceLabel(outcome.Service)

	m.requests.WithLabelValues(service, string(outcome.Error)).Inc()
	m.latency.WithLabelValues(service).Observe(outcome.Latency.Seconds())

	if outcome.Usage != nil {
		m.tokens.WithLabelValues(service, "prompt").Add(tokenCount(outcome.Usage.PromptTokens))
		m.tokens.WithLabelValues(service, "completion").Add(tokenCount(outcome.Usage.CompletionTokens))
	}
}

// tokenCount clamps upstream-reported counts; counters reject negative deltas
func tokenCount(n int) float64 {
	if n < 0 {
		return 0
	}
	return float64(n)
}

func serviceLabel(service string) string {
	if s, ok := providers.ParseService(service); ok {
		return string(s)
	}
	return invalidServiceLabel
}

// NewRegistry returns a registry preloaded with Go runtime and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler exposes the gatherer's metrics in the Prometheus text format
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
