// Package metrics exposes Prometheus instrumentation for the verification
// pipeline. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Verification outcomes.
const (
	OutcomeParsed   = "parsed"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

// Metrics holds the collectors registered on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	verifications   *prometheus.CounterVec
	verifyDuration  prometheus.Histogram
	contextFetches  *prometheus.CounterVec
	knowledgeChunks prometheus.Gauge
	modelTokens     *prometheus.CounterVec
	modelCost       *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates a Metrics instance with a fresh registry that also carries the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		verifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adverify_verifications_total",
				Help: "Verification requests by outcome.",
			},
			[]string{"outcome"},
		),
		verifyDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "adverify_verification_duration_seconds",
			Help:    "End-to-end verification latency.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
		contextFetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adverify_context_fetch_total",
				Help: "URL context fetches by result.",
			},
			[]string{"result"},
		),
		knowledgeChunks: f.NewGauge(prometheus.GaugeOpts{
			Name: "adverify_knowledge_chunks",
			Help: "Number of chunks in the knowledge store.",
		}),
		modelTokens: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adverify_model_tokens_total",
				Help: "Language model tokens consumed.",
			},
			[]string{"provider", "direction"},
		),
		modelCost: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adverify_model_cost_dollars_total",
				Help: "Estimated language model spend in USD.",
			},
			[]string{"provider"},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adverify_http_requests_total",
				Help: "HTTP requests by route, method and status code.",
			},
			[]string{"route", "method", "code"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "adverify_http_request_duration_seconds",
				Help:    "HTTP request latency by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveVerification records a finished verification.
func (m *Metrics) ObserveVerification(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(outcome).Inc()
	m.verifyDuration.Observe(d.Seconds())
}

// ObserveContextFetch counts a context fetch by result (ok, skipped, error).
func (m *Metrics) ObserveContextFetch(result string) {
	if m == nil {
		return
	}
	m.contextFetches.WithLabelValues(result).Inc()
}

// SetKnowledgeChunks sets the knowledge store size.
func (m *Metrics) SetKnowledgeChunks(n int) {
	if m == nil {
		return
	}
	m.knowledgeChunks.Set(float64(n))
}

// ObserveModelUsage records tokens and estimated cost of one model call.
func (m *Metrics) ObserveModelUsage(provider string, inputTokens, outputTokens int, cost float64) {
	if m == nil {
		return
	}
	m.modelTokens.WithLabelValues(provider, "input").Add(float64(inputTokens))
	m.modelTokens.WithLabelValues(provider, "output").Add(float64(outputTokens))
	if cost > 0 {
		m.modelCost.WithLabelValues(provider).Add(cost)
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware counts requests per chi route pattern. Unmatched requests are
// grouped under "unmatched" to keep label cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
