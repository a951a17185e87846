package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exposed at /metrics. A nil *Metrics records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
	rankingTotal    *prometheus.CounterVec
	claimTotal      *prometheus.CounterVec
}

// NewMetrics registers collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	errorTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_errors_total",
		Help: "Error responses by domain error code",
	}, []string{"method", "path", "code"})

	rankingTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ranking_requests_total",
		Help: "Ranking stage executions by outcome",
	}, []string{"stage", "outcome"})

	claimTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ticket_claims_total",
		Help: "Claim attempts by outcome",
	}, []string{"outcome"})

	registry.MustRegister(requestDuration, requestTotal, errorTotal, rankingTotal, claimTotal)

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		errorTotal:      errorTotal,
		rankingTotal:    rankingTotal,
		claimTotal:      claimTotal,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest observes one completed request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorTotal.WithLabelValues(method, path, code).Inc()
}

// RecordRanking counts one ranking stage run; outcome is "ok" or "error".
func (m *Metrics) RecordRanking(stage, outcome string) {
	if m == nil {
		return
	}
	m.rankingTotal.WithLabelValues(stage, outcome).Inc()
}

// RecordClaim counts a claim attempt.
func (m *Metrics) RecordClaim(outcome string) {
	if m == nil {
		return
	}
	m.claimTotal.WithLabelValues(outcome).Inc()
}
