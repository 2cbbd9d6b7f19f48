package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vitrine"

// Outcome labels for upstream calls.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

// UpstreamMetrics records latency and outcome of calls to external APIs.
type UpstreamMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
	breaker  *prometheus.GaugeVec
}

// NewUpstreamMetrics registers the upstream metrics on the provided registerer.
func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	if reg == nil {
		return &UpstreamMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of outbound upstream requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"upstream"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Outbound upstream requests by outcome.",
	}, []string{"upstream", "outcome"})
	breaker := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "upstream_breaker_open",
		Help:      "1 when the upstream circuit breaker is open, 0 otherwise.",
	}, []string{"upstream"})
	reg.MustRegister(duration, requests, breaker)
	return &UpstreamMetrics{
		duration: duration,
		requests: requests,
		breaker:  breaker,
	}
}

// ObserveDuration records the duration for the named upstream.
func (u *UpstreamMetrics) ObserveDuration(upstream string, duration time.Duration) {
	if u == nil || u.duration == nil {
		return
	}
	u.duration.WithLabelValues(normalizeLabel(upstream)).Observe(duration.Seconds())
}

// IncOutcome increments the request counter for the named upstream and outcome.
func (u *UpstreamMetrics) IncOutcome(upstream, outcome string) {
	if u == nil || u.requests == nil {
		return
	}
	u.requests.WithLabelValues(normalizeLabel(upstream), normalizeLabel(outcome)).Inc()
}

// SetBreakerOpen flags the breaker state for the named upstream.
func (u *UpstreamMetrics) SetBreakerOpen(upstream string, open bool) {
	if u == nil || u.breaker == nil {
		return
	}
	value := 0.0
	if open {
		value = 1
	}
	u.breaker.WithLabelValues(normalizeLabel(upstream)).Set(value)
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
