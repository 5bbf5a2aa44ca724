package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics records outbound API traffic and view-state bookkeeping.
type ClientMetrics struct {
	duration     *prometheus.HistogramVec
	responses    *prometheus.CounterVec
	authFailures prometheus.Counter
	discarded    *prometheus.CounterVec
}

// NewClientMetrics registers the client metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	if reg == nil {
		return &ClientMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_api_request_duration_seconds",
		Help:    "Duration of outbound API requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	responses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_api_responses_total",
		Help: "Outbound API responses by endpoint and status.",
	}, []string{"endpoint", "status"})
	authFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_api_auth_failures_total",
		Help: "Responses that cleared the session because authentication failed.",
	})
	discarded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_discarded_responses_total",
		Help: "Responses dropped because a newer request superseded them.",
	}, []string{"view"})
	reg.MustRegister(duration, responses, authFailures, discarded)
	return &ClientMetrics{
		duration:     duration,
		responses:    responses,
		authFailures: authFailures,
		discarded:    discarded,
	}
}

// ObserveRequest records the duration and outcome of one call. Status 0 means
// the request never produced a response.
func (c *ClientMetrics) ObserveRequest(endpoint string, status int, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	endpoint = normalizeLabel(endpoint)
	c.duration.WithLabelValues(endpoint).Observe(duration.Seconds())
	label := "transport_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	c.responses.WithLabelValues(endpoint, label).Inc()
}

// IncAuthFailure counts a session-clearing authentication failure.
func (c *ClientMetrics) IncAuthFailure() {
	if c == nil || c.authFailures == nil {
		return
	}
	c.authFailures.Inc()
}

// IncDiscarded counts a superseded response for the named view.
func (c *ClientMetrics) IncDiscarded(view string) {
	if c == nil || c.discarded == nil {
		return
	}
	c.discarded.WithLabelValues(normalizeLabel(view)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
