// Package telemetry defines the Prometheus collectors shared by the API
// client and the poller.
//
// Metrics:
//   - evaldash_api_requests_total{endpoint, code} (Counter): API calls by endpoint and HTTP status, "error" for transport failures
//   - evaldash_api_request_duration_seconds{endpoint} (Histogram): API call latency
//   - evaldash_poll_fetches_total{outcome} (Counter): poller fetch results (applied, stale, error, discarded)
package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Poll outcomes.
const (
	OutcomeApplied   = "applied"
	OutcomeStale     = "stale"
	OutcomeError     = "error"
	OutcomeDiscarded = "discarded"
)

// Recorder owns the collectors. A nil *Recorder is valid and records nothing.
type Recorder struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	polls    *prometheus.CounterVec
}

// New creates a Recorder and registers its collectors with reg. A nil reg
// leaves the collectors unregistered, which tests use to avoid collisions.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evaldash_api_requests_total",
			Help: "Metrics API calls by endpoint and HTTP status code.",
		}, []string{"endpoint", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "evaldash_api_request_duration_seconds",
			Help:    "Metrics API call latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evaldash_poll_fetches_total",
			Help: "Poller fetch results by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(r.requests, r.duration, r.polls)
	}
	return r
}

// ObserveRequest records one API call. A status of 0 means the request
// failed before a response was received.
func (r *Recorder) ObserveRequest(endpoint string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	r.requests.WithLabelValues(endpoint, code).Inc()
	r.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObservePoll records the outcome of one poller fetch.
func (r *Recorder) ObservePoll(outcome string) {
	if r == nil {
		return
	}
	r.polls.WithLabelValues(outcome).Inc()
}

// Requests exposes the request counter for inspection in tests.
func (r *Recorder) Requests() *prometheus.CounterVec {
	return r.requests
}

// Polls exposes the poll counter for inspection in tests.
func (r *Recorder) Polls() *prometheus.CounterVec {
	return r.polls
}
