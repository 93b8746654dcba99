package metrics

import (
	"strconv"
	"time"

	"github.com/jrsteele09/go-lms-client/token"
	"github.com/prometheus/client_golang/prometheus"
)

// Refresh outcomes recorded on lms_token_refresh_total.
const (
	OutcomeSuccess          = "success"
	OutcomeFailure          = "failure"
	OutcomeNoRefreshToken   = "no_refresh_token"
	OutcomeAlreadyRefreshed = "already_refreshed"
	OutcomeRejected         = "rejected"
)

// Metrics groups the client-side collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	refreshTotal    *prometheus.CounterVec
	refreshJoined   *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		refreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lms_token_refresh_total",
				Help: "Token refresh attempts by track and outcome.",
			},
			[]string{"track", "outcome"},
		),
		refreshJoined: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lms_token_refresh_joined_total",
				Help: "Requests that waited on a refresh already in flight.",
			},
			[]string{"track"},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lms_client_requests_total",
				Help: "Requests sent to the LMS backend.",
			},
			[]string{"method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lms_client_request_duration_seconds",
				Help:    "Backend request latencies in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.refreshTotal, m.refreshJoined, m.requestsTotal, m.requestDuration)
	}
	return m
}

func (m *Metrics) RefreshOutcome(track token.Track, outcome string) {
	if m == nil {
		return
	}
	m.refreshTotal.WithLabelValues(track.String(), outcome).Inc()
}

func (m *Metrics) RefreshJoined(track token.Track) {
	if m == nil {
		return
	}
	m.refreshJoined.WithLabelValues(track.String()).Inc()
}

// Request records one round trip. status 0 means no response was received.
func (m *Metrics) Request(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requestsTotal.WithLabelValues(method, label).Inc()
	m.requestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}
