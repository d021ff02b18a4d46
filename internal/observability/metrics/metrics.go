// Package metrics holds the Prometheus collectors for the plaza service.
// All recording methods are safe on a nil *Metrics, so components can run
// without instrumentation in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	obserrors "github.com/ssplaza/plaza-api/internal/observability/errors"
)

// Profile resolution outcomes.
const (
	OutcomeFound        = "found"
	OutcomeCreated      = "created"
	OutcomeCreateFailed = "create_failed"
	OutcomeLookupFailed = "lookup_failed"
)

// Metrics groups the collectors registered for one process.
type Metrics struct {
	Transitions         *prometheus.CounterVec
	ProfileResolutions  *prometheus.CounterVec
	TrackedSessions     prometheus.Gauge
	StaleResolutions    prometheus.Counter
	Notifications       *prometheus.CounterVec
	RateLimited         *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plaza_auth_transitions_total",
				Help: "Auth state transitions emitted by the session manager",
			},
			[]string{"kind"},
		),
		ProfileResolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plaza_profile_resolutions_total",
				Help: "Profile resolutions by outcome",
			},
			[]string{"outcome", "error_class"},
		),
		TrackedSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "plaza_tracked_sessions",
				Help: "Sessions currently tracked by the session manager",
			},
		),
		StaleResolutions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "plaza_stale_resolutions_total",
				Help: "Resolutions discarded because a newer write superseded them",
			},
		),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plaza_notifications_total",
				Help: "User-facing notifications queued",
			},
			[]string{"level"},
		),
		RateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plaza_rate_limited_total",
				Help: "Requests rejected by the per-IP rate limiter",
			},
			[]string{"route"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plaza_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "plaza_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	reg.MustRegister(
		m.Transitions,
		m.ProfileResolutions,
		m.TrackedSessions,
		m.StaleResolutions,
		m.Notifications,
		m.RateLimited,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)
	return m
}

// RecordTransition counts one session manager transition.
func (m *Metrics) RecordTransition(kind string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(kind).Inc()
}

// RecordProfileResolution counts a resolution outcome, tagging the error class on failures.
func (m *Metrics) RecordProfileResolution(outcome string, err error) {
	if m == nil {
		return
	}
	m.ProfileResolutions.WithLabelValues(outcome, obserrors.Classify(err)).Inc()
}

// SetTrackedSessions reports the current tracked-session count.
func (m *Metrics) SetTrackedSessions(n int) {
	if m == nil {
		return
	}
	m.TrackedSessions.Set(float64(n))
}

// RecordStaleResolution counts a discarded resolution.
func (m *Metrics) RecordStaleResolution() {
	if m == nil {
		return
	}
	m.StaleResolutions.Inc()
}

// RecordNotification counts a queued notification.
func (m *Metrics) RecordNotification(level string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(level).Inc()
}

// RecordRateLimited counts a rejected request.
func (m *Metrics) RecordRateLimited(route string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(route).Inc()
}

// RecordHTTPRequest observes one served request. route is the mux pattern, not the raw path.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler exposes the gatherer in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
