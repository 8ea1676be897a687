// Package metrics defines the Prometheus collectors exported on /metrics.
//
// Collectors are registered on a registry passed in by the server rather than
// the global default one, so tests can build as many servers as they like
// without "duplicate metrics collector registration" panics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mentorship"

// Outcome labels for the form counters.
const (
	OutcomeSuccess = "success"
)

type Metrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	logins        *prometheus.CounterVec
	registrations *prometheus.CounterVec
	profiles      *prometheus.CounterVec
	gatherer      prometheus.Gatherer
}

// New creates the collectors and registers them on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registrations_total",
				Help:      "Registration attempts by outcome",
			},
			[]string{"outcome"},
		),
		profiles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "profile_updates_total",
				Help:      "Profile update attempts by outcome",
			},
			[]string{"outcome"},
		),
		gatherer: reg,
	}

	reg.MustRegister(m.requests, m.duration, m.logins, m.registrations, m.profiles)
	return m
}

// RecordRequest is called by the HTTP middleware once per request. route is the
// chi route pattern ("/admin/users/{id}/suspend"), never the raw path, so label
// cardinality stays bounded.
func (m *Metrics) RecordRequest(method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Login, Registration and ProfileUpdate count form outcomes. outcome is
// OutcomeSuccess or the error redirect it produced ("error=1", ...).
func (m *Metrics) Login(outcome string)         { m.logins.WithLabelValues(outcome).Inc() }
func (m *Metrics) Registration(outcome string)  { m.registrations.WithLabelValues(outcome).Inc() }
func (m *Metrics) ProfileUpdate(outcome string) { m.profiles.WithLabelValues(outcome).Inc() }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
