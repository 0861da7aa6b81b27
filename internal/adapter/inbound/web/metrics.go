package web

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the console's Prometheus collectors.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	AuthEvents      *prometheus.CounterVec
	GateDecisions   *prometheus.CounterVec
	BackendErrors   *prometheus.CounterVec
}

// NewMetrics creates and registers all console metrics with the given
// registerer. authenticated is sampled at scrape time, so the gauge
// tracks forced logouts and CLI logouts the handlers never see.
func NewMetrics(reg prometheus.Registerer, authenticated func() bool) *Metrics {
	factory := promauto.With(reg)

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "fleetdesk",
			Subsystem: "session",
			Name:      "authenticated",
			Help:      "1 when the console session is authenticated, 0 otherwise.",
		},
		func() float64 {
			if authenticated() {
				return 1
			}
			return 0
		},
	)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fleetdesk",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests handled by the console.",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "fleetdesk",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fleetdesk",
				Subsystem: "session",
				Name:      "auth_events_total",
				Help:      "Session lifecycle events by kind.",
			},
			[]string{"kind"},
		),
		GateDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fleetdesk",
				Subsystem: "session",
				Name:      "gate_decisions_total",
				Help:      "Route gate verdicts by decision.",
			},
			[]string{"decision"},
		),
		BackendErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fleetdesk",
				Subsystem: "backend",
				Name:      "errors_total",
				Help:      "Backend request failures by class.",
			},
			[]string{"class"},
		),
	}
}
