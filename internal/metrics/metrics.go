package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"

	OutcomeCreated   = "created"
	OutcomeFailed    = "failed"
	OutcomeDelegated = "delegated"
	OutcomeRejected  = "rejected"
	OutcomeCompleted = "completed"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	AccountResolutionsTotal *prometheus.CounterVec
	PlanListingsTotal       *prometheus.CounterVec
	CheckoutSessionsTotal   *prometheus.CounterVec

	registry *prometheus.Registry
}

func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinicbook_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "clinicbook_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AccountResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinicbook_account_resolutions_total",
				Help: "Billing account resolutions by the step that produced the id",
			},
			[]string{"source"},
		),
		PlanListingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinicbook_plan_listings_total",
				Help: "Plan listings by outcome",
			},
			[]string{"outcome"},
		),
		CheckoutSessionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinicbook_checkout_sessions_total",
				Help: "Checkout initiations by outcome",
			},
			[]string{"outcome"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AccountResolutionsTotal,
		m.PlanListingsTotal,
		m.CheckoutSessionsTotal,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) ObserveResolution(source string) {
	if source == "" {
		source = "none"
	}
	m.AccountResolutionsTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) ObservePlanListing(outcome string) {
	m.PlanListingsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveCheckout(outcome string) {
	m.CheckoutSessionsTotal.WithLabelValues(outcome).Inc()
}
