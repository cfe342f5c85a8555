package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	paymentsInitiated  *prometheus.CounterVec
	verifications      *prometheus.CounterVec
	gatewayDuration    *prometheus.HistogramVec
	statusCacheLookups *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		paymentsInitiated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_initiated_total",
			Help: "Payment initiation attempts by outcome.",
		}, []string{"outcome"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_verifications_total",
			Help: "Payment verifications by resulting local status or error.",
		}, []string{"status"}),
		gatewayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Latency of payment gateway calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),
		statusCacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_status_cache_total",
			Help: "Terminal status cache lookups by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.paymentsInitiated, m.verifications, m.gatewayDuration, m.statusCacheLookups)
	return m
}

func (m *Metrics) PaymentInitiated(outcome string) {
	if m == nil {
		return
	}
	m.paymentsInitiated.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PaymentVerified(status string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveGatewayCall(operation, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.gatewayDuration.WithLabelValues(operation, outcome).Observe(time.Since(started).Seconds())
}

func (m *Metrics) StatusCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.statusCacheLookups.WithLabelValues(result).Inc()
}
