package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// IPNMetrics counts payment notification outcomes and times fulfillment publishing.
type IPNMetrics struct {
	outcomes *prometheus.CounterVec
	publish  *prometheus.HistogramVec
}

// NewIPNMetrics registers the notification metrics on the provided registerer.
func NewIPNMetrics(reg prometheus.Registerer) *IPNMetrics {
	if reg == nil {
		return &IPNMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hz_ipn_notifications_total",
		Help: "Payment notifications by processing outcome.",
	}, []string{"outcome"})
	publish := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hz_fulfillment_publish_seconds",
		Help:    "Duration of fulfillment order creation calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
	reg.MustRegister(outcomes, publish)
	return &IPNMetrics{outcomes: outcomes, publish: publish}
}

// IncOutcome counts one processed notification.
func (m *IPNMetrics) IncOutcome(outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(outcome, "unknown")).Inc()
}

// ObservePublish records one publish attempt.
func (m *IPNMetrics) ObservePublish(duration time.Duration, err error) {
	if m == nil || m.publish == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.publish.WithLabelValues(result).Observe(duration.Seconds())
}
