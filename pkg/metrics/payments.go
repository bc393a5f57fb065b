package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records metadata for the payment and webhook pipeline.
type PaymentMetrics struct {
	initiations      *prometheus.CounterVec
	webhookEvents    *prometheus.CounterVec
	reconcileLatency *prometheus.HistogramVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	initiations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_initiations_total",
		Help: "Payment initiations by plan and billing cycle.",
	}, []string{"plan", "cycle"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Webhook events by event type and processing outcome.",
	}, []string{"event", "outcome"})
	reconcileLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_reconcile_duration_seconds",
		Help:    "Duration of webhook reconciliation in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event"})
	reg.MustRegister(initiations, webhookEvents, reconcileLatency)
	return &PaymentMetrics{
		initiations:      initiations,
		webhookEvents:    webhookEvents,
		reconcileLatency: reconcileLatency,
	}
}

// IncInitiation increments the initiation counter for the plan/cycle pair.
func (p *PaymentMetrics) IncInitiation(plan, cycle string) {
	if p == nil || p.initiations == nil {
		return
	}
	p.initiations.WithLabelValues(normalizeLabel(plan), normalizeLabel(cycle)).Inc()
}

// IncWebhookEvent increments the webhook counter for the event/outcome pair.
func (p *PaymentMetrics) IncWebhookEvent(event, outcome string) {
	if p == nil || p.webhookEvents == nil {
		return
	}
	p.webhookEvents.WithLabelValues(normalizeLabel(event), normalizeLabel(outcome)).Inc()
}

// ObserveReconcile records the reconciliation duration for the named event.
func (p *PaymentMetrics) ObserveReconcile(event string, duration time.Duration) {
	if p == nil || p.reconcileLatency == nil {
		return
	}
	p.reconcileLatency.WithLabelValues(normalizeLabel(event)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
