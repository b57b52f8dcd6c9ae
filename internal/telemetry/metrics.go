package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for the reconciliation core.
type BusinessMetrics struct {
	// Invoicing
	InvoicesIssued   *prometheus.CounterVec
	PaymentsRecorded *prometheus.CounterVec
	PaymentsReset    prometheus.Counter
	PaymentAmount    *prometheus.HistogramVec

	// Quotation approval gate
	QuotationsSent  prometheus.Counter
	QuotationsGated *prometheus.CounterVec

	// Webhooks
	WebhookReceived  *prometheus.CounterVec
	WebhookProcessed *prometheus.CounterVec
	WebhookDropped   *prometheus.CounterVec
	WebhookFailed    *prometheus.CounterVec
	WebhookLatency   *prometheus.HistogramVec
}

// Business is the process-wide metrics instance. Callers nil-check it so
// tests can run without registering collectors.
var Business *BusinessMetrics

// InitBusinessMetrics registers all business metrics and installs them as
// the process-wide instance.
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace)
	return Business
}

// NewBusinessMetrics creates all business metrics on the default registry.
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	return NewBusinessMetricsWith(namespace, prometheus.DefaultRegisterer)
}

// NewBusinessMetricsWith creates all business metrics on an explicit
// registerer. Tests use this with a fresh registry to avoid duplicate
// registration panics.
func NewBusinessMetricsWith(namespace string, reg prometheus.Registerer) *BusinessMetrics {
	if namespace == "" {
		namespace = "lapidary"
	}

	subsystem := "business"
	factory := promauto.With(reg)

	return &BusinessMetrics{
		InvoicesIssued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoices_issued_total",
				Help:      "Total invoices created",
			},
			[]string{"year"},
		),
		PaymentsRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payments_recorded_total",
				Help:      "Total ledger entries recorded",
			},
			[]string{"method", "result_status"},
		),
		PaymentsReset: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payments_reset_total",
				Help:      "Total destructive resets of an invoice ledger to UNPAID",
			},
		),
		PaymentAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_amount",
				Help:      "Recorded payment amounts",
				Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
			},
			[]string{"method"},
		),
		QuotationsSent: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "quotations_sent_total",
				Help:      "Total quotations that passed the approval gate",
			},
		),
		QuotationsGated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "quotations_gated_total",
				Help:      "Total quotations held for approval, by breached rule kind",
			},
			[]string{"rule_kind"},
		),
		WebhookReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_received_total",
				Help:      "Total gateway webhook deliveries received",
			},
			[]string{"event"},
		),
		WebhookProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_processed_total",
				Help:      "Total webhook deliveries that mutated the ledger",
			},
			[]string{"event"},
		),
		WebhookDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_dropped_total",
				Help:      "Total webhook deliveries acknowledged without action",
			},
			[]string{"event", "reason"},
		),
		WebhookFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_failed_total",
				Help:      "Total webhook deliveries rejected or errored",
			},
			[]string{"reason"},
		),
		WebhookLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_duration_seconds",
				Help:      "Webhook processing duration",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"event"},
		),
	}
}
