package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "chronam_reader"

// Metrics holds the gateway's domain counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	cacheLookups   *prometheus.CounterVec
	upstreamFetch  *prometheus.HistogramVec
	webhookEvents  *prometheus.CounterVec
	checkoutEvents *prometheus.CounterVec
}

// New registers the gateway collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_cache_lookups_total",
			Help:      "Archive cache lookups by cache class and result.",
		}, []string{"class", "result"}),
		upstreamFetch: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "archive_upstream_fetch_seconds",
			Help:      "Latency of Chronicling America fetches by outcome.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"outcome"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stripe_webhook_events_total",
			Help:      "Verified Stripe webhook events by type and outcome.",
		}, []string{"type", "outcome"}),
		checkoutEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "billing_sessions_total",
			Help:      "Checkout and portal sessions created by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}

	reg.MustRegister(m.cacheLookups, m.upstreamFetch, m.webhookEvents, m.checkoutEvents)
	return m
}

// CacheLookup records a cache HIT or MISS for class.
func (m *Metrics) CacheLookup(class, result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(class, result).Inc()
}

// UpstreamFetch records one archive fetch.
func (m *Metrics) UpstreamFetch(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.upstreamFetch.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// WebhookEvent records the outcome of one webhook delivery.
func (m *Metrics) WebhookEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// BillingSession records a checkout or portal session attempt.
func (m *Metrics) BillingSession(kind, outcome string) {
	if m == nil {
		return
	}
	m.checkoutEvents.WithLabelValues(kind, outcome).Inc()
}
