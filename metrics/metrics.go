// Package metrics bundles Prometheus collectors for the listings service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors on a dedicated registry.
type Metrics struct {
	Registry          *prometheus.Registry
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   prometheus.Histogram
	ServedTotal       *prometheus.CounterVec
	UpstreamTotal     *prometheus.CounterVec
	UpstreamDuration  *prometheus.HistogramVec
	PersistTotal      *prometheus.CounterVec
	StoreRecords      prometheus.Gauge
	RateLimitRejected prometheus.Counter
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listings_requests_total",
			Help: "Total HTTP requests by endpoint and status class.",
		},
		[]string{"endpoint", "status"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "listings_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	served := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listings_served_total",
			Help: "Listings responses by the layer that ultimately served them.",
		},
		[]string{"provider", "source"},
	)
	upstream := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listings_upstream_requests_total",
			Help: "Upstream API calls by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)
	upstreamDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "listings_upstream_duration_seconds",
			Help:    "Upstream API call latency by provider.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
	persist := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listings_persist_writes_total",
			Help: "Background store writes by outcome.",
		},
		[]string{"outcome"},
	)
	storeRecords := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "listings_store_records",
			Help: "Number of records currently in the persistent store.",
		},
	)
	rateLimitRejected := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "listings_rate_limit_rejected_total",
			Help: "HTTP requests rejected by the per-client rate limiter.",
		},
	)

	registry.MustRegister(requests, requestDuration, served, upstream,
		upstreamDuration, persist, storeRecords, rateLimitRejected)

	return &Metrics{
		Registry:          registry,
		RequestsTotal:     requests,
		RequestDuration:   requestDuration,
		ServedTotal:       served,
		UpstreamTotal:     upstream,
		UpstreamDuration:  upstreamDuration,
		PersistTotal:      persist,
		StoreRecords:      storeRecords,
		RateLimitRejected: rateLimitRejected,
	}
}

// IncRequest increments the HTTP request counter.
func (m *Metrics) IncRequest(endpoint, status string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(endpoint, status).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncServed increments the served counter for a provider and origin layer.
func (m *Metrics) IncServed(provider, source string) {
	if m == nil {
		return
	}
	m.ServedTotal.WithLabelValues(provider, source).Inc()
}

// IncUpstream increments the upstream call counter.
func (m *Metrics) IncUpstream(provider, outcome string) {
	if m == nil {
		return
	}
	m.UpstreamTotal.WithLabelValues(provider, outcome).Inc()
}

// ObserveUpstreamDuration records an upstream call duration.
func (m *Metrics) ObserveUpstreamDuration(provider string, d time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// IncPersist increments the store write counter.
func (m *Metrics) IncPersist(outcome string) {
	if m == nil {
		return
	}
	m.PersistTotal.WithLabelValues(outcome).Inc()
}

// SetStoreRecords sets the persistent store record gauge.
func (m *Metrics) SetStoreRecords(n int) {
	if m == nil {
		return
	}
	m.StoreRecords.Set(float64(n))
}

// IncRateLimitRejected increments the 429 rejection counter.
func (m *Metrics) IncRateLimitRejected() {
	if m == nil {
		return
	}
	m.RateLimitRejected.Inc()
}
