package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the analytics engine
type Metrics struct {
	// Ingestion metrics
	EventsIngestedTotal *prometheus.CounterVec
	IngestErrorsTotal   *prometheus.CounterVec

	// Aggregation cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Throttle metrics
	RateLimitedTotal *prometheus.CounterVec

	// Credential metrics
	AuthFailuresTotal prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		EventsIngestedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analytics_events_ingested_total",
				Help: "Total number of events accepted on the ingestion path",
			},
			[]string{"device"},
		),
		IngestErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analytics_ingest_errors_total",
				Help: "Total number of ingestion failures by error kind",
			},
			[]string{"kind"},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analytics_cache_hits_total",
				Help: "Total number of aggregate cache hits",
			},
			[]string{"query"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analytics_cache_misses_total",
				Help: "Total number of aggregate cache misses",
			},
			[]string{"query"},
		),
		RateLimitedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analytics_rate_limited_total",
				Help: "Total number of requests rejected by the throttle",
			},
			[]string{"scope"},
		),
		AuthFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "analytics_auth_failures_total",
				Help: "Total number of credential validation failures",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.EventsIngestedTotal,
		m.IngestErrorsTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.RateLimitedTotal,
		m.AuthFailuresTotal,
	)

	return m
}

// Handler returns the /metrics endpoint handler for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
