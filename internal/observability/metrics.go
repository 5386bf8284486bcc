package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the weather resolution core.
type Metrics struct {
	ProviderRequests *prometheus.CounterVec // labels: provider, endpoint, outcome={success,error}
	Fallbacks        *prometheus.CounterVec // labels: stage={current,forecast}
	ResolveTier      *prometheus.CounterVec // labels: tier={city,coords,session,device,default}
	GeocodeCache     *prometheus.CounterVec // labels: result={hit,miss}
	CacheLookups     *prometheus.CounterVec // labels: kind={current,forecast}, result={hit,miss}
	RequestDuration  *prometheus.HistogramVec
}

// NewMetrics creates and registers all collectors with the default registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ProviderRequests,
		m.Fallbacks,
		m.ResolveTier,
		m.GeocodeCache,
		m.CacheLookups,
		m.RequestDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skycast",
			Name:      "provider_requests_total",
			Help:      "Upstream provider calls by provider, endpoint, and outcome.",
		}, []string{"provider", "endpoint", "outcome"}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skycast",
			Name:      "provider_fallbacks_total",
			Help:      "Times the orchestrator moved past the primary provider.",
		}, []string{"stage"}),
		ResolveTier: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skycast",
			Name:      "resolve_tier_total",
			Help:      "Location resolutions by the priority tier that satisfied them.",
		}, []string{"tier"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skycast",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skycast",
			Name:      "weather_cache_total",
			Help:      "Weather response cache lookups by kind and result.",
		}, []string{"kind", "result"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "skycast",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of API requests by route.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"route", "status"}),
	}
}
