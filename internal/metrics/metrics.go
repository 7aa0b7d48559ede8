package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the resolver.
type Metrics struct {
	registry          *prometheus.Registry
	requestsTotal     prometheus.Counter
	errorsTotal       prometheus.Counter
	programLookups    *prometheus.CounterVec
	discoveryDuration prometheus.Histogram
	resolutionsTotal  prometheus.Counter
	resolveDuration   prometheus.Histogram
	streamsResolved   prometheus.Counter
	recordFailures    *prometheus.CounterVec
	probesTotal       *prometheus.CounterVec
}

// New creates and registers the collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ytresolve_http_requests_total",
			Help: "Total number of HTTP requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ytresolve_http_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
		programLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ytresolve_program_lookups_total",
			Help: "Transform program lookups by outcome (hit, miss, error)",
		}, []string{"outcome"}),
		discoveryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ytresolve_program_discovery_seconds",
			Help:    "Time spent fetching a player asset and discovering its programs",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		resolutionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ytresolve_resolutions_total",
			Help: "Total number of completed manifest resolutions",
		}),
		resolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ytresolve_resolve_seconds",
			Help:    "Duration of manifest resolutions",
			Buckets: prometheus.DefBuckets,
		}),
		streamsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ytresolve_streams_resolved_total",
			Help: "Total number of stream descriptors produced",
		}),
		recordFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ytresolve_record_failures_total",
			Help: "Format records omitted from results, by error category",
		}, []string{"category"}),
		probesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ytresolve_filesize_probes_total",
			Help: "File size probes by outcome (ok, error)",
		}, []string{"outcome"}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.errorsTotal,
		m.programLookups,
		m.discoveryDuration,
		m.resolutionsTotal,
		m.resolveDuration,
		m.streamsResolved,
		m.recordFailures,
		m.probesTotal,
	)
	return m
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// ObserveDiscovery records one program lookup. Only misses are timed.
func (m *Metrics) ObserveDiscovery(hit bool, elapsed time.Duration, err error) {
	switch {
	case err != nil:
		m.programLookups.WithLabelValues("error").Inc()
	case hit:
		m.programLookups.WithLabelValues("hit").Inc()
		return
	default:
		m.programLookups.WithLabelValues("miss").Inc()
	}
	m.discoveryDuration.Observe(elapsed.Seconds())
}

// ObserveResolve records a finished resolution.
func (m *Metrics) ObserveResolve(streams int, elapsed time.Duration) {
	m.resolutionsTotal.Inc()
	m.streamsResolved.Add(float64(streams))
	m.resolveDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveRecordFailure(category string) {
	m.recordFailures.WithLabelValues(category).Inc()
}

func (m *Metrics) ObserveProbe(err error) {
	if err != nil {
		m.probesTotal.WithLabelValues("error").Inc()
		return
	}
	m.probesTotal.WithLabelValues("ok").Inc()
}

// Handler returns an http.Handler that serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
