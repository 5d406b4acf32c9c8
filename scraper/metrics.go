package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for fetches and batch runs.
type Metrics struct {
	Registry           *prometheus.Registry
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    prometheus.Histogram
	CacheHitsTotal     prometheus.Counter
	RetriesTotal       prometheus.Counter
	RecordsTotal       *prometheus.CounterVec
	ErrorsTotal        *prometheus.CounterVec
	PersistWritesTotal *prometheus.CounterVec
	PacingSecondsTotal prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_requests_total",
			Help: "Total document fetches issued by the scraper.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_request_duration_seconds",
			Help:    "Document fetch latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_cache_hits_total",
			Help: "Fetches served from the response cache.",
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_retries_total",
			Help: "Total number of fetch retries.",
		},
	)
	records := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_records_total",
			Help: "Extraction outcomes by result (ok, empty, failed).",
		},
		[]string{"result"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total number of scraper errors by type.",
		},
		[]string{"error_type"},
	)
	writes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_persist_writes_total",
			Help: "Blob writes by scope (item, batch) and result.",
		},
		[]string{"scope", "result"},
	)
	pacing := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_pacing_seconds_total",
			Help: "Time spent waiting between batch targets.",
		},
	)

	registry.MustRegister(requests, requestDuration, cacheHits, retries, records, errorsTotal, writes, pacing)

	return &Metrics{
		Registry:           registry,
		RequestsTotal:      requests,
		RequestDuration:    requestDuration,
		CacheHitsTotal:     cacheHits,
		RetriesTotal:       retries,
		RecordsTotal:       records,
		ErrorsTotal:        errorsTotal,
		PersistWritesTotal: writes,
		PacingSecondsTotal: pacing,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records a fetch duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncCacheHit counts a fetch served from cache.
func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}

// IncRetry counts a retried fetch.
func (m *Metrics) IncRetry() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncRecord counts an extraction outcome.
func (m *Metrics) IncRecord(result string) {
	if m == nil {
		return
	}
	m.RecordsTotal.WithLabelValues(result).Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncWrite counts a blob write.
func (m *Metrics) IncWrite(scope, result string) {
	if m == nil {
		return
	}
	m.PersistWritesTotal.WithLabelValues(scope, result).Inc()
}

// AddPacing records time spent pacing.
func (m *Metrics) AddPacing(d time.Duration) {
	if m == nil {
		return
	}
	m.PacingSecondsTotal.Add(d.Seconds())
}
