package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/contafacil/escritorio-go/internal/domain"
)

// Metrics holds all Prometheus metrics for the backend.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration    *prometheus.HistogramVec
	extractionDuration prometheus.Histogram
	uploadsTotal       *prometheus.CounterVec
	processedTotal     prometheus.Counter
	extractionFailures prometheus.Counter
	externalErrors     *prometheus.CounterVec
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contabil_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		extractionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "contabil_extraction_duration_seconds",
				Help:    "Duration of document content extraction.",
				Buckets: prometheus.DefBuckets,
			},
		),
		uploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contabil_uploads_total",
				Help: "Total documents uploaded, by category.",
			},
			[]string{"category"},
		),
		processedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "contabil_documents_processed_total",
				Help: "Total documents approved as processed.",
			},
		),
		extractionFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "contabil_extraction_failures_total",
				Help: "Total extraction failures.",
			},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contabil_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contabil_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contabil_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordExtractionDuration records how long content extraction took.
func (m *Metrics) RecordExtractionDuration(d time.Duration) {
	m.extractionDuration.Observe(d.Seconds())
}

// RecordUpload increments the upload counter for a category.
func (m *Metrics) RecordUpload(category string) {
	m.uploadsTotal.WithLabelValues(category).Inc()
}

// RecordProcessed increments the processed document counter.
func (m *Metrics) RecordProcessed() {
	m.processedTotal.Inc()
}

// RecordExtractionFailure increments the extraction failure counter.
func (m *Metrics) RecordExtractionFailure() {
	m.extractionFailures.Inc()
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// GetProcessingSnapshot returns a snapshot of processing metrics for
// the GET /v1/metrics/summary endpoint.
func (m *Metrics) GetProcessingSnapshot() *domain.ProcessingMetrics {
	var totalUploads float64
	for _, cat := range domain.DocumentCategories {
		totalUploads += getCounterValue(m.uploadsTotal, cat)
	}
	processed := getPlainCounterValue(m.processedTotal)
	failures := getPlainCounterValue(m.extractionFailures)
	cacheHits := getCounterValue(m.cacheHits, "dashboard")
	cacheMisses := getCounterValue(m.cacheMisses, "dashboard")

	cacheHitRate := float64(0)
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	sum, count := getHistogramTotals(m.extractionDuration)
	avgMs := float64(0)
	if count > 0 {
		avgMs = (sum / float64(count)) * 1000
	}

	return &domain.ProcessingMetrics{
		TotalUploads:       int64(totalUploads),
		TotalProcessed:     int64(processed),
		ExtractionFailures: int64(failures),
		AvgExtractionMs:    avgMs,
		CacheHitRate:       cacheHitRate,
		Period:             "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

func getPlainCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

func getHistogramTotals(h prometheus.Histogram) (sum float64, count uint64) {
	m := &dto.Metric{}
	if err := h.Write(m); err != nil {
		return 0, 0
	}
	if m.Histogram == nil {
		return 0, 0
	}
	if m.Histogram.SampleSum != nil {
		sum = *m.Histogram.SampleSum
	}
	if m.Histogram.SampleCount != nil {
		count = *m.Histogram.SampleCount
	}
	return sum, count
}
