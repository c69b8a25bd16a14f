// Package metrics exposes Prometheus instrumentation for the API and the
// classification pipeline.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the registry and collectors for one process.
type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	documentsUploaded  prometheus.Counter
	documentsDeleted   prometheus.Counter
	classifyTotal      *prometheus.CounterVec
	classifyDuration   prometheus.Histogram
	batchSubmitTotal   *prometheus.CounterVec
	batchFilesObserved prometheus.Histogram
}

// New builds the collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fleetdocs",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "fleetdocs",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		documentsUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fleetdocs",
			Subsystem: "documents",
			Name:      "uploaded_total",
			Help:      "Total documents persisted.",
		}),
		documentsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fleetdocs",
			Subsystem: "documents",
			Name:      "deleted_total",
			Help:      "Total documents deleted.",
		}),
		classifyTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fleetdocs",
				Subsystem: "classify",
				Name:      "requests_total",
				Help:      "Total classification calls by outcome.",
			},
			[]string{"status"},
		),
		classifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fleetdocs",
			Subsystem: "classify",
			Name:      "duration_seconds",
			Help:      "Classification call duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		batchSubmitTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fleetdocs",
				Subsystem: "batch",
				Name:      "submissions_total",
				Help:      "Total batch submissions by mode and outcome.",
			},
			[]string{"mode", "status"},
		),
		batchFilesObserved: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fleetdocs",
			Subsystem: "batch",
			Name:      "files_per_submission",
			Help:      "Distribution of files per batch submission.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		}),
	}

	registry.MustRegister(
		m.requestTotal,
		m.requestDuration,
		m.documentsUploaded,
		m.documentsDeleted,
		m.classifyTotal,
		m.classifyDuration,
		m.batchSubmitTotal,
		m.batchFilesObserved,
	)

	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// Middleware records per-request counters and latency. Paths are taken from
// the matched route template so ids do not explode label cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.requestTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// IncDocumentUploaded increments the uploaded counter.
func (m *Metrics) IncDocumentUploaded() {
	m.documentsUploaded.Inc()
}

// IncDocumentDeleted increments the deleted counter.
func (m *Metrics) IncDocumentDeleted() {
	m.documentsDeleted.Inc()
}

// ObserveClassify records one classification call.
func (m *Metrics) ObserveClassify(status string, d time.Duration) {
	m.classifyTotal.WithLabelValues(status).Inc()
	m.classifyDuration.Observe(d.Seconds())
}

// ObserveBatchSubmit records one batch submission.
func (m *Metrics) ObserveBatchSubmit(mode, status string, files int) {
	m.batchSubmitTotal.WithLabelValues(mode, status).Inc()
	m.batchFilesObserved.Observe(float64(files))
}
