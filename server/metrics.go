package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the API server.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestSeconds  *prometheus.HistogramVec

	// Ingest metrics
	UploadBatchesTotal  *prometheus.CounterVec
	RecordingsCreated   prometheus.Counter
	RecordingsDeleted   prometheus.Counter
	ReprocessTotal      prometheus.Counter

	// Stream metrics
	ActiveStreams prometheus.Gauge
	StreamsTotal  prometheus.Counter
}

// NewMetrics creates the server metric set on a fresh registry that also
// carries the standard Go and process collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meetscribe_http_requests_total",
				Help: "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		RequestSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "meetscribe_http_request_seconds",
				Help:    "HTTP request latency",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"method", "route"},
		),

		UploadBatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meetscribe_upload_batches_total",
				Help: "Total upload batches by outcome",
			},
			[]string{"outcome"},
		),
		RecordingsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "meetscribe_recordings_created_total",
				Help: "Total recordings created",
			},
		),
		RecordingsDeleted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "meetscribe_recordings_deleted_total",
				Help: "Total recordings deleted",
			},
		),
		ReprocessTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "meetscribe_reprocess_total",
				Help: "Total reprocess triggers",
			},
		),

		ActiveStreams: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "meetscribe_active_progress_streams",
				Help: "Currently open job progress streams",
			},
		),
		StreamsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "meetscribe_progress_streams_total",
				Help: "Total job progress streams opened",
			},
		),
	}
}

// Handler returns the /metrics scrape handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
