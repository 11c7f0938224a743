package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the various metrics used for monitoring the application.
// It includes counters and a histogram for inbound HTTP traffic, a histogram for
// record store calls and counters for rejected payloads and classified errors.
type Metrics struct {
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	StoreQueryDuration *prometheus.HistogramVec
	ValidationFailures *prometheus.CounterVec
	ErrorsClassified   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with the provided Registerer.
//
// Parameters:
//   - reg: A prometheus.Registerer used to register the metrics.
//
// Returns:
//   - A pointer to the newly created Metrics instance.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		HTTPRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "athena_http_requests_total",
			Help: "Total number of handled HTTP requests.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "athena_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		StoreQueryDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "athena_store_query_duration_seconds",
			Help:    "Duration of record store calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"driver", "operation"}), // operation: 'list', 'get', 'create', 'update', 'delete'
		ValidationFailures: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "athena_validation_failures_total",
			Help: "Total number of payloads rejected by validation.",
		}, []string{"operation"}),
		ErrorsClassified: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "athena_errors_total",
			Help: "Total number of error responses by failure kind.",
		}, []string{"kind"}),
	}

	metrics.ValidationFailures.WithLabelValues("create")
	metrics.ValidationFailures.WithLabelValues("update")

	return metrics
}
