package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPLatencyBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
)

// HTTPMetrics groups HTTP-related metrics
type HTTPMetrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	ErrorsTotal      *prometheus.CounterVec
}

// NewHTTPMetrics creates and returns HTTP metrics
func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "transfervolume_http_requests_total",
				Help:        "Total number of HTTP requests",
				ConstLabels: constLabels(),
			},
			[]string{"method", "handler", "status_class"}, // status_class: 2xx, 3xx, 4xx, 5xx
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "transfervolume_http_request_duration_seconds",
				Help:        "HTTP request duration in seconds",
				Buckets:     HTTPLatencyBuckets,
				ConstLabels: constLabels(),
			},
			[]string{"method", "handler"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:        "transfervolume_http_requests_in_flight",
				Help:        "Number of HTTP requests currently being processed",
				ConstLabels: constLabels(),
			},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "transfervolume_http_errors_total",
				Help:        "Total number of HTTP errors",
				ConstLabels: constLabels(),
			},
			[]string{"handler", "error_type"},
		),
	}
}

// Register registers all HTTP metrics with the given registry
func (h *HTTPMetrics) Register(reg *prometheus.Registry) {
	reg.MustRegister(
		h.RequestsTotal,
		h.RequestDuration,
		h.RequestsInFlight,
		h.ErrorsTotal,
	)
}

// GetStatusClass converts HTTP status code to class (2xx, 3xx, 4xx, 5xx)
func GetStatusClass(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500:
		return "5xx"
	default:
		return "other"
	}
}

// GetHandlerPattern converts full path to a low cardinality handler label
func GetHandlerPattern(path string) string {
	switch {
	case path == "" || path == "/":
		return "root"
	case path == "/health":
		return "health"
	case strings.HasPrefix(path, "/indexer/"):
		// /indexer/transfer-volume/<address> -> transfer-volume
		parts := strings.Split(path, "/")
		if len(parts) >= 3 && parts[2] != "" {
			return parts[2]
		}
		return "indexer"
	default:
		return "other"
	}
}
