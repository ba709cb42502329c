// Package metrics provides Prometheus metrics for newsdesk.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts served requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdesk",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration measures request handling time.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "newsdesk",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// UpstreamRequestsTotal counts outbound calls to third-party services.
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdesk",
			Name:      "upstream_requests_total",
			Help:      "Total number of outbound requests to third-party services",
		},
		[]string{"service", "outcome"},
	)

	// UpstreamDuration measures outbound call duration.
	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "newsdesk",
			Name:      "upstream_duration_seconds",
			Help:      "Duration of outbound requests in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"service"},
	)

	// QueryPageSize observes how many rows a listing returned.
	QueryPageSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "newsdesk",
			Name:      "query_page_size",
			Help:      "Distribution of returned page sizes",
			Buckets:   []float64{0, 1, 5, 8, 10, 25, 50, 100},
		},
		[]string{"query"},
	)

	// IngestedArticlesTotal counts articles inserted by the ingest command.
	IngestedArticlesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdesk",
			Name:      "ingested_articles_total",
			Help:      "Total number of articles inserted from feeds",
		},
		[]string{"feed"},
	)

	// ErrorsTotal counts errors by operation.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsdesk",
			Name:      "errors_total",
			Help:      "Total number of errors",
		},
		[]string{"operation", "error_type"},
	)
)

// RecordRequest records one served HTTP request.
func RecordRequest(method, route, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration)
}

// RecordUpstream records an outbound call. outcome is "ok", "status" or "timeout"/"error".
func RecordUpstream(service, outcome string, duration float64) {
	UpstreamRequestsTotal.WithLabelValues(service, outcome).Inc()
	UpstreamDuration.WithLabelValues(service).Observe(duration)
}

// RecordPage records the size of a returned listing page.
func RecordPage(query string, size int) {
	QueryPageSize.WithLabelValues(query).Observe(float64(size))
}

// RecordIngested adds n inserted articles for feed.
func RecordIngested(feed string, n int) {
	IngestedArticlesTotal.WithLabelValues(feed).Add(float64(n))
}

// RecordError records an error.
func RecordError(operation, errorType string) {
	ErrorsTotal.WithLabelValues(operation, errorType).Inc()
}
