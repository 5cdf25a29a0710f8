// Package metrics exposes Prometheus counters for the monitoring
// pipeline and the HTTP surface.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts API requests by method, route pattern and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hunter_http_requests_total",
		Help: "HTTP requests served, by method, path and status code.",
	}, []string{"method", "path", "status"})

	// HTTPDuration records request latency in seconds.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hunter_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// AlertsCreated counts alerts added to the alerts collection.
	AlertsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hunter_alerts_created_total",
		Help: "Alerts created through the API or the live feed.",
	})

	// FeedEntries counts synthetic feed entries emitted by the simulator.
	FeedEntries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hunter_feed_entries_total",
		Help: "Live feed entries generated.",
	})

	// LeakSearches counts leak-hunter queries by search type.
	LeakSearches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hunter_leak_searches_total",
		Help: "Leak searches executed, by query type.",
	}, []string{"type"})

	// AlertsStored tracks the current size of the alerts collection.
	AlertsStored = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hunter_alerts_stored",
		Help: "Alerts currently held in the collection store.",
	})

	// FeedConnections tracks live WebSocket feed clients.
	FeedConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hunter_feed_connections",
		Help: "Currently connected WebSocket feed clients.",
	})

	// UpstreamErrors counts failed calls to the scanner service.
	UpstreamErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hunter_scanner_errors_total",
		Help: "Failed requests to the scanner backend.",
	})

	// LoginAttempts counts login attempts by outcome.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hunter_login_attempts_total",
		Help: "Login attempts, by outcome (success or failure).",
	}, []string{"outcome"})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
