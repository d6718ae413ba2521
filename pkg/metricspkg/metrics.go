// Package metricspkg exposes Prometheus metrics for the API.
package metricspkg

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the application metric series.
type Collector struct {
	registry           *prometheus.Registry
	requestDuration    *prometheus.HistogramVec
	purchasesCompleted prometheus.Counter
	purchasesRejected  *prometheus.CounterVec
}

// NewCollector registers the application metrics on a fresh registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		requestDuration: promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Time taken to serve an HTTP request",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		purchasesCompleted: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "purchases_completed_total",
			Help: "Total number of committed purchases",
		}),
		purchasesRejected: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "purchases_rejected_total",
			Help: "Total number of rejected purchases by reason",
		}, []string{"reason"}),
	}
}

// ObserveRequest records one served HTTP request.
func (c *Collector) ObserveRequest(method, path, status string, duration time.Duration) {
	c.requestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// PurchaseCompleted increments the committed purchase counter.
func (c *Collector) PurchaseCompleted() {
	c.purchasesCompleted.Inc()
}

// PurchaseRejected increments the rejected purchase counter for the given reason.
func (c *Collector) PurchaseRejected(reason string) {
	c.purchasesRejected.WithLabelValues(reason).Inc()
}

// Handler returns the scrape endpoint handler for the collector registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
