// Package metrics collects and exposes Prometheus metrics for the bot and
// the query API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector registers and records the service's Prometheus metrics.
type Collector struct {
	registry *prometheus.Registry

	updatesHandled   *prometheus.CounterVec
	progressLogged   prometheus.Counter
	progressRejected *prometheus.CounterVec
	httpStatus       *prometheus.CounterVec
	httpLatency      prometheus.Histogram
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		updatesHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mittens_updates_handled_total",
			Help: "Chat updates handled, by kind.",
		}, []string{"kind"}),
		progressLogged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mittens_progress_logged_total",
			Help: "Completion events accepted.",
		}),
		progressRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mittens_progress_rejected_total",
			Help: "Completion events rejected, by reason.",
		}, []string{"reason"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mittens_http_requests_total",
			Help: "HTTP responses, by status code.",
		}, []string{"status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mittens_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	c.registry.MustRegister(
		c.updatesHandled,
		c.progressLogged,
		c.progressRejected,
		c.httpStatus,
		c.httpLatency,
	)

	return c
}

func (c *Collector) RecordUpdate(kind string) {
	c.updatesHandled.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordProgressLogged() {
	c.progressLogged.Inc()
}

func (c *Collector) RecordProgressRejected(reason string) {
	c.progressRejected.WithLabelValues(reason).Inc()
}

// Handler serves the collector's registry at /metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// statusRecorder captures the response status for the HTTP middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// HTTPMiddleware records status and latency for every request.
func (c *Collector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sr, r)

		c.httpStatus.WithLabelValues(strconv.Itoa(sr.status)).Inc()
		c.httpLatency.Observe(time.Since(start).Seconds())
	})
}
