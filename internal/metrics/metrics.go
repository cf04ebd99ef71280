// Package metrics collects Prometheus metrics for the HTTP layer and the
// student service, and exposes them for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector is the Prometheus-backed implementation. It satisfies
// service.Recorder and is used by the metrics middleware.
type Collector struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	studentsAdded   prometheus.Counter
	studentsDeleted prometheus.Counter
	rejections      *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "students_api_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status_code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "students_api_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		studentsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "students_api_students_added_total",
			Help: "Students successfully registered.",
		}),
		studentsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "students_api_students_deleted_total",
			Help: "Students successfully deleted.",
		}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "students_api_rejections_total",
			Help: "Requests rejected by a business rule, by error kind.",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		c.requests,
		c.requestDuration,
		c.studentsAdded,
		c.studentsDeleted,
		c.rejections,
	)

	return c
}

// RecordHTTPRequest records one finished request.
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) StudentAdded() {
	c.studentsAdded.Inc()
}

func (c *Collector) StudentDeleted() {
	c.studentsDeleted.Inc()
}

func (c *Collector) Rejected(kind string) {
	c.rejections.WithLabelValues(kind).Inc()
}

// Handler returns the HTTP handler Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
