// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FormSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "salon",
		Name:      "form_submissions_total",
		Help:      "Submit flows by form and outcome (ok, invalid, failed).",
	}, []string{"form", "outcome"})

	RecordWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "salon",
		Name:      "record_writes_total",
		Help:      "Record store writes by collection and operation.",
	}, []string{"collection", "op"})

	SessionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "salon",
		Name:      "session_events_total",
		Help:      "Authentication state transitions.",
	}, []string{"state"})

	SummaryCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "salon",
		Name:      "summary_cache_total",
		Help:      "Month-to-date summary cache lookups by result.",
	}, []string{"result"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "salon",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// GinMiddleware records request latency keyed by the matched route pattern.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
