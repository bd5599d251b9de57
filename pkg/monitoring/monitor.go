package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_graphql_requests_total",
			Help: "GraphQL operations sent to the course API, by outcome",
		},
		[]string{"operation", "outcome"},
	)

	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_graphql_request_duration_seconds",
			Help:    "Duration of GraphQL operations sent to the course API",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"operation"},
	)

	CourseFetchRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "course_fetch_auto_retries_total",
			Help: "Automatic retries scheduled for the course list",
		},
	)

	VideoProgressUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_progress_updates_total",
			Help: "Video progress reports, by result",
		},
		[]string{"result"},
	)

	StaleProgressResponses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "progress_stale_responses_total",
			Help: "Progress responses discarded because a newer request was already applied",
		},
	)

	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the per-IP rate limiter",
		},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(UpstreamRequests)
		prometheus.MustRegister(UpstreamDuration)
		prometheus.MustRegister(CourseFetchRetries)
		prometheus.MustRegister(VideoProgressUpdates)
		prometheus.MustRegister(StaleProgressResponses)
		prometheus.MustRegister(RateLimited)
	})
}

// ObserveUpstream 记录一次远端调用
func ObserveUpstream(operation, kind string, ok bool, elapsed time.Duration) {
	outcome := "ok"
	if !ok {
		outcome = kind
	}
	UpstreamRequests.WithLabelValues(operation, outcome).Inc()
	UpstreamDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
