package router

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var httpRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "sitedesk",
		Name:      "http_requests_total",
		Help:      "Number of HTTP requests served, by status code, method and route.",
	},
	[]string{"code", "method", "route"},
)

var httpDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "sitedesk",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds, by status code, method and route.",
	},
	[]string{"code", "method", "route"},
)

var collectors = []prometheus.Collector{httpRequests, httpDuration}

func registerPrometheusMetrics() error {
	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			return fmt.Errorf("could not register %s with Prometheus", c)
		}
	}

	return nil
}

// unregisterPrometheusMetrics removes the collectors from the default
// registry again so that Config can be called more than once per process.
func unregisterPrometheusMetrics() bool {
	for _, c := range collectors {
		if ok := prometheus.Unregister(c); !ok {
			return false
		}
	}

	return true
}

// MetricsMiddleware records a counter and a latency histogram per request.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// The route template keeps the label cardinality bounded. FullPath
		// is empty when no route matched, those requests are grouped.
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		code := strconv.Itoa(c.Writer.Status())
		elapsed := time.Since(start).Seconds()

		httpRequests.WithLabelValues(code, c.Request.Method, route).Inc()
		httpDuration.WithLabelValues(code, c.Request.Method, route).Observe(elapsed)
	}
}
