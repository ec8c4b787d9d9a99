// Package monitoring exposes Prometheus metrics for the HTTP surface and the
// analysis engine.
package monitoring

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector owns a private registry so several collectors (tests,
// embedded servers) can coexist in one process.
type MetricsCollector struct {
	serviceName string
	registry    *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	activeConnections   prometheus.Gauge

	// Engine metrics
	FeaturesExtracted *prometheus.CounterVec
	AlertsRaised      *prometheus.CounterVec
	ClustersPlanned   prometheus.Counter
	ReportKeywords    prometheus.Histogram
}

// NewMetricsCollector creates a collector whose metric names are prefixed
// with serviceName.
func NewMetricsCollector(serviceName, version string) *MetricsCollector {
	mc := &MetricsCollector{
		serviceName: strings.ReplaceAll(serviceName, "-", "_"),
		registry:    prometheus.NewRegistry(),
	}

	mc.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: mc.serviceName + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	mc.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    mc.serviceName + "_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
	mc.activeConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: mc.serviceName + "_active_connections",
		Help: "Number of active connections",
	})
	serviceInfo := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: mc.serviceName + "_service_info",
			Help: "Service information",
		},
		[]string{"version"},
	)

	mc.FeaturesExtracted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: mc.serviceName + "_features_extracted_total",
			Help: "Feature extractions by outcome",
		},
		[]string{"outcome"},
	)
	mc.AlertsRaised = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: mc.serviceName + "_alerts_raised_total",
			Help: "Ranking alerts raised",
		},
		[]string{"type", "severity"},
	)
	mc.ClustersPlanned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: mc.serviceName + "_clusters_planned_total",
		Help: "Content clusters planned",
	})
	mc.ReportKeywords = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    mc.serviceName + "_report_keywords",
		Help:    "Keywords per ranking report",
		Buckets: prometheus.ExponentialBuckets(1, 4, 6),
	})

	mc.registry.MustRegister(
		mc.httpRequestsTotal,
		mc.httpRequestDuration,
		mc.activeConnections,
		serviceInfo,
		mc.FeaturesExtracted,
		mc.AlertsRaised,
		mc.ClustersPlanned,
		mc.ReportKeywords,
	)
	serviceInfo.WithLabelValues(version).Set(1)
	return mc
}

// Registry returns the collector's registry.
func (mc *MetricsCollector) Registry() *prometheus.Registry { return mc.registry }

// MetricsMiddleware returns middleware that collects HTTP metrics
func (mc *MetricsCollector) MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		mc.activeConnections.Inc()
		defer mc.activeConnections.Dec()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		mc.httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		mc.httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler returns the Prometheus metrics HTTP handler
func (mc *MetricsCollector) Handler() gin.HandlerFunc {
	handler := promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}
