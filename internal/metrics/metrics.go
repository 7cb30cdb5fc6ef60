// Package metrics registers the application's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	AuditWriteFailures prometheus.Counter
	StatsReports       prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gn_registry_http_requests_total",
			Help: "HTTP requests handled, by method and status class.",
		}, []string{"method", "status"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gn_registry_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		AuditWriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gn_registry_audit_write_failures_total",
			Help: "Audit records that failed to append.",
		}),
		StatsReports: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gn_registry_stats_reports_total",
			Help: "Statistics reports computed.",
		}),
	}
}
