package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Admin API request metrics, exposed on /metrics. Dispatch metrics go to
// CloudWatch from the worker; the HTTP surface uses Prometheus because the
// admin API runs as a long-lived process behind a scrape target in most
// deployments.
var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billmail_http_requests_total",
			Help: "Total HTTP requests handled by the admin API.",
		},
		[]string{"method", "route", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "billmail_http_request_duration_seconds",
			Help:    "HTTP request latency of the admin API.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
