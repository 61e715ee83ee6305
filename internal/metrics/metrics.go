// Package metrics holds the Prometheus instruments shared across the
// server. All collectors are registered with the default registry, so
// mounting promhttp.Handler() on /metrics exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SettingsRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settings_requests_total",
			Help: "Admin settings API requests by method and status code.",
		}, []string{"method", "code"})

	SettingsCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "settings_cache_hits_total",
			Help: "Admin settings reads served from Valkey.",
		})

	SettingsCacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "settings_cache_misses_total",
			Help: "Admin settings reads that fell through to PostgreSQL.",
		})

	WorkflowImagesEncodedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "workflow_images_encoded_total",
			Help: "Workflow preview images converted to data URLs.",
		})

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "code"})
)

func init() {
	prometheus.MustRegister(
		SettingsRequestsTotal,
		SettingsCacheHitsTotal,
		SettingsCacheMissesTotal,
		WorkflowImagesEncodedTotal,
		HTTPRequestDuration,
	)
}
