package api

import (
	"github.com/prometheus/client_golang/prometheus"
)

const httpAPIMetricsNamespace = "http_api"

var (
	metricApiTotalRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: httpAPIMetricsNamespace,
			Name:      "total_hits",
			Help:      "Ledger HTTP API requests count",
		},
	)

	metricApiInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: httpAPIMetricsNamespace,
			Name:      "in_flight",
			Help:      "Ledger HTTP API requests being served",
		},
	)

	metricApiHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: httpAPIMetricsNamespace,
			Name:      "path_hits",
			Help:      "Ledger HTTP API paths hits",
		},
		[]string{"status", "path"},
	)

	metricApiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: httpAPIMetricsNamespace,
			Name:      "path_duration",
			Help:      "Ledger HTTP API request duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(
		metricApiTotalRequests,
		metricApiInFlight,
		metricApiHits,
		metricApiRequestDuration,
	)
}
