package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Storage, cache and external calls timed through obs.Time.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "operation_duration_seconds",
			Help:    "Duration of internal operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 10},
		},
		[]string{"op", "status"},
	)

	AnalysisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analysis_pass_seconds",
			Help:    "Duration of one analysis pass",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	DevicesAnalyzed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "devices_analyzed",
			Help: "Devices covered by the latest analysis pass",
		},
	)

	DevicesDue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "devices_due_for_pickup",
			Help: "Devices predicted full within the pickup window",
		},
	)

	DevicesLowFillRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "devices_low_fill_rate",
			Help: "Devices filling slower than the low fill-rate limit",
		},
	)

	AnomaliesReported = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "insight_anomalies_total",
			Help: "Out-of-range readings reported by insight queries",
		},
	)

	InsightCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_cache_requests_total",
			Help: "Insight cache lookups by result",
		},
		[]string{"result"},
	)

	RouteTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_transitions_total",
			Help: "Route lifecycle transitions by kind and outcome",
		},
		[]string{"transition", "outcome"},
	)

	ReadingsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "readings_ingested_total",
			Help: "Fill-level readings accepted from hardware",
		},
	)

	TelemetryReports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_reports_total",
			Help: "Hardware reports by device kind and whether the device was known",
		},
		[]string{"kind", "result"},
	)
)
