package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rws_upstream_calls_total",
			Help: "Total calls to the auth service and weather provider",
		},
		[]string{"upstream", "status"},
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rws_upstream_latency_seconds",
			Help:    "Upstream call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"upstream"},
	)

	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rws_requests_total",
			Help: "Total handled HTTP requests",
		},
		[]string{"route", "status"},
	)

	EventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rws_telemetry_events_dropped_total",
			Help: "Telemetry events that could not be delivered to the sink",
		},
	)
)
