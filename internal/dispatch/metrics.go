// Package dispatch drives publish attempts against the platform adapters.
//
// This file exposes the Prometheus instrumentation for dispatch outcomes.
// Labels are bounded by the closed platform set, keeping cardinality fixed.
package dispatch

import "github.com/prometheus/client_golang/prometheus"

var (
	// publishTotal counts publish attempts by platform and outcome.
	publishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "publish_attempts_total",
			Help: "Total number of publish attempts by platform and outcome.",
		},
		[]string{"platform", "outcome"},
	)

	// publishDuration records the duration of outbound publish calls.
	publishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "publish_duration_seconds",
			Help:    "Duration of outbound publish calls in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"platform"},
	)
)

func init() {
	prometheus.MustRegister(publishTotal, publishDuration)
}
