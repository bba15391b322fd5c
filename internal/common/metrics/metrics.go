// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Total number of submission attempts by final state",
		},
		[]string{"state"},
	)

	ValidationViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_validation_violations_total",
			Help: "Total number of field violations by field and code",
		},
		[]string{"field", "code"},
	)

	DispatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_dispatch_failures_total",
			Help: "Total number of failed dispatches by error code",
		},
		[]string{"error_code"},
	)

	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_notification_failures_total",
			Help: "Total number of owner notifications that could not be delivered",
		},
		[]string{"driver", "error_code"},
	)

	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contact_dispatch_duration_seconds",
			Help:    "Duration of record creation plus notification in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	SubmissionsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "contact_submissions_in_flight",
			Help: "Number of submissions currently dispatching",
		},
	)
)
