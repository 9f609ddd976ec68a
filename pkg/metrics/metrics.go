// Package metrics holds the Prometheus instrumentation for the activity log.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActivityLogWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_log_writes_total",
			Help: "Activity log writes by action and outcome",
		},
		[]string{"action", "outcome"}, // outcome: "ok", "error"
	)

	SensitiveRedactions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "activity_log_redactions_total",
			Help: "Text inputs stored as the redaction marker",
		},
	)

	ReferrerSources = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_referrer_sources_total",
			Help: "Persisted referrer events by source type",
		},
		[]string{"source_type"},
	)

	ThresholdNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_threshold_notifications_total",
			Help: "Threshold notification deliveries by outcome",
		},
		[]string{"outcome"}, // "sent", "failed"
	)

	ThresholdChecksDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "activity_threshold_checks_dropped_total",
			Help: "Threshold re-checks skipped because the dispatch queue was full",
		},
	)

	PermissionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_permission_transitions_total",
			Help: "Owner permission transitions by event and outcome",
		},
		[]string{"event", "outcome"}, // outcome: "applied", "rejected", "error"
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "activity_rate_limited_total",
			Help: "Public logging requests rejected by the rate limiter",
		},
	)
)
