// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TimeLimitChecks counts screen-time checks by resulting state
	TimeLimitChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coreadability_time_limit_checks_total",
			Help: "Screen-time limit checks by resulting state",
		},
		[]string{"state"},
	)

	// ForcedLogouts counts sessions ended because the daily limit was exceeded
	ForcedLogouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coreadability_forced_logouts_total",
			Help: "Sessions ended because the daily limit was exceeded",
		},
		[]string{"source"}, // login, watcher
	)

	// UsageSecondsRecorded counts seconds written to the usage ledger
	UsageSecondsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coreadability_usage_seconds_recorded_total",
			Help: "Seconds of child usage written to screen_usage",
		},
	)

	// UsageRowsReset counts usage rows deleted by day rollover or parent reset
	UsageRowsReset = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coreadability_usage_rows_reset_total",
			Help: "Usage rows deleted by rollover or reset",
		},
		[]string{"reason"}, // rollover, login, parent
	)

	// GenreSuggestions counts suggested genres by kind
	GenreSuggestions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coreadability_genre_suggestions_total",
			Help: "Genre suggestions surfaced to children",
		},
		[]string{"kind"}, // favorites, random
	)

	// ChatBackendRequests counts chat backend calls by outcome
	ChatBackendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coreadability_chat_backend_requests_total",
			Help: "Chat backend requests by outcome",
		},
		[]string{"outcome"}, // ok, error, breaker_open
	)

	// ActiveWatchers is the number of open screen-time WebSocket watchers
	ActiveWatchers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coreadability_active_screen_time_watchers",
			Help: "Open screen-time WebSocket watchers",
		},
	)

	// HTTPRequestDuration observes API latency
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coreadability_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
