// Package metrics defines the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Verification metrics
	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sparkgate_verifications_total",
			Help: "Sign-in verification attempts by outcome",
		},
		[]string{"result"}, // "valid", "invalid", "malformed"
	)

	LedgerWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sparkgate_ledger_write_failures_total",
			Help: "Best-effort signature ledger inserts that failed",
		},
	)

	// Authentication metrics
	AuthDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sparkgate_auth_denials_total",
			Help: "Authentication denials by internal stage",
		},
		[]string{"stage"}, // "shape", "storage", "no_session"
	)

	AuthSuccesses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sparkgate_auth_successes_total",
			Help: "Requests authenticated from the signature ledger",
		},
	)

	// Cache refresher metrics
	SweepRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sparkgate_cache_sweep_runs_total",
			Help: "Cache refresh sweeps started",
		},
	)

	SweepEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sparkgate_cache_sweep_evictions_total",
			Help: "Non-terminal snapshots evicted per category",
		},
		[]string{"category"},
	)

	SweepErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sparkgate_cache_sweep_errors_total",
			Help: "Units skipped during sweeps due to errors",
		},
		[]string{"category"},
	)
)
