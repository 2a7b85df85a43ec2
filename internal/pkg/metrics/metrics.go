// Package metrics exposes the registry's operation counters. Everything is
// registered on the default prometheus registry and served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bluecarbon_submissions_created_total",
		Help: "Submissions ingested, by initial status.",
	}, []string{"status"})

	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bluecarbon_submission_transitions_total",
		Help: "Applied submission status transitions, by target status.",
	}, []string{"to"})

	CreditsMinted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bluecarbon_credits_minted_total",
		Help: "Credit records minted from approved submissions.",
	})

	CreditsSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bluecarbon_credits_settled_total",
		Help: "Credit purchases settled to a buyer.",
	})

	BlockedOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bluecarbon_blocked_operations_total",
		Help: "Operations rejected by the registry control gate.",
	}, []string{"operation"})

	OracleFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bluecarbon_oracle_failures_total",
		Help: "Verifier calls that degraded to the fallback score.",
	})
)
