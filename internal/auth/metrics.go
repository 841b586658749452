package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for authentication and session authorization.
var (
	// authDecisions counts gate outcomes by required access level.
	authDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "usersession_authorization_decisions_total",
		Help: "Total number of authorization gate decisions",
	}, []string{"access", "outcome"})

	// loginAttempts counts login outcomes.
	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "usersession_login_attempts_total",
		Help: "Total number of login attempts by outcome",
	}, []string{"outcome"})

	// sessionsOpened counts per-request session handles by whether the entry was new.
	sessionsOpened = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "usersession_sessions_opened_total",
		Help: "Total number of session handles opened",
	}, []string{"entry"})

	// danglingBindings counts sessions found bound to a deleted account.
	danglingBindings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usersession_dangling_bindings_total",
		Help: "Total number of session bindings that referenced a deleted account",
	})

	// sessionsSwept counts expired sessions removed by the sweeper.
	sessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usersession_sessions_swept_total",
		Help: "Total number of expired sessions removed",
	})

	// hashWaitSeconds tracks how long callers wait for a hashing slot.
	hashWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "usersession_hash_wait_seconds",
		Help:    "Histogram of time spent waiting for a password hashing slot",
		Buckets: prometheus.DefBuckets,
	})
)
