package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "quizkeep"

var (
	// StoreFailures counts local store operations that failed, by operation.
	StoreFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_failures_total",
		Help:      "Local store operations that failed.",
	}, []string{"op"})

	// MirrorFailures counts remote mirror writes that were dropped, by event name.
	MirrorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mirror_failures_total",
		Help:      "Remote mirror writes that failed and were dropped.",
	}, []string{"event"})

	SessionsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quiz_sessions_completed_total",
		Help:      "Quiz sessions that reached the completed state.",
	}, []string{"mode"})

	SessionsAborted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quiz_sessions_aborted_total",
		Help:      "Quiz sessions cancelled before completion.",
	}, []string{"mode"})
)
