package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the per-turn conversation pipeline. Registered on the
// default registry and served by the transport at /metrics.
var (
	TurnsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chatrelay",
		Name:      "turns_started_total",
		Help:      "Number of conversation turns received.",
	})

	TurnsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chatrelay",
		Name:      "turns_completed_total",
		Help:      "Number of conversation turns that produced a reply.",
	})

	TurnsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatrelay",
		Name:      "turns_rejected_total",
		Help:      "Number of conversation turns rejected before invoking the model.",
	}, []string{"reason"})

	ModelFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chatrelay",
		Name:      "model_failures_total",
		Help:      "Number of failed model invocations.",
	})

	StoreErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chatrelay",
		Name:      "store_errors_total",
		Help:      "Number of failed key-value store operations.",
	})
)
