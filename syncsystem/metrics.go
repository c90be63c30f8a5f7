package syncsystem

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the synchronous backend. The "system" label carries
// the name given to New (or the generated default).

var (
	actorsStarted = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Namespace: "actorsys",
		Subsystem: "sync",
		Name:      "actors_started_total",
		Help:      "The total number of actor workers started",
	}, []string{"system"})

	actorsStopped = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Namespace: "actorsys",
		Subsystem: "sync",
		Name:      "actors_stopped_total",
		Help:      "The total number of actor workers stopped",
	}, []string{"system"})

	actorsAlive = promauto.NewGaugeVec(prometheus.GaugeOpts{ //nolint:gochecknoglobals
		Namespace: "actorsys",
		Subsystem: "sync",
		Name:      "actors_alive",
		Help:      "The number of actor workers currently running",
	}, []string{"system"})

	messagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Namespace: "actorsys",
		Subsystem: "sync",
		Name:      "messages_processed_total",
		Help:      "The total number of messages delivered to actor steps",
	}, []string{"system"})

	timeoutsExpired = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Namespace: "actorsys",
		Subsystem: "sync",
		Name:      "timeouts_expired_total",
		Help:      "The total number of deadline waits that expired without a message",
	}, []string{"system"})

	hookPanics = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Namespace: "actorsys",
		Subsystem: "sync",
		Name:      "hook_panics_total",
		Help:      "The total number of panics recovered from actor hooks",
	}, []string{"system"})

	terminalsCollected = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Namespace: "actorsys",
		Subsystem: "sync",
		Name:      "terminals_collected_total",
		Help:      "The total number of terminal values collected by drivers",
	}, []string{"system"})

	stepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{ //nolint:gochecknoglobals
		Namespace: "actorsys",
		Subsystem: "sync",
		Name:      "step_duration_seconds",
		Help:      "The time spent inside a single actor step",
		Buckets: []float64{
			0.0001, // 100µs
			0.001,  // 1ms
			0.01,   // 10ms
			0.1,    // 100ms
			1,      // 1s
			10,     // 10s
		},
	}, []string{"system"})
)
