package asyncsystem

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the asynchronous backend. The "system" label carries
// the name given to New (or the generated default); lifecycle counters also
// carry the actor's execution class.

var (
	actorsStarted = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Namespace: "actorsys",
		Subsystem: "async",
		Name:      "actors_started_total",
		Help:      "The total number of actors started",
	}, []string{"system", "class"})

	actorsStopped = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Namespace: "actorsys",
		Subsystem: "async",
		Name:      "actors_stopped_total",
		Help:      "The total number of actors stopped",
	}, []string{"system", "class"})

	actorsAlive = promauto.NewGaugeVec(prometheus.GaugeOpts{ //nolint:gochecknoglobals
		Namespace: "actorsys",
		Subsystem: "async",
		Name:      "actors_alive",
		Help:      "The number of actors currently running",
	}, []string{"system", "class"})

	messagesDelivered = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Namespace: "actorsys",
		Subsystem: "async",
		Name:      "messages_delivered_total",
		Help:      "The total number of messages delivered to peer inboxes",
	}, []string{"system"})

	timeoutsExpired = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Namespace: "actorsys",
		Subsystem: "async",
		Name:      "timeouts_expired_total",
		Help:      "The total number of deadline waits that expired without a message",
	}, []string{"system"})

	hookPanics = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Namespace: "actorsys",
		Subsystem: "async",
		Name:      "hook_panics_total",
		Help:      "The total number of panics recovered from actor hooks",
	}, []string{"system"})

	terminalsCollected = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Namespace: "actorsys",
		Subsystem: "async",
		Name:      "terminals_collected_total",
		Help:      "The total number of terminal values collected by drivers",
	}, []string{"system"})

	stepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{ //nolint:gochecknoglobals
		Namespace: "actorsys",
		Subsystem: "async",
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
