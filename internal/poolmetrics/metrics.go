// Package poolmetrics registers the Prometheus series the pool, router,
// and mesh layers publish, sibling to internal/httpapi's HTTP metrics and
// following the same naming convention.
package poolmetrics

import "github.com/prometheus/client_golang/prometheus"

var (
	JobsRequestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poold",
			Subsystem: "pool",
			Name:      "jobs_requested_total",
			Help:      "Total jobs submitted to a pool",
		},
		[]string{"pool"},
	)

	JobsQueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poold",
			Subsystem: "pool",
			Name:      "jobs_queued_total",
			Help:      "Total jobs that had to wait on waitingJobs",
		},
		[]string{"pool"},
	)

	QueueRate = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "poold",
			Subsystem: "pool",
			Name:      "queue_rate",
			Help:      "round(100*jobsQueued/jobsRequested) for a pool",
		},
		[]string{"pool"},
	)

	TotalThreads = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "poold",
			Subsystem: "pool",
			Name:      "total_threads",
			Help:      "Live Threads in a pool",
		},
		[]string{"pool"},
	)

	FreeThreads = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "poold",
			Subsystem: "pool",
			Name:      "free_threads",
			Help:      "Idle Threads in a pool",
		},
		[]string{"pool"},
	)

	PoolState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "poold",
			Subsystem: "pool",
			Name:      "pool_state",
			Help:      "1 for the pool's current lifecycle state, 0 otherwise",
		},
		[]string{"pool", "state"},
	)

	DrainDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "poold",
			Subsystem: "pool",
			Name:      "drain_duration_seconds",
			Help:      "Time spent in Drain until noJobsRunning or timeout",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"pool"},
	)

	MeshReconnectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poold",
			Subsystem: "mesh",
			Name:      "reconnects_total",
			Help:      "Total MeshUplink (re)connections dialed",
		},
		[]string{},
	)
)

func init() {
	prometheus.MustRegister(
		JobsRequestedTotal,
		JobsQueuedTotal,
		QueueRate,
		TotalThreads,
		FreeThreads,
		PoolState,
		DrainDurationSeconds,
		MeshReconnectsTotal,
	)
}

// the four lifecycle states a pool_state gauge row may report.
var states = []string{"open", "closed", "drained", "stopped"}

// SetPoolState zeroes every state row for pool except the current one.
func SetPoolState(pool, current string) {
	for _, s := range states {
		v := 0.0
		if s == current {
			v = 1.0
		}
		PoolState.WithLabelValues(pool, s).Set(v)
	}
}

// ObserveStatus records a pool's status snapshot onto the gauges above.
// Called by pool.Registry.ObserveMetrics, which cmd/poold polls every 2s.
func ObserveStatus(pool string, totalThreads, freeThreads, queueRate int) {
	TotalThreads.WithLabelValues(pool).Set(float64(totalThreads))
	FreeThreads.WithLabelValues(pool).Set(float64(freeThreads))
	QueueRate.WithLabelValues(pool).Set(float64(queueRate))
}
