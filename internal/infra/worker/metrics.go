package worker

import (
	"newslook/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ManagerMetrics provides Prometheus metrics for the crawler Manager and
// the Workers it supervises. It embeds the standard ConfigMetrics for
// configuration monitoring and adds per-cycle and per-source worker
// metrics. Rolling per-source health snapshots (last error, uptime,
// latency histogram) live in the lineage monitor, not here — these are
// counters a dashboard graphs over time, not a point-in-time status read.
type ManagerMetrics struct {
	*config.ConfigMetrics

	// WorkerRunsTotal counts completed Worker run cycles by source and
	// outcome (success/failure/cooldown).
	WorkerRunsTotal *prometheus.CounterVec

	// WorkerRunDurationSeconds measures how long one Worker run cycle
	// takes, labeled by source.
	WorkerRunDurationSeconds *prometheus.HistogramVec

	// ArticlesIngestedTotal counts articles handed to the ingestion
	// pipeline by source and result (stored/duplicate/invalid).
	ArticlesIngestedTotal *prometheus.CounterVec

	// ConsecutiveFailures tracks the current consecutive-failure count
	// per source, reset to 0 on any success.
	ConsecutiveFailures *prometheus.GaugeVec

	// WorkersActive is the number of Workers currently in the running
	// state.
	WorkersActive prometheus.Gauge

	// CooldownTransitionsTotal counts how many times a source has been
	// pushed into cooldown after tripping MaxConsecutiveFailures.
	CooldownTransitionsTotal *prometheus.CounterVec
}

// NewManagerMetrics creates a new ManagerMetrics instance. Metrics are
// registered automatically via promauto.
func NewManagerMetrics() *ManagerMetrics {
	return &ManagerMetrics{
		ConfigMetrics: config.NewConfigMetrics("crawler_manager"),

		WorkerRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_worker_runs_total",
			Help: "Total number of worker run cycles by source and outcome",
		}, []string{"source", "outcome"}),

		WorkerRunDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crawler_worker_run_duration_seconds",
			Help:    "Duration of a worker run cycle in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),

		ArticlesIngestedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_articles_ingested_total",
			Help: "Total number of articles handed to the ingestion pipeline by source and result",
		}, []string{"source", "result"}),

		ConsecutiveFailures: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "crawler_worker_consecutive_failures",
			Help: "Current consecutive fetch failure count per source",
		}, []string{"source"}),

		WorkersActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "crawler_workers_active",
			Help: "Number of workers currently in the running state",
		}),

		CooldownTransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_worker_cooldown_transitions_total",
			Help: "Total number of times a source entered cooldown after tripping the consecutive failure threshold",
		}, []string{"source"}),
	}
}

// MustRegister is a no-op kept for API compatibility; metrics are
// auto-registered via promauto when created in NewManagerMetrics.
func (m *ManagerMetrics) MustRegister() {}

// RecordRun records the outcome of one Worker run cycle and its duration.
func (m *ManagerMetrics) RecordRun(source, outcome string, seconds float64) {
	m.WorkerRunsTotal.WithLabelValues(source, outcome).Inc()
	m.WorkerRunDurationSeconds.WithLabelValues(source).Observe(seconds)
}

// RecordIngestResult increments the per-source, per-result ingestion
// counter.
func (m *ManagerMetrics) RecordIngestResult(source, result string) {
	m.ArticlesIngestedTotal.WithLabelValues(source, result).Inc()
}

// SetConsecutiveFailures updates the current consecutive-failure gauge
// for a source.
func (m *ManagerMetrics) SetConsecutiveFailures(source string, count int) {
	m.ConsecutiveFailures.WithLabelValues(source).Set(float64(count))
}

// RecordCooldownTransition increments the cooldown-transition counter
// for a source.
func (m *ManagerMetrics) RecordCooldownTransition(source string) {
	m.CooldownTransitionsTotal.WithLabelValues(source).Inc()
}

// SetWorkersActive sets the gauge of currently-running workers.
func (m *ManagerMetrics) SetWorkersActive(n int) {
	m.WorkersActive.Set(float64(n))
}
