package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "gridstats_"

	// ResultSuccess labels a task that completed (including expected
	// skips on missing remote series).
	ResultSuccess = "success"
	// ResultError labels a task that hit a transport or aggregation
	// failure.
	ResultError = "error"
)

var (
	registerOnce sync.Once

	fetchTasks   *prometheus.CounterVec
	fetchLatency *prometheus.HistogramVec

	snapshotLoads  prometheus.Counter
	snapshotWrites prometheus.Counter

	statsComputed prometheus.Counter
	statsSkipped  *prometheus.CounterVec

	reportWrites *prometheus.CounterVec
)

// Init registers run metrics. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		fetchTasks = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fetch_tasks_total",
				Help: "Total fetch tasks by result",
			},
			[]string{"result"},
		)
		fetchLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "fetch_task_latency_seconds",
				Help:    "Fetch task latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		snapshotLoads = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "snapshot_loads_total",
				Help: "Total snapshot cache loads that bypassed fetching",
			},
		)
		snapshotWrites = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "snapshot_writes_total",
				Help: "Total snapshot cache writes",
			},
		)
		statsComputed = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "statistics_computed_total",
				Help: "Total statistic sets computed",
			},
		)
		statsSkipped = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "statistics_skipped_total",
				Help: "Total statistic sets skipped by reason",
			},
			[]string{"reason"},
		)
		reportWrites = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_writes_total",
				Help: "Total report files written by format",
			},
			[]string{"format"},
		)

		prometheus.MustRegister(
			fetchTasks,
			fetchLatency,
			snapshotLoads,
			snapshotWrites,
			statsComputed,
			statsSkipped,
			reportWrites,
		)
	})
}

// ObserveFetchTask records one fetch task outcome.
func ObserveFetchTask(result string, d time.Duration) {
	if fetchTasks == nil {
		return
	}
	fetchTasks.WithLabelValues(result).Inc()
	fetchLatency.WithLabelValues(result).Observe(d.Seconds())
}

// IncSnapshotLoad records a snapshot cache hit.
func IncSnapshotLoad() {
	if snapshotLoads != nil {
		snapshotLoads.Inc()
	}
}

// IncSnapshotWrite records a snapshot cache write.
func IncSnapshotWrite() {
	if snapshotWrites != nil {
		snapshotWrites.Inc()
	}
}

// IncStatsComputed records one computed statistic set.
func IncStatsComputed() {
	if statsComputed != nil {
		statsComputed.Inc()
	}
}

// IncStatsSkipped records one skipped statistic set by reason.
func IncStatsSkipped(reason string) {
	if statsSkipped != nil {
		statsSkipped.WithLabelValues(reason).Inc()
	}
}

// IncReportWrite records one written report file by format.
func IncReportWrite(format string) {
	if reportWrites != nil {
		reportWrites.WithLabelValues(format).Inc()
	}
}
