// Package metrics provides Prometheus metrics for roster batch runs.
package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Allocation pass labels.
const (
	PassImpact = "impact"
	PassRange  = "range"
	PassForced = "forced"
)

// Manager owns the Prometheus collectors of a batch run.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Allocation
	teamsAllocated    prometheus.Counter
	numbersAssigned   *prometheus.CounterVec
	forcedDuplicates  prometheus.Counter
	unassignedPlayers *prometheus.CounterVec
	teamLatency       prometheus.Histogram

	// Equipment
	templatesApplied  prometheus.Counter
	templatesNotFound prometheus.Counter

	// Run
	rowsProcessed prometheus.Counter
	runDuration   prometheus.Histogram
	runErrors     *prometheus.CounterVec
	workerCount   prometheus.Gauge
	lastRunUnix   prometheus.Gauge

	// Queue
	queueDepth    prometheus.Gauge
	queueRejected *prometheus.CounterVec
	queueCapacity prometheus.Gauge
}

var (
	globalMu      sync.RWMutex
	globalManager *Manager //nolint:gochecknoglobals // singleton for package-level helpers

	// Custom registry to avoid default Go collectors.
	customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // shared registry
)

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rosterfix",
		subsystem:        "jersey",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.constLabels)

	m.teamsAllocated = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "teams_allocated_total",
		Help:        "Total number of teams whose jersey numbers were allocated",
		ConstLabels: labels,
	})

	m.numbersAssigned = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "numbers_assigned_total",
		Help:        "Jersey numbers assigned, by allocation pass",
		ConstLabels: labels,
	}, []string{"pass"})

	m.forcedDuplicates = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "forced_duplicates_total",
		Help:        "Jersey numbers assigned despite already being used on the team",
		ConstLabels: labels,
	})

	m.unassignedPlayers = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "unassigned_players_total",
		Help:        "Players left without a number because their position has no eligibility rule",
		ConstLabels: labels,
	}, []string{"position"})

	m.teamLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "team_allocation_milliseconds",
		Help:        "Time spent allocating a single team in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.templatesApplied = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "equipment",
		Name:        "templates_applied_total",
		Help:        "Rows that received an equipment template",
		ConstLabels: labels,
	})

	m.templatesNotFound = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "equipment",
		Name:        "templates_missing_total",
		Help:        "Rows whose position matched no equipment template",
		ConstLabels: labels,
	})

	m.rowsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "run",
		Name:        "rows_processed_total",
		Help:        "Roster rows processed by batch runs",
		ConstLabels: labels,
	})

	m.runDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "run",
		Name:        "duration_milliseconds",
		Help:        "Duration of a full batch run in milliseconds",
		Buckets:     []float64{1, 5, 10, 50, 100, 250, 500, 1000, 2500, 5000},
		ConstLabels: labels,
	})

	m.runErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "run",
		Name:        "errors_total",
		Help:        "Batch run failures by kind",
		ConstLabels: labels,
	}, []string{"kind"})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "run",
		Name:        "worker_count",
		Help:        "Number of allocation workers used by the last run",
		ConstLabels: labels,
	})

	m.lastRunUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "run",
		Name:        "last_success_unix",
		Help:        "Unix timestamp of the last successful run",
		ConstLabels: labels,
	})

	m.queueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "queue",
		Name:        "depth",
		Help:        "Team jobs waiting for a worker",
		ConstLabels: labels,
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "queue",
		Name:        "capacity",
		Help:        "Maximum number of queued team jobs",
		ConstLabels: labels,
	})

	m.queueRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "queue",
		Name:        "rejected_total",
		Help:        "Team jobs refused by the queue, by reason",
		ConstLabels: labels,
	}, []string{"reason"})
}

// RecordTeamAllocated counts a finished team and observes its latency.
func (m *Manager) RecordTeamAllocated(latencyMs float64) {
	m.teamsAllocated.Inc()
	m.teamLatency.Observe(latencyMs)
}

// AddNumbersAssigned adds n numbers assigned by pass.
func (m *Manager) AddNumbersAssigned(pass string, n int) {
	if n <= 0 {
		return
	}
	m.numbersAssigned.WithLabelValues(pass).Add(float64(n))
}

// AddForcedDuplicates adds n forced duplicates.
func (m *Manager) AddForcedDuplicates(n int) {
	if n <= 0 {
		return
	}
	m.forcedDuplicates.Add(float64(n))
	m.numbersAssigned.WithLabelValues(PassForced).Add(float64(n))
}

// AddUnassigned adds n unassigned players for position.
func (m *Manager) AddUnassigned(position int, n int) {
	if n <= 0 {
		return
	}
	m.unassignedPlayers.WithLabelValues(fmt.Sprint(position)).Add(float64(n))
}

// AddTemplates adds the template outcomes of a whole roster.
func (m *Manager) AddTemplates(applied, missing int) {
	if applied > 0 {
		m.templatesApplied.Add(float64(applied))
	}
	if missing > 0 {
		m.templatesNotFound.Add(float64(missing))
	}
}

// RecordRun observes a finished run.
func (m *Manager) RecordRun(rows int, durationMs float64, finishedUnix int64) {
	m.rowsProcessed.Add(float64(rows))
	m.runDuration.Observe(durationMs)
	m.lastRunUnix.Set(float64(finishedUnix))
}

// RecordRunError counts a failed run by kind.
func (m *Manager) RecordRunError(kind string) {
	m.runErrors.WithLabelValues(kind).Inc()
}

// UpdateWorkerCount sets the worker gauge.
func (m *Manager) UpdateWorkerCount(n int) {
	m.workerCount.Set(float64(n))
}

// UpdateQueue sets the queue depth and capacity gauges.
func (m *Manager) UpdateQueue(depth, capacity int) {
	m.queueDepth.Set(float64(depth))
	m.queueCapacity.Set(float64(capacity))
}

// RecordQueueRejected counts a refused job by reason.
func (m *Manager) RecordQueueRejected(reason string) {
	m.queueRejected.WithLabelValues(reason).Inc()
}

func current() *Manager {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalManager
}

// RecordTeamAllocated records a finished team on the global manager.
func RecordTeamAllocated(latencyMs float64) { current().RecordTeamAllocated(latencyMs) }

// AddNumbersAssigned records assigned numbers on the global manager.
func AddNumbersAssigned(pass string, n int) { current().AddNumbersAssigned(pass, n) }

// AddForcedDuplicates records forced duplicates on the global manager.
func AddForcedDuplicates(n int) { current().AddForcedDuplicates(n) }

// AddUnassigned records unassigned players on the global manager.
func AddUnassigned(position int, n int) { current().AddUnassigned(position, n) }


// AddTemplates records template outcomes on the global manager.
func AddTemplates(applied, missing int) { current().AddTemplates(applied, missing) }

// RecordRun records a finished run on the global manager.
func RecordRun(rows int, durationMs float64, finishedUnix int64) {
	current().RecordRun(rows, durationMs, finishedUnix)
}

// RecordRunError records a failed run on the global manager.
func RecordRunError(kind string) { current().RecordRunError(kind) }

// UpdateWorkerCount sets the worker gauge on the global manager.
func UpdateWorkerCount(n int) { current().UpdateWorkerCount(n) }

// UpdateQueue sets the queue gauges on the global manager.
func UpdateQueue(depth, capacity int) { current().UpdateQueue(depth, capacity) }

// RecordQueueRejected counts a refused job on the global manager.
func RecordQueueRejected(reason string) { current().RecordQueueRejected(reason) }

// GetRegistry returns the custom Prometheus registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile writes the custom registry in the text exposition format,
// suitable for the node exporter textfile collector.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return nil
}
