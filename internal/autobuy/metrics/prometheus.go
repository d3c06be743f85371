package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "autobuy"
	subsystem = "service"
)

var (
	startTime = time.Now()

	UptimeSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "uptime_seconds",
		Help:      "Time passed since the autobuy service started in seconds",
	})

	MemoryUsageBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "memory_usage_bytes",
		Help:      "Resident memory of the process",
	})

	CPUUsagePercent = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "cpu_usage_percent",
		Help:      "CPU utilization of the process",
	})

	GoroutinesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "goroutines_active",
		Help:      "Number of active goroutines",
	})

	GCDurationSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "gc_duration_seconds",
		Help:      "Total garbage collection pause time",
	})

	APIServerStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "api_server_status",
		Help:      "1 while the HTTP API is serving",
	})

	PollerTicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "poller",
		Name:      "ticks_total",
		Help:      "Polling iterations per poller",
	}, []string{"poller"})

	PollerTickDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "poller",
		Name:      "tick_duration_seconds",
		Help:      "Time taken by one polling iteration",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
	}, []string{"poller"})

	PollerDueRecords = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "poller",
		Name:      "due_records",
		Help:      "Records returned by the last due query",
	}, []string{"poller"})

	PollerQueryErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "poller",
		Name:      "query_errors_total",
		Help:      "Failed due-record queries",
	}, []string{"poller"})

	RecordOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "poller",
		Name:      "record_outcomes_total",
		Help:      "Records handled per poller by outcome (executed/failed/skipped/expired/error)",
	}, []string{"poller", "outcome"})

	LockContentionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "poller",
		Name:      "lock_contention_total",
		Help:      "Records skipped because another process holds their execution lock",
	}, []string{"poller"})

	TasksExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "poller",
		Name:      "tasks_expired_total",
		Help:      "Price tasks that expired before their target was reached",
	})

	SwapExecutionTime = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "swap",
		Name:      "execution_time_seconds",
		Help:      "Time from quote to mined receipt",
		Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
	})

	SwapErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "swap",
		Name:      "errors_total",
		Help:      "Swap failures by error kind",
	}, []string{"kind"})

	SwapSuccessRatePercent = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "swap",
		Name:      "success_rate_percent",
		Help:      "Share of swaps that reached a successful receipt",
	})

	DBRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "datastore",
		Name:      "requests_total",
		Help:      "Mongo operations by collection, operation and status",
	}, []string{"collection", "operation", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "http_requests_total",
		Help:      "HTTP API requests received",
	}, []string{"method", "endpoint", "status_code"})

	swapStatsLock   sync.RWMutex
	swapDurations   []float64
	successfulSwaps int64
	totalSwaps      int64
)
