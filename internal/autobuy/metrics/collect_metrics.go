package metrics

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

const collectInterval = 15 * time.Second

// StartMetricsCollection refreshes process gauges until ctx is cancelled.
func StartMetricsCollection(ctx context.Context) {
	go func() {
		proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
		if err != nil {
			proc = nil
		}

		ticker := time.NewTicker(collectInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				UptimeSeconds.Set(time.Since(startTime).Seconds())
				collectSystemMetrics(ctx, proc)
				collectPerformanceMetrics()
			}
		}
	}()
}

func collectSystemMetrics(ctx context.Context, proc *process.Process) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	GoroutinesActive.Set(float64(runtime.NumGoroutine()))
	GCDurationSeconds.Set(float64(memStats.PauseTotalNs) / 1e9)
	MemoryUsageBytes.Set(float64(memStats.Sys))

	if proc == nil {
		return
	}
	if mem, err := proc.MemoryInfoWithContext(ctx); err == nil {
		MemoryUsageBytes.Set(float64(mem.RSS))
	}
	if cpu, err := proc.CPUPercentWithContext(ctx); err == nil {
		CPUUsagePercent.Set(cpu)
	}
}

func collectPerformanceMetrics() {
	swapStatsLock.RLock()
	defer swapStatsLock.RUnlock()

	if totalSwaps > 0 {
		SwapSuccessRatePercent.Set(float64(successfulSwaps) / float64(totalSwaps) * 100)
	}
}

func TrackHTTPRequest(method, endpoint, statusCode string) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
}

func TrackDBRequest(collection, operation, status string) {
	DBRequestsTotal.WithLabelValues(collection, operation, status).Inc()
}

func TrackPollerTick(poller string, duration time.Duration, due int) {
	PollerTicksTotal.WithLabelValues(poller).Inc()
	PollerTickDurationSeconds.WithLabelValues(poller).Observe(duration.Seconds())
	PollerDueRecords.WithLabelValues(poller).Set(float64(due))
}

func TrackQueryError(poller string) {
	PollerQueryErrorsTotal.WithLabelValues(poller).Inc()
}

func TrackRecordOutcome(poller, outcome string) {
	RecordOutcomesTotal.WithLabelValues(poller, outcome).Inc()
}

func TrackLockContention(poller string) {
	LockContentionTotal.WithLabelValues(poller).Inc()
}

func TrackTaskExpired() {
	TasksExpiredTotal.Inc()
}

func TrackSwapError(kind string) {
	SwapErrorsTotal.WithLabelValues(kind).Inc()
}

// TrackSwapExecution records one finished swap attempt
func TrackSwapExecution(duration time.Duration, success bool) {
	swapStatsLock.Lock()
	defer swapStatsLock.Unlock()

	totalSwaps++
	if success {
		successfulSwaps++
	}

	swapDurations = append(swapDurations, duration.Seconds())
	if len(swapDurations) > 1000 {
		swapDurations = swapDurations[1:]
	}

	SwapExecutionTime.Observe(duration.Seconds())
}

// GetSwapStats returns totals and mean duration of recent swaps
func GetSwapStats() (total, successful int64, avgSeconds float64) {
	swapStatsLock.RLock()
	defer swapStatsLock.RUnlock()

	total = totalSwaps
	successful = successfulSwaps

	if len(swapDurations) > 0 {
		var sum float64
		for _, d := range swapDurations {
			sum += d
		}
		avgSeconds = sum / float64(len(swapDurations))
	}
	return
}
