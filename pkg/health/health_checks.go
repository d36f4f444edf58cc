package health

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// StoreCheck creates a health check for graph store connectivity
func StoreCheck(pingFunc func(ctx context.Context) error) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{
			Name: "store",
		}

		if err := pingFunc(ctx); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		} else {
			check.Status = StatusHealthy
			check.Message = "Connected"
		}

		return check
	}
}

// AnalyticsCheck creates a health check for analytics freshness. Scores are
// degraded rather than unhealthy when stale: the engine still serves
// flag-based verdicts without them.
func AnalyticsCheck(lastSuccess func() (time.Time, bool), maxAge time.Duration) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{
			Name:    "analytics",
			Details: make(map[string]any),
		}

		at, ran := lastSuccess()
		check.Details["has_run"] = ran

		if !ran {
			check.Status = StatusDegraded
			check.Message = "Analytics pipeline has never completed"
			return check
		}

		age := time.Since(at)
		check.Details["last_success"] = at
		check.Details["age_seconds"] = age.Seconds()

		if maxAge > 0 && age > maxAge {
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("Scores are %s old", age.Round(time.Second))
		} else {
			check.Status = StatusHealthy
			check.Message = "Scores are fresh"
		}

		return check
	}
}

// MemoryCheck creates a health check for memory usage. The in-memory
// projection is the engine's dominant allocation.
func MemoryCheck() CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{
			Name:    "memory",
			Details: make(map[string]any),
		}

		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)

		check.Details["alloc_bytes"] = stats.Alloc
		check.Details["sys_bytes"] = stats.Sys

		usagePercent := float64(stats.Alloc) / float64(stats.Sys) * 100
		if usagePercent > 90 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}

		return check
	}
}
