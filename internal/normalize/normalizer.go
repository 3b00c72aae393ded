// File: internal/normalize/normalizer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Normalization of sizing parameters read from configuration: worker
// counts, CPU indices, queue depths and byte budgets. Invalid input falls
// back to a safe default and the event is logged.
//
// Example usage:
//
//   workers := normalize.Workers(cfg.Workers)
//   depth   := normalize.QueueDepth(cfg.MergeQueueHint, workers)

package normalize

import (
	"fmt"
	"runtime"
)

var (
	// For logging normalization events (can be replaced with structured logger).
	logNormalize = func(msg string, args ...any) {
		fmt.Printf("[normalize] "+msg+"\n", args...)
	}
)

// Workers returns requested if it is in [1, 4*NumCPU], NumCPU for
// requested <= 0, and the upper bound otherwise.
func Workers(requested int) int {
	cpus := runtime.NumCPU()
	if requested <= 0 {
		return cpus
	}
	if limit := 4 * cpus; requested > limit {
		logNormalize("worker count %d exceeds %d, clamped", requested, limit)
		return limit
	}
	return requested
}

// CPUIndex maps a worker slot onto a CPU in [0, maxCPUs).
//   - Slots past maxCPUs wrap around.
//   - Negative slots, or maxCPUs < 1, return 0.
func CPUIndex(slot int, maxCPUs int) int {
	if maxCPUs < 1 {
		logNormalize("CPU topology returned <1 cores, fallback to 0")
		return 0
	}
	if slot < 0 {
		logNormalize("negative CPU slot %d, fallback to 0", slot)
		return 0
	}
	return slot % maxCPUs
}

// QueueDepth returns hint when positive, else one slot per worker.
func QueueDepth(hint, workers int) int {
	if hint > 0 {
		return hint
	}
	if hint < 0 {
		logNormalize("queue depth %d is negative, using %d", hint, workers)
	}
	if workers < 1 {
		return 1
	}
	return workers
}

// ByteBudget maps negative budgets to 0 (unlimited).
func ByteBudget(requested int64) int64 {
	if requested < 0 {
		logNormalize("byte budget %d is negative, treated as unlimited", requested)
		return 0
	}
	return requested
}

// CacheDepth bounds per-class recycling depth to [0, 1024].
func CacheDepth(requested int) int {
	switch {
	case requested < 0:
		logNormalize("cache depth %d is negative, recycling disabled", requested)
		return 0
	case requested > 1024:
		logNormalize("cache depth %d clamped to 1024", requested)
		return 1024
	}
	return requested
}
