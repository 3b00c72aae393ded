//go:build !linux && !windows

// File: internal/concurrency/pin_other.go
// Author: momentics <momentics@gmail.com>

package concurrency

// pinCurrentThread is a no-op where thread affinity is unavailable;
// the worker stays locked to its OS thread.
func pinCurrentThread(cpuID int) error { return nil }
