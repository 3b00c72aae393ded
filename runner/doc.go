// Package runner drives a partitioned reduction in-process: it allocates
// dataset buffers, runs one executor task per partition with its own
// partition buffers, and merges the results from a single goroutine.
package runner
