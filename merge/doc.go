// Package merge folds per-partition result buffers into dataset-level
// buffers.
//
// Partition results are queued from any number of worker goroutines and
// drained by a single owner, in arrival order, through a per-buffer merge
// function (Assign for navigation results, Add for reductions).
package merge
