//go:build !unix && !windows

// File: pool/mmap_other.go
// Author: momentics <momentics@gmail.com>
//
// Platforms without anonymous mappings use the aligned heap allocator.

package pool

// NewMmapAllocator falls back to the heap allocator.
func NewMmapAllocator() Allocator {
	logf("anonymous mappings unsupported on this platform, using heap allocator")
	return NewHeapAllocator()
}
