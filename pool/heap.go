// File: pool/heap.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// GC-managed aligned allocation: over-allocate one block and slice to the
// first aligned address.

package pool

import (
	"unsafe"

	"github.com/momentics/hioload-udfbuf/api"
)

type heapAllocator struct {
	stats counters
}

// NewHeapAllocator returns an allocator backed by the Go heap.
// Free only updates accounting; the GC reclaims the memory.
func NewHeapAllocator() Allocator {
	return &heapAllocator{}
}

func (h *heapAllocator) Alloc(size int) (*Region, error) {
	if err := checkSize(size); err != nil {
		h.stats.failures.Add(1)
		return nil, err
	}
	n := RoundUp(size)
	raw := make([]byte, n+BlockSize)
	base := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	off := int((BlockSize - base%BlockSize) % BlockSize)
	back := raw[off : off+n : off+n]
	h.stats.onAlloc(n)
	return newRegion(back, raw, size), nil
}

func (h *heapAllocator) Free(r *Region) error {
	if r == nil {
		return api.NewError(api.ErrCodeInvalidArgument, "nil region")
	}
	if !r.freed.CompareAndSwap(false, true) {
		return errDoubleFree()
	}
	h.stats.onFree(r.Cap())
	r.buf, r.back, r.raw = nil, nil, nil
	return nil
}

func (h *heapAllocator) Stats() api.AllocStats { return h.stats.snapshot() }
