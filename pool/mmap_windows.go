//go:build windows

// File: pool/mmap_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// VirtualAlloc backed regions; allocations are 64 KiB granular and
// therefore block aligned. Regions dropped without Free are released by a
// finalizer.

package pool

import (
	"runtime"
	"unsafe"

	"github.com/momentics/hioload-udfbuf/api"
	"golang.org/x/sys/windows"
)

type mmapAllocator struct {
	stats counters
}

// NewMmapAllocator returns an allocator backed by VirtualAlloc.
func NewMmapAllocator() Allocator {
	return &mmapAllocator{}
}

func (m *mmapAllocator) Alloc(size int) (*Region, error) {
	if err := checkSize(size); err != nil {
		m.stats.failures.Add(1)
		return nil, err
	}
	n := RoundUp(size)
	addr, err := windows.VirtualAlloc(0, uintptr(n), windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if addr == 0 {
		m.stats.failures.Add(1)
		return nil, api.Errorf(api.ErrCodeResourceExhausted, "VirtualAlloc of %d bytes failed", n).WithCause(err)
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), n)
	m.stats.onAlloc(n)
	r := newRegion(data, data, size)
	runtime.SetFinalizer(r, m.reclaim)
	return r, nil
}

func (m *mmapAllocator) Free(r *Region) error {
	if r == nil {
		return api.NewError(api.ErrCodeInvalidArgument, "nil region")
	}
	if !r.freed.CompareAndSwap(false, true) {
		return errDoubleFree()
	}
	runtime.SetFinalizer(r, nil)
	n := r.Cap()
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(r.raw)))
	r.buf, r.back, r.raw = nil, nil, nil
	if err := windows.VirtualFree(addr, 0, windows.MEM_RELEASE); err != nil {
		return api.NewError(api.ErrCodeInternal, "VirtualFree failed").WithCause(err)
	}
	m.stats.onFree(n)
	return nil
}

func (m *mmapAllocator) reclaim(r *Region) {
	if r.raw == nil {
		return
	}
	n := r.Cap()
	logf("releasing %d bytes that were never freed", n)
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(r.raw)))
	r.buf, r.back, r.raw = nil, nil, nil
	if err := windows.VirtualFree(addr, 0, windows.MEM_RELEASE); err != nil {
		logf("VirtualFree of leaked region failed: %v", err)
		return
	}
	m.stats.onFree(n)
}

func (m *mmapAllocator) Stats() api.AllocStats { return m.stats.snapshot() }
