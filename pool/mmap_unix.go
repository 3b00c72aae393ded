//go:build unix

// File: pool/mmap_unix.go
// Author: momentics <momentics@gmail.com>
//
// Anonymous shared mappings. Mappings are page aligned and zero filled by
// the kernel; MAP_SHARED keeps them safe to hand to O_DIRECT reads.
// Regions dropped without Free are unmapped by a finalizer.

package pool

import (
	"errors"
	"runtime"

	"github.com/momentics/hioload-udfbuf/api"
	"golang.org/x/sys/unix"
)

type mmapAllocator struct {
	stats counters
}

// NewMmapAllocator returns an allocator backed by anonymous mappings.
func NewMmapAllocator() Allocator {
	if unix.Getpagesize() > BlockSize {
		logf("page size %d exceeds block size %d, mappings stay page aligned", unix.Getpagesize(), BlockSize)
	}
	return &mmapAllocator{}
}

func (m *mmapAllocator) Alloc(size int) (*Region, error) {
	if err := checkSize(size); err != nil {
		m.stats.failures.Add(1)
		return nil, err
	}
	n := RoundUp(size)
	data, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_SHARED)
	if err != nil {
		m.stats.failures.Add(1)
		code := api.ErrCodeInternal
		if errors.Is(err, unix.ENOMEM) || errors.Is(err, unix.EAGAIN) {
			code = api.ErrCodeResourceExhausted
		}
		return nil, api.Errorf(code, "mmap of %d bytes failed", n).WithCause(err)
	}
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
	err := unix.Munmap(r.raw)
	r.buf, r.back, r.raw = nil, nil, nil
	if err != nil {
		return api.NewError(api.ErrCodeInternal, "munmap failed").WithCause(err)
	}
	m.stats.onFree(n)
	return nil
}

// reclaim unmaps a region that became unreachable without Free. Regions
// parked by a Recycler count as live here.
func (m *mmapAllocator) reclaim(r *Region) {
	if r.raw == nil {
		return
	}
	n := r.Cap()
	logf("unmapping %d bytes that were never freed", n)
	err := unix.Munmap(r.raw)
	r.buf, r.back, r.raw = nil, nil, nil
	if err != nil {
		logf("munmap of leaked region failed: %v", err)
		return
	}
	m.stats.onFree(n)
}

func (m *mmapAllocator) Stats() api.AllocStats { return m.stats.snapshot() }
