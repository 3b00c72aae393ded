// File: pool/aligned.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Block-aligned storage for reduction buffers. Every region starts on a
// BlockSize boundary and is backed by a whole number of blocks, so it can be
// handed to direct I/O and vectorised kernels without copying.

package pool

import (
	"log"
	"sync/atomic"
	"unsafe"

	"github.com/momentics/hioload-udfbuf/api"
	"golang.org/x/sys/cpu"
)

// BlockSize is the allocation granularity and base-address alignment.
const BlockSize = 4096

// logf reports allocator fallbacks; replaceable in tests.
var logf = func(format string, args ...any) {
	log.Printf("[pool] "+format, args...)
}

// Allocator hands out block-aligned regions.
type Allocator interface {
	// Alloc returns a zero-filled region of exactly size bytes.
	Alloc(size int) (*Region, error)
	// Free returns the region's memory. Freeing twice is an error.
	Free(r *Region) error
	// Stats reports allocation accounting.
	Stats() api.AllocStats
}

// Region is one aligned allocation.
type Region struct {
	buf   []byte // exactly the requested size
	back  []byte // whole aligned blocks
	raw   []byte // what the backend must release
	freed atomic.Bool
}

// Bytes returns the requested bytes; the aligned tail is not exposed.
func (r *Region) Bytes() []byte { return r.buf }

// Len returns the requested size.
func (r *Region) Len() int { return len(r.buf) }

// Cap returns the size of the aligned backing blocks.
func (r *Region) Cap() int { return len(r.back) }

// Aligned reports whether the base address sits on a block boundary.
func (r *Region) Aligned() bool {
	return uintptr(unsafe.Pointer(unsafe.SliceData(r.back)))%BlockSize == 0
}

// Freed reports whether the region was returned to its allocator.
func (r *Region) Freed() bool { return r.freed.Load() }

func newRegion(back, raw []byte, size int) *Region {
	return &Region{buf: back[:size:size], back: back, raw: raw}
}

// RoundUp rounds size up to whole blocks, with a minimum of one block.
func RoundUp(size int) int {
	blocks := (size + BlockSize - 1) / BlockSize
	if blocks == 0 {
		blocks = 1
	}
	return blocks * BlockSize
}

func checkSize(size int) error {
	if size < 0 {
		return api.Errorf(api.ErrCodeInvalidArgument, "negative allocation size %d", size)
	}
	if size > maxAlloc-BlockSize {
		return api.Errorf(api.ErrCodeResourceExhausted, "allocation of %d bytes exceeds address space", size)
	}
	return nil
}

const maxAlloc = int(^uint(0) >> 1)

// counters is shared accounting for all backends.
type counters struct {
	allocs   atomic.Int64
	frees    atomic.Int64
	_        cpu.CacheLinePad
	inUse    atomic.Int64
	peak     atomic.Int64
	failures atomic.Int64
}

func (c *counters) onAlloc(n int) {
	c.allocs.Add(1)
	cur := c.inUse.Add(int64(n))
	for {
		p := c.peak.Load()
		if cur <= p || c.peak.CompareAndSwap(p, cur) {
			return
		}
	}
}

func (c *counters) onFree(n int) {
	c.frees.Add(1)
	c.inUse.Add(-int64(n))
}

func (c *counters) snapshot() api.AllocStats {
	return api.AllocStats{
		Allocs:     c.allocs.Load(),
		Frees:      c.frees.Load(),
		BytesInUse: c.inUse.Load(),
		PeakBytes:  c.peak.Load(),
		Failures:   c.failures.Load(),
	}
}

func errDoubleFree() error {
	return api.NewError(api.ErrCodeContractViolation, "region already freed")
}
