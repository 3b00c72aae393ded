// File: pool/recycle.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Size-class recycling on top of another allocator. Freed regions are kept
// in a bounded per-class channel and handed out again, zero-filled, to the
// next allocation of the same block count. Partition buffers of equal shape
// thus cycle through the same memory across partitions.

package pool

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-udfbuf/api"
)

// Recycler is an Allocator that caches freed regions.
type Recycler struct {
	inner    Allocator
	perClass int

	mu      sync.Mutex
	classes map[int]chan *Region

	stats  counters
	hits   atomic.Int64
	misses atomic.Int64
	cached atomic.Int64 // bytes parked in classes
}

// NewRecycler caches up to perClass regions per block count. perClass <= 0
// returns inner unchanged.
func NewRecycler(inner Allocator, perClass int) Allocator {
	if perClass <= 0 {
		return inner
	}
	return &Recycler{
		inner:    inner,
		perClass: perClass,
		classes:  make(map[int]chan *Region),
	}
}

func (rc *Recycler) class(n int) chan *Region {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	ch, ok := rc.classes[n]
	if !ok {
		ch = make(chan *Region, rc.perClass)
		rc.classes[n] = ch
	}
	return ch
}

// Alloc reuses a cached region of the same block count when one is parked.
func (rc *Recycler) Alloc(size int) (*Region, error) {
	if err := checkSize(size); err != nil {
		rc.stats.failures.Add(1)
		return nil, err
	}
	n := RoundUp(size)
	select {
	case r := <-rc.class(n):
		rc.cached.Add(-int64(n))
		clear(r.back)
		r.buf = r.back[:size:size]
		r.freed.Store(false)
		rc.hits.Add(1)
		rc.stats.onAlloc(n)
		return r, nil
	default:
	}
	r, err := rc.inner.Alloc(size)
	if err != nil {
		rc.stats.failures.Add(1)
		return nil, err
	}
	rc.misses.Add(1)
	rc.stats.onAlloc(r.Cap())
	return r, nil
}

// Free parks r for reuse, or passes it to the inner allocator when its
// class is full.
func (rc *Recycler) Free(r *Region) error {
	if r == nil {
		return api.NewError(api.ErrCodeInvalidArgument, "nil region")
	}
	if !r.freed.CompareAndSwap(false, true) {
		return errDoubleFree()
	}
	n := r.Cap()
	rc.stats.onFree(n)
	select {
	case rc.class(n) <- r:
		rc.cached.Add(int64(n))
		return nil
	default:
	}
	r.freed.Store(false)
	return rc.inner.Free(r)
}

// Flush returns every cached region to the inner allocator.
func (rc *Recycler) Flush() error {
	rc.mu.Lock()
	classes := make([]chan *Region, 0, len(rc.classes))
	for _, ch := range rc.classes {
		classes = append(classes, ch)
	}
	rc.mu.Unlock()
	var first error
	for _, ch := range classes {
		for {
			var r *Region
			select {
			case r = <-ch:
			default:
			}
			if r == nil {
				break
			}
			rc.cached.Add(-int64(r.Cap()))
			r.freed.Store(false)
			if err := rc.inner.Free(r); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// Stats reports allocations as seen by callers; cached regions count as
// freed. Inner failures are included.
func (rc *Recycler) Stats() api.AllocStats {
	return rc.stats.snapshot()
}

// CacheStats returns hit, miss and parked-byte counters.
func (rc *Recycler) CacheStats() (hits, misses, cachedBytes int64) {
	return rc.hits.Load(), rc.misses.Load(), rc.cached.Load()
}
