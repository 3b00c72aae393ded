// File: pool/default.go
// Author: momentics <momentics@gmail.com>

package pool

import (
	"sync"

	"github.com/momentics/hioload-udfbuf/control"
	"github.com/momentics/hioload-udfbuf/internal/normalize"
)

var (
	defaultOnce  sync.Once
	defaultAlloc Allocator
)

// Default returns the process-wide mmap allocator so buffers that are not
// given an allocator share one accounting domain.
func Default() Allocator {
	defaultOnce.Do(func() {
		defaultAlloc = NewMmapAllocator()
	})
	return defaultAlloc
}

// FromConfig builds the allocator described by cfg: backend, then byte
// budget, then optional recycling.
func FromConfig(cfg control.Config) Allocator {
	var a Allocator
	switch cfg.AllocBackend {
	case control.BackendHeap:
		a = NewHeapAllocator()
	case control.BackendMmap:
		a = NewMmapAllocator()
	default:
		logf("unknown allocator backend %q, using mmap", cfg.AllocBackend)
		a = NewMmapAllocator()
	}
	a = WithLimit(a, normalize.ByteBudget(cfg.AllocMaxBytes))
	return NewRecycler(a, normalize.CacheDepth(cfg.AllocRecycle))
}

// Publish copies the allocator's stats into reg under the given prefix.
func Publish(reg *control.MetricsRegistry, prefix string, a Allocator) {
	s := a.Stats()
	reg.Set(prefix+".allocs", s.Allocs)
	reg.Set(prefix+".frees", s.Frees)
	reg.Set(prefix+".bytes_in_use", s.BytesInUse)
	reg.Set(prefix+".peak_bytes", s.PeakBytes)
	reg.Set(prefix+".failures", s.Failures)
	if rc, ok := a.(*Recycler); ok {
		hits, misses, cached := rc.CacheStats()
		reg.Set(prefix+".recycle.hits", hits)
		reg.Set(prefix+".recycle.misses", misses)
		reg.Set(prefix+".recycle.cached_bytes", cached)
	}
}
