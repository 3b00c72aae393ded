// File: pool/limit.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Byte budget wrapper. Exceeding the budget is reported, never retried.

package pool

import (
	"sync/atomic"

	"github.com/momentics/hioload-udfbuf/api"
)

type limitAllocator struct {
	inner Allocator
	max   int64
	used  atomic.Int64
	// rejected counts allocations refused by the budget.
	rejected atomic.Int64
}

// WithLimit caps the backing bytes a may hold at once. maxBytes <= 0
// returns a unchanged.
func WithLimit(a Allocator, maxBytes int64) Allocator {
	if maxBytes <= 0 {
		return a
	}
	return &limitAllocator{inner: a, max: maxBytes}
}

func (l *limitAllocator) Alloc(size int) (*Region, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	n := int64(RoundUp(size))
	for {
		cur := l.used.Load()
		if cur+n > l.max {
			l.rejected.Add(1)
			return nil, api.Errorf(api.ErrCodeResourceExhausted,
				"allocation of %d bytes exceeds budget", n).
				WithContext("in_use", cur).
				WithContext("budget", l.max)
		}
		if l.used.CompareAndSwap(cur, cur+n) {
			break
		}
	}
	r, err := l.inner.Alloc(size)
	if err != nil {
		l.used.Add(-n)
		return nil, err
	}
	return r, nil
}

func (l *limitAllocator) Free(r *Region) error {
	if r == nil {
		return api.NewError(api.ErrCodeInvalidArgument, "nil region")
	}
	n := int64(r.Cap())
	if err := l.inner.Free(r); err != nil {
		return err
	}
	l.used.Add(-n)
	return nil
}

func (l *limitAllocator) Stats() api.AllocStats {
	s := l.inner.Stats()
	s.Failures += l.rejected.Load()
	return s
}
