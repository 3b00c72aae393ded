// File: buffer/buffer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package buffer

import (
	"fmt"

	"github.com/momentics/hioload-udfbuf/api"
	"github.com/momentics/hioload-udfbuf/ndarray"
	"github.com/momentics/hioload-udfbuf/pool"
	"github.com/momentics/hioload-udfbuf/roi"
	"github.com/momentics/hioload-udfbuf/shape"
)

type state int

const (
	stateUnbound state = iota
	stateShapeBound
	stateAllocated
	stateReleased
)

func (s state) String() string {
	switch s {
	case stateUnbound:
		return "unbound"
	case stateShapeBound:
		return "shape-bound"
	case stateAllocated:
		return "allocated"
	case stateReleased:
		return "released"
	}
	return "invalid"
}

// Option configures a Buffer.
type Option func(*options)

type options struct {
	alloc pool.Allocator
}

// WithAllocator sets the allocator used by Allocate. Defaults to pool.Default().
func WithAllocator(a pool.Allocator) Option {
	return func(o *options) { o.alloc = a }
}

// Buffer is a dataset- or partition-shaped result array of T.
type Buffer[T api.Element] struct {
	kind  api.Kind
	extra []int
	alloc pool.Allocator
	state state

	// set by Bind*
	physical  []int       // allocated shape
	logical   []int       // shape without roi compaction
	index     *roi.Index  // dataset-level roi, nil selects all
	rows      roi.Mask    // part of the roi covering this buffer's rows
	navOrigin []int       // physical navigation origin of row 0
	sigDims   int         // signal dims of the bound source
	dataset   shape.Shape // zero unless bound to a dataset

	// set by Allocate / SetBuffer
	region *pool.Region
	raw    *ndarray.Array[T]
}

// New creates an unbound buffer. extra lists trailing axes appended after
// the kind-derived ones, e.g. []int{2} for a 2-vector per position.
func New[T api.Element](kind api.Kind, extra []int, opts ...Option) (*Buffer[T], error) {
	if !kind.Valid() {
		return nil, api.Errorf(api.ErrCodeInvalidArgument, "unknown kind: %d", int(kind))
	}
	for _, e := range extra {
		if e < 0 {
			return nil, api.Errorf(api.ErrCodeInvalidArgument, "negative extra extent in %v", extra)
		}
	}
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}
	if o.alloc == nil {
		o.alloc = pool.Default()
	}
	return &Buffer[T]{
		kind:  kind,
		extra: append([]int(nil), extra...),
		alloc: o.alloc,
	}, nil
}

// Kind returns the buffer kind.
func (b *Buffer[T]) Kind() api.Kind { return b.kind }

// ExtraShape returns a copy of the extra trailing axes.
func (b *Buffer[T]) ExtraShape() []int { return append([]int(nil), b.extra...) }

// DType names the element type.
func (b *Buffer[T]) DType() string { return api.TypeName[T]() }

// PhysicalShape returns the allocated shape; nil before binding.
func (b *Buffer[T]) PhysicalShape() []int { return append([]int(nil), b.physical...) }

// LogicalShape returns the shape Data produces; nil before binding.
func (b *Buffer[T]) LogicalShape() []int { return append([]int(nil), b.logical...) }

// HasROI reports whether a ROI was supplied at binding.
func (b *Buffer[T]) HasROI() bool { return b.index != nil }

// HasData reports whether storage is present.
func (b *Buffer[T]) HasData() bool { return b.state == stateAllocated }

// ROIIsZero reports whether the physical shape holds no elements, as when
// the ROI selects nothing.
func (b *Buffer[T]) ROIIsZero() bool {
	return b.state != stateUnbound && shape.Prod(b.physical) == 0
}

// Describe summarises the buffer for debug probes.
func (b *Buffer[T]) Describe() map[string]any {
	return map[string]any{
		"kind":     b.kind.String(),
		"dtype":    b.DType(),
		"state":    b.state.String(),
		"physical": b.PhysicalShape(),
		"logical":  b.LogicalShape(),
		"roi":      b.HasROI(),
	}
}

func (b *Buffer[T]) String() string {
	return fmt.Sprintf("Buffer(kind=%s, dtype=%s, shape=%v, state=%s)", b.kind, b.DType(), b.physical, b.state)
}

func (b *Buffer[T]) requireAllocated(op string) error {
	if b.state == stateAllocated {
		return nil
	}
	return api.Errorf(api.ErrCodeContractViolation, "%s on %s buffer", op, b.state).
		WithContext("kind", b.kind.String())
}
