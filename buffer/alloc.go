// File: buffer/alloc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package buffer

import (
	"github.com/momentics/hioload-udfbuf/api"
	"github.com/momentics/hioload-udfbuf/ndarray"
	"github.com/momentics/hioload-udfbuf/pool"
	"github.com/momentics/hioload-udfbuf/shape"
)

// Allocate obtains zeroed, block-aligned storage for the bound shape.
// A zero-sized shape still allocates one element. On failure the buffer
// stays shape-bound and Allocate may be retried. Storage of a buffer that
// is dropped unreleased is reclaimed once neither the buffer nor any of its
// views is reachable.
func (b *Buffer[T]) Allocate() error {
	if err := b.requireShapeBound("Allocate"); err != nil {
		return err
	}
	n := shape.Prod(b.physical)
	region, data, err := pool.Zeros[T](b.alloc, max(n, 1))
	if err != nil {
		return err
	}
	raw, err := ndarray.FromSlice(data[:n], b.physical...)
	if err != nil {
		_ = b.alloc.Free(region)
		return api.NewError(api.ErrCodeInternal, "wrap storage").WithCause(err)
	}
	b.region, b.raw = region, raw.Retain(region)
	b.state = stateAllocated
	return nil
}

// SetBuffer adopts caller-owned storage instead of allocating. arr must
// have exactly the physical shape and be contiguous; its element type is
// fixed by T. The buffer never frees adopted storage.
func (b *Buffer[T]) SetBuffer(arr *ndarray.Array[T]) error {
	if err := b.requireShapeBound("SetBuffer"); err != nil {
		return err
	}
	if arr == nil {
		return api.NewError(api.ErrCodeInvalidArgument, "nil array")
	}
	if !shape.EqualInts(arr.Shape(), b.physical) {
		return api.Errorf(api.ErrCodeInvalidArgument, "array shape %v, buffer needs %v", arr.Shape(), b.physical)
	}
	flat, ok := arr.Flat()
	if !ok {
		return api.NewError(api.ErrCodeInvalidArgument, "array must be contiguous")
	}
	raw, err := ndarray.FromSlice(flat, b.physical...)
	if err != nil {
		return err
	}
	b.raw = raw
	b.state = stateAllocated
	return nil
}

// Release frees allocated storage. Views obtained earlier must not be used
// afterwards. Releasing a buffer without storage is a no-op.
func (b *Buffer[T]) Release() error {
	if b.state != stateAllocated {
		return nil
	}
	var err error
	if b.region != nil {
		err = b.alloc.Free(b.region)
	}
	b.region, b.raw = nil, nil
	b.state = stateReleased
	return err
}

func (b *Buffer[T]) requireShapeBound(op string) error {
	switch b.state {
	case stateShapeBound:
		return nil
	case stateUnbound:
		return api.Errorf(api.ErrCodeContractViolation, "%s before the shape was bound", op)
	default:
		return api.Errorf(api.ErrCodeContractViolation, "%s on %s buffer: storage is set once", op, b.state)
	}
}
