// File: buffer/data.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Materialisation: the O(dataset) path that expands compacted storage into
// the logical shape. Kept apart from the view path used while writing.

package buffer

import (
	"runtime"

	"github.com/momentics/hioload-udfbuf/api"
	"github.com/momentics/hioload-udfbuf/ndarray"
	"github.com/momentics/hioload-udfbuf/roi"
	"github.com/momentics/hioload-udfbuf/shape"
)

// Data returns a fresh array in the logical shape. With a ROI, positions
// the ROI does not select hold NaN. Integer element types have no NaN and
// must use DataWithFill when a ROI is set.
func (b *Buffer[T]) Data() (*ndarray.Array[T], error) {
	if err := b.requireAllocated("Data"); err != nil {
		return nil, err
	}
	if !b.compacted() {
		return b.expand(*new(T))
	}
	fill, ok := api.NaN[T]()
	if !ok {
		return nil, api.Errorf(api.ErrCodeInvalidArgument,
			"element type %s has no NaN sentinel, use DataWithFill", b.DType())
	}
	return b.expand(fill)
}

// DataWithFill is Data with a caller-chosen value for unselected positions.
func (b *Buffer[T]) DataWithFill(fill T) (*ndarray.Array[T], error) {
	if err := b.requireAllocated("DataWithFill"); err != nil {
		return nil, err
	}
	return b.expand(fill)
}

func (b *Buffer[T]) compacted() bool {
	return b.kind == api.KindNav && b.index != nil
}

func (b *Buffer[T]) expand(fill T) (*ndarray.Array[T], error) {
	if !b.compacted() {
		return b.raw.Copy().Reshape(b.logical...)
	}
	out := ndarray.Full(fill, b.logical...)
	dst, _ := out.Flat()
	src, ok := b.raw.Flat()
	if !ok {
		return nil, api.NewError(api.ErrCodeInternal, "storage is not contiguous")
	}
	err := roi.Scatter(dst, src, b.rows, shape.Prod(b.extra))
	runtime.KeepAlive(b.region)
	if err != nil {
		return nil, err
	}
	return out, nil
}
