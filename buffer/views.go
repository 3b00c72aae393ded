// File: buffer/views.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package buffer

import (
	"github.com/momentics/hioload-udfbuf/api"
	"github.com/momentics/hioload-udfbuf/ndarray"
	"github.com/momentics/hioload-udfbuf/shape"
)

// ViewForPartition returns the part of storage that belongs to p.
// Navigation buffers are addressed through the ROI; signal buffers by p's
// signal projection; single buffers are returned whole.
func (b *Buffer[T]) ViewForPartition(p api.Partition) (*ndarray.Array[T], error) {
	if err := b.requireAllocated("ViewForPartition"); err != nil {
		return nil, err
	}
	switch b.kind {
	case api.KindSig:
		sl := p.Slice()
		if sl.Shape.SigDims() != b.sigDims {
			return nil, api.Errorf(api.ErrCodeInvalidArgument,
				"partition has %d signal dims, buffer has %d", sl.Shape.SigDims(), b.sigDims)
		}
		return b.raw.Index(sl.Get(shape.SigOnly)...)
	case api.KindNav:
		phys, err := b.physicalSlice(p.Slice())
		if err != nil {
			return nil, err
		}
		return b.raw.Index(b.relative(phys.Get(shape.NavOnly))...)
	case api.KindSingle:
		return b.raw, nil
	default:
		return nil, api.Errorf(api.ErrCodeInternal, "unhandled kind %d", int(b.kind))
	}
}

// ViewForFrame returns the entry for one frame of p. The frame is
// frameIdx frames past the origin of tile, whose first origin element is in
// the same navigation coordinates as the partition's physical slice.
// Navigation views of buffers without extra axes get a trailing axis of
// extent 1, so per-frame results are always at least one-dimensional.
func (b *Buffer[T]) ViewForFrame(p api.Partition, tile api.Tile, frameIdx int) (*ndarray.Array[T], error) {
	if err := b.requireAllocated("ViewForFrame"); err != nil {
		return nil, err
	}
	ps := p.Shape()
	if ps.Dims() != ps.SigDims()+1 {
		return nil, api.Errorf(api.ErrCodeContractViolation,
			"frame views need exactly one navigation axis, partition shape is %s", ps)
	}
	switch b.kind {
	case api.KindSig:
		return b.ViewForPartition(p)
	case api.KindNav:
		phys, err := b.physicalSlice(p.Slice())
		if err != nil {
			return nil, err
		}
		view, err := b.raw.Index(b.relative(phys.Get(shape.NavOnly))...)
		if err != nil {
			return nil, err
		}
		ts := tile.TileSlice()
		if len(ts.Origin) == 0 {
			return nil, api.NewError(api.ErrCodeInvalidArgument, "tile slice has no origin")
		}
		row, err := view.Take(ts.Origin[0] + frameIdx - phys.Origin[0])
		if err != nil {
			return nil, err
		}
		if len(b.extra) > 0 {
			return row, nil
		}
		return row.NewAxis(), nil
	case api.KindSingle:
		return b.raw, nil
	default:
		return nil, api.Errorf(api.ErrCodeInternal, "unhandled kind %d", int(b.kind))
	}
}

// RawData returns storage as allocated: physical shape, ROI-compacted,
// shared with the buffer.
func (b *Buffer[T]) RawData() (*ndarray.Array[T], error) {
	if err := b.requireAllocated("RawData"); err != nil {
		return nil, err
	}
	return b.raw, nil
}

// physicalSlice maps a partition slice into compacted coordinates.
func (b *Buffer[T]) physicalSlice(sl shape.Slice) (shape.Slice, error) {
	if err := sl.Validate(); err != nil {
		return shape.Slice{}, api.NewError(api.ErrCodeInvalidArgument, "invalid partition slice").WithCause(err)
	}
	if sl.Shape.SigDims() != b.sigDims {
		return shape.Slice{}, api.Errorf(api.ErrCodeInvalidArgument,
			"partition has %d signal dims, buffer has %d", sl.Shape.SigDims(), b.sigDims)
	}
	if sl.Shape.NavDims() != len(b.navOrigin) {
		return shape.Slice{}, api.Errorf(api.ErrCodeInvalidArgument,
			"partition has %d navigation axes, buffer storage has %d", sl.Shape.NavDims(), len(b.navOrigin))
	}
	return b.index.PhysicalSlice(sl)
}

// relative shifts physical navigation ranges so they start at this
// buffer's first stored row.
func (b *Buffer[T]) relative(r []shape.Range) []shape.Range {
	out := make([]shape.Range, len(r))
	for i, rg := range r {
		out[i] = shape.Range{Start: rg.Start - b.navOrigin[i], Stop: rg.Stop - b.navOrigin[i]}
	}
	return out
}
