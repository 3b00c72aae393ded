// File: buffer/bind.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package buffer

import (
	"github.com/momentics/hioload-udfbuf/api"
	"github.com/momentics/hioload-udfbuf/roi"
	"github.com/momentics/hioload-udfbuf/shape"
)

// BindPartition shapes the buffer after partition p. mask is the
// dataset-level ROI over the flattened navigation axis, or nil; a navigation
// buffer then holds one row per position of p that mask selects. Signal and
// single buffers do not depend on the ROI and ignore mask when p has more
// than one navigation axis.
func (b *Buffer[T]) BindPartition(p api.Partition, mask roi.Mask) error {
	if err := b.requireUnbound("BindPartition"); err != nil {
		return err
	}
	ps, sl := p.Shape(), p.Slice()
	if err := sl.Validate(); err != nil {
		return api.NewError(api.ErrCodeInvalidArgument, "invalid partition slice").WithCause(err)
	}
	if !shape.EqualInts(ps.Extents(), sl.Shape.Extents()) || ps.SigDims() != sl.Shape.SigDims() {
		return api.Errorf(api.ErrCodeInvalidArgument, "partition shape %s disagrees with its slice %s", ps, sl)
	}

	var (
		index     *roi.Index
		rows      roi.Mask
		navOrigin []int
	)
	if mask != nil && sl.Shape.NavDims() != 1 {
		if b.kind == api.KindNav {
			return api.Errorf(api.ErrCodeInvalidArgument,
				"roi needs a flattened navigation axis, partition has %d", sl.Shape.NavDims())
		}
		mask = nil
	}
	if mask != nil {
		sub, err := mask.Sub(sl.Origin[0], sl.Shape.At(0))
		if err != nil {
			return err
		}
		index = roi.NewIndex(mask)
		before, err := index.CountBefore(sl.Origin[0])
		if err != nil {
			return err
		}
		rows = sub.Clone()
		navOrigin = []int{before}
	} else {
		navOrigin = append([]int(nil), sl.Origin[:sl.Shape.NavDims()]...)
	}

	physical, err := DeriveShape(b.kind, ps, b.extra, rows)
	if err != nil {
		return err
	}
	logical, err := DeriveShape(b.kind, ps, b.extra, nil)
	if err != nil {
		return err
	}
	b.physical, b.logical = physical, logical
	b.index, b.rows, b.navOrigin = index, rows, navOrigin
	b.sigDims = ps.SigDims()
	b.state = stateShapeBound
	return nil
}

// BindDataset shapes the buffer after the whole dataset. Navigation axes are
// flattened in storage; Data restores them.
func (b *Buffer[T]) BindDataset(ds api.Dataset, mask roi.Mask) error {
	if err := b.requireUnbound("BindDataset"); err != nil {
		return err
	}
	full := ds.Shape()
	flat := full.FlattenNav()
	if err := mask.Validate(flat.At(0)); err != nil {
		return err
	}
	physical, err := DeriveShape(b.kind, flat, b.extra, mask)
	if err != nil {
		return err
	}
	logical, err := DeriveShape(b.kind, full, b.extra, nil)
	if err != nil {
		return err
	}
	b.physical, b.logical = physical, logical
	b.index = roi.NewIndex(mask)
	b.rows = b.index.Mask()
	b.navOrigin = []int{0}
	b.sigDims = full.SigDims()
	b.dataset = full
	b.state = stateShapeBound
	return nil
}

func (b *Buffer[T]) requireUnbound(op string) error {
	if b.state == stateUnbound {
		return nil
	}
	return api.Errorf(api.ErrCodeContractViolation, "%s on %s buffer: shape is bound once", op, b.state)
}
