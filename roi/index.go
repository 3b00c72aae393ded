// File: roi/index.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Prefix counts over a mask. Built once per binding; the mask is immutable
// afterwards, so every query is O(1).

package roi

import (
	"github.com/momentics/hioload-udfbuf/api"
	"github.com/momentics/hioload-udfbuf/shape"
)

// Index answers "how many selected positions lie before / inside" queries.
// A nil *Index stands for "no ROI" and selects everything; it has no length
// of its own, so counts over it equal the queried positions.
type Index struct {
	mask   Mask
	prefix []int // prefix[i] = CountNonzero(mask[:i])
}

// NewIndex builds an index for m. A nil mask yields a nil index.
func NewIndex(m Mask) *Index {
	if m == nil {
		return nil
	}
	x := &Index{mask: m.Clone(), prefix: make([]int, len(m)+1)}
	for i, v := range x.mask {
		x.prefix[i+1] = x.prefix[i]
		if v {
			x.prefix[i+1]++
		}
	}
	return x
}

// Mask returns the indexed mask; callers must not modify it.
func (x *Index) Mask() Mask {
	if x == nil {
		return nil
	}
	return x.mask
}

// Len returns the number of positions the mask covers, 0 for nil.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.mask)
}

// Total returns the number of selected positions, 0 for nil.
func (x *Index) Total() int {
	if x == nil {
		return 0
	}
	return x.prefix[len(x.mask)]
}

// Selected reports whether position pos is in the ROI.
func (x *Index) Selected(pos int) bool {
	if x == nil {
		return true
	}
	return x.mask[pos]
}

// CountBefore returns CountNonzero(mask[:pos]).
func (x *Index) CountBefore(pos int) (int, error) {
	if x == nil {
		if pos < 0 {
			return 0, api.Errorf(api.ErrCodeInvalidArgument, "negative position %d", pos)
		}
		return pos, nil
	}
	if pos < 0 || pos > len(x.mask) {
		return 0, api.Errorf(api.ErrCodeInvalidArgument, "position %d outside roi of %d entries", pos, len(x.mask))
	}
	return x.prefix[pos], nil
}

// CountRange returns CountNonzero(mask[origin:origin+extent]).
func (x *Index) CountRange(origin, extent int) (int, error) {
	if x == nil {
		if origin < 0 || extent < 0 {
			return 0, api.Errorf(api.ErrCodeInvalidArgument, "invalid range [%d, %d)", origin, origin+extent)
		}
		return extent, nil
	}
	if origin < 0 || extent < 0 || origin+extent > len(x.mask) {
		return 0, api.Errorf(api.ErrCodeInvalidArgument,
			"range [%d, %d) outside roi of %d entries", origin, origin+extent, len(x.mask))
	}
	return x.prefix[origin+extent] - x.prefix[origin], nil
}

// PhysicalSlice translates a partition slice over the flattened navigation
// axis into the rows it occupies in compacted storage. Signal axes pass
// through unchanged. Without a ROI the slice is returned as is.
func (x *Index) PhysicalSlice(s shape.Slice) (shape.Slice, error) {
	if x == nil {
		return s, nil
	}
	if err := s.Validate(); err != nil {
		return shape.Slice{}, api.NewError(api.ErrCodeInvalidArgument, "invalid partition slice").WithCause(err)
	}
	if s.Shape.NavDims() != 1 {
		return shape.Slice{}, api.Errorf(api.ErrCodeInvalidArgument,
			"roi addressing needs one flattened navigation axis, slice has %d", s.Shape.NavDims())
	}
	o, n := s.Origin[0], s.Shape.At(0)
	origin, err := x.CountBefore(o)
	if err != nil {
		return shape.Slice{}, err
	}
	extent, err := x.CountRange(o, n)
	if err != nil {
		return shape.Slice{}, err
	}
	dims := append([]int{extent}, s.Shape.Sig().Extents()...)
	sh, err := shape.New(dims, s.Shape.SigDims())
	if err != nil {
		return shape.Slice{}, api.NewError(api.ErrCodeInternal, "physical slice shape").WithCause(err)
	}
	return shape.Slice{
		Origin: append([]int{origin}, s.Origin[1:]...),
		Shape:  sh,
	}, nil
}
