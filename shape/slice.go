// File: shape/slice.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package shape

import "fmt"

// Selection picks which axes Slice.Get addresses.
type Selection int

const (
	All Selection = iota
	NavOnly
	SigOnly
)

// Range is the half-open index interval [Start, Stop) along one axis.
type Range struct {
	Start, Stop int
}

// Len returns the number of indices in r.
func (r Range) Len() int { return r.Stop - r.Start }

// Slice is an axis-aligned region: it starts at Origin and extends Shape
// along each axis.
type Slice struct {
	Origin []int
	Shape  Shape
}

// NewSlice builds a slice and checks that origin matches the shape's rank.
func NewSlice(origin []int, s Shape) (Slice, error) {
	sl := Slice{Origin: append([]int(nil), origin...), Shape: s}
	if err := sl.Validate(); err != nil {
		return Slice{}, err
	}
	return sl, nil
}

// Validate checks that origin and shape have the same number of axes and
// that the origin is not negative.
func (s Slice) Validate() error {
	if len(s.Origin) != s.Shape.Dims() {
		return fmt.Errorf("%w: origin has %d axes, shape has %d", ErrInvalidShape, len(s.Origin), s.Shape.Dims())
	}
	for i, o := range s.Origin {
		if o < 0 {
			return fmt.Errorf("%w: negative origin %d on axis %d", ErrInvalidShape, o, i)
		}
	}
	return nil
}

// Nav restricts the slice to its navigation axes.
func (s Slice) Nav() Slice {
	n := s.Shape.NavDims()
	return Slice{Origin: append([]int(nil), s.Origin[:n]...), Shape: s.Shape.Nav()}
}

// Sig restricts the slice to its signal axes.
func (s Slice) Sig() Slice {
	n := s.Shape.NavDims()
	return Slice{Origin: append([]int(nil), s.Origin[n:]...), Shape: s.Shape.Sig()}
}

// Get returns one index range per selected axis.
func (s Slice) Get(sel Selection) []Range {
	lo, hi := 0, s.Shape.Dims()
	switch sel {
	case NavOnly:
		hi = s.Shape.NavDims()
	case SigOnly:
		lo = s.Shape.NavDims()
	}
	out := make([]Range, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, Range{Start: s.Origin[i], Stop: s.Origin[i] + s.Shape.At(i)})
	}
	return out
}

func (s Slice) String() string {
	return fmt.Sprintf("Slice(origin=%v, shape=%s)", s.Origin, s.Shape)
}
