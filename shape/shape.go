// File: shape/shape.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package shape

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidShape is returned for malformed extents or dimension splits.
var ErrInvalidShape = errors.New("invalid shape")

// Shape is an ordered list of axis extents; the last SigDims axes are
// signal axes, the rest are navigation axes. The zero value is the empty
// shape with no axes.
type Shape struct {
	dims    []int
	sigDims int
}

// New validates dims and sigDims and returns the shape.
// Extents may be zero; negative extents are rejected.
func New(dims []int, sigDims int) (Shape, error) {
	if sigDims < 0 || sigDims > len(dims) {
		return Shape{}, fmt.Errorf("%w: sig dims %d out of range for %d axes", ErrInvalidShape, sigDims, len(dims))
	}
	for i, d := range dims {
		if d < 0 {
			return Shape{}, fmt.Errorf("%w: negative extent %d on axis %d", ErrInvalidShape, d, i)
		}
	}
	cp := make([]int, len(dims))
	copy(cp, dims)
	return Shape{dims: cp, sigDims: sigDims}, nil
}

// MustNew is New that panics on error, for literals in tests and examples.
func MustNew(dims []int, sigDims int) Shape {
	s, err := New(dims, sigDims)
	if err != nil {
		panic(err)
	}
	return s
}

// Dims returns the total number of axes.
func (s Shape) Dims() int { return len(s.dims) }

// SigDims returns the number of signal axes.
func (s Shape) SigDims() int { return s.sigDims }

// NavDims returns the number of navigation axes.
func (s Shape) NavDims() int { return len(s.dims) - s.sigDims }

// At returns the extent of axis i.
func (s Shape) At(i int) int { return s.dims[i] }

// Extents returns a copy of all axis extents.
func (s Shape) Extents() []int {
	out := make([]int, len(s.dims))
	copy(out, s.dims)
	return out
}

// Nav returns the navigation prefix as a shape without signal axes.
func (s Shape) Nav() Shape {
	return Shape{dims: s.Extents()[:s.NavDims()], sigDims: 0}
}

// Sig returns the signal suffix as a shape made only of signal axes.
func (s Shape) Sig() Shape {
	return Shape{dims: s.Extents()[s.NavDims():], sigDims: s.sigDims}
}

// Size returns the number of elements, the product of all extents.
// The empty shape has size 1, like a scalar.
func (s Shape) Size() int {
	return Prod(s.dims)
}

// FlattenNav collapses the navigation prefix into a single axis.
func (s Shape) FlattenNav() Shape {
	nav := Prod(s.dims[:s.NavDims()])
	dims := make([]int, 0, 1+s.sigDims)
	dims = append(dims, nav)
	dims = append(dims, s.dims[s.NavDims():]...)
	return Shape{dims: dims, sigDims: s.sigDims}
}

// Equal reports whether both shapes have the same extents and split.
func (s Shape) Equal(o Shape) bool {
	return s.sigDims == o.sigDims && EqualInts(s.dims, o.dims)
}

func (s Shape) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, d := range s.dims {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d", d)
	}
	fmt.Fprintf(&sb, ")[sig=%d]", s.sigDims)
	return sb.String()
}

// Prod returns the product of xs; 1 for an empty list.
func Prod(xs []int) int {
	p := 1
	for _, x := range xs {
		p *= x
	}
	return p
}

// EqualInts compares two extent lists.
func EqualInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
