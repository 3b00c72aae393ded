// File: ndarray/array.go
// Package ndarray provides strided N-dimensional views over flat Go slices.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Views never copy: Index, Take and NewAxis return arrays that share the
// backing slice. Copy and Values produce owned, C-ordered data.

package ndarray

import (
	"fmt"

	"github.com/momentics/hioload-udfbuf/api"
	"github.com/momentics/hioload-udfbuf/shape"
)

// Array is a view of data laid out with per-axis strides (in elements).
type Array[T any] struct {
	data    []T
	offset  int
	shape   []int
	strides []int
	owner   any // keeps foreign storage reachable while views exist
}

// New returns a zeroed, owned array of the given shape.
func New[T any](dims ...int) *Array[T] {
	return &Array[T]{
		data:    make([]T, shape.Prod(dims)),
		shape:   append([]int(nil), dims...),
		strides: cStrides(dims),
	}
}

// Full returns an owned array with every element set to v.
func Full[T any](v T, dims ...int) *Array[T] {
	a := New[T](dims...)
	for i := range a.data {
		a.data[i] = v
	}
	return a
}

// FromSlice wraps data as a C-ordered array without copying.
// data must hold at least prod(dims) elements; the surplus is not addressable.
func FromSlice[T any](data []T, dims ...int) (*Array[T], error) {
	for _, d := range dims {
		if d < 0 {
			return nil, api.Errorf(api.ErrCodeInvalidArgument, "negative extent in %v", dims)
		}
	}
	n := shape.Prod(dims)
	if len(data) < n {
		return nil, api.Errorf(api.ErrCodeInvalidArgument, "slice of %d elements cannot hold shape %v", len(data), dims)
	}
	return &Array[T]{
		data:    data[:n:n],
		shape:   append([]int(nil), dims...),
		strides: cStrides(dims),
	}, nil
}

// Retain ties owner's lifetime to a and every view derived from it. Used
// for storage that is reclaimed once its owner becomes unreachable.
func (a *Array[T]) Retain(owner any) *Array[T] {
	a.owner = owner
	return a
}

func cStrides(dims []int) []int {
	strides := make([]int, len(dims))
	acc := 1
	for i := len(dims) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= dims[i]
	}
	return strides
}

// Shape returns a copy of the extents.
func (a *Array[T]) Shape() []int { return append([]int(nil), a.shape...) }

// Strides returns a copy of the element strides.
func (a *Array[T]) Strides() []int { return append([]int(nil), a.strides...) }

// Ndim returns the number of axes.
func (a *Array[T]) Ndim() int { return len(a.shape) }

// Size returns the number of addressable elements.
func (a *Array[T]) Size() int { return shape.Prod(a.shape) }

// IsContiguous reports whether the view is C-ordered without gaps.
func (a *Array[T]) IsContiguous() bool {
	acc := 1
	for i := len(a.shape) - 1; i >= 0; i-- {
		if a.shape[i] == 1 {
			continue
		}
		if a.strides[i] != acc {
			return false
		}
		acc *= a.shape[i]
	}
	return true
}

func (a *Array[T]) offsetOf(idx []int) int {
	if len(idx) != len(a.shape) {
		panic(fmt.Sprintf("ndarray: %d indices for %d axes", len(idx), len(a.shape)))
	}
	off := a.offset
	for i, x := range idx {
		if x < 0 || x >= a.shape[i] {
			panic(fmt.Sprintf("ndarray: index %d out of range for axis %d with extent %d", x, i, a.shape[i]))
		}
		off += x * a.strides[i]
	}
	return off
}

// At returns the element at idx. Out-of-range indices panic.
func (a *Array[T]) At(idx ...int) T { return a.data[a.offsetOf(idx)] }

// Set stores v at idx. Out-of-range indices panic.
func (a *Array[T]) Set(v T, idx ...int) { a.data[a.offsetOf(idx)] = v }

// Index restricts the leading len(r) axes to the given ranges and keeps the
// remaining axes whole. The result shares storage with a.
func (a *Array[T]) Index(r ...shape.Range) (*Array[T], error) {
	if len(r) > len(a.shape) {
		return nil, api.Errorf(api.ErrCodeInvalidArgument, "%d ranges for %d axes", len(r), len(a.shape))
	}
	out := &Array[T]{
		data:    a.data,
		offset:  a.offset,
		shape:   append([]int(nil), a.shape...),
		strides: append([]int(nil), a.strides...),
		owner:   a.owner,
	}
	for i, rg := range r {
		if rg.Start < 0 || rg.Stop < rg.Start || rg.Stop > a.shape[i] {
			return nil, api.Errorf(api.ErrCodeInvalidArgument,
				"range [%d, %d) out of bounds for axis %d with extent %d", rg.Start, rg.Stop, i, a.shape[i])
		}
		out.shape[i] = rg.Len()
		if rg.Len() > 0 {
			out.offset += rg.Start * a.strides[i]
		}
	}
	return out, nil
}

// Take selects position i along the first axis and drops that axis.
func (a *Array[T]) Take(i int) (*Array[T], error) {
	if len(a.shape) == 0 {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "cannot index a zero-dimensional array")
	}
	if i < 0 || i >= a.shape[0] {
		return nil, api.Errorf(api.ErrCodeInvalidArgument, "index %d out of range for extent %d", i, a.shape[0])
	}
	return &Array[T]{
		data:    a.data,
		offset:  a.offset + i*a.strides[0],
		shape:   append([]int(nil), a.shape[1:]...),
		strides: append([]int(nil), a.strides[1:]...),
		owner:   a.owner,
	}, nil
}

// NewAxis appends a trailing axis of extent 1.
func (a *Array[T]) NewAxis() *Array[T] {
	return &Array[T]{
		data:    a.data,
		offset:  a.offset,
		shape:   append(append([]int(nil), a.shape...), 1),
		strides: append(append([]int(nil), a.strides...), 1),
		owner:   a.owner,
	}
}

// Reshape reinterprets a contiguous view with a new shape of equal size.
func (a *Array[T]) Reshape(dims ...int) (*Array[T], error) {
	if shape.Prod(dims) != a.Size() {
		return nil, api.Errorf(api.ErrCodeInvalidArgument, "cannot reshape %v into %v", a.shape, dims)
	}
	if !a.IsContiguous() {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "cannot reshape a non-contiguous view")
	}
	return &Array[T]{
		data:    a.data,
		offset:  a.offset,
		shape:   append([]int(nil), dims...),
		strides: cStrides(dims),
		owner:   a.owner,
	}, nil
}

// Flat returns the elements of a contiguous view without copying.
// ok is false when the view has gaps. The slice does not keep a retained
// owner alive.
func (a *Array[T]) Flat() (flat []T, ok bool) {
	if !a.IsContiguous() {
		return nil, false
	}
	n := a.Size()
	if n == 0 {
		return a.data[:0:0], true
	}
	return a.data[a.offset : a.offset+n : a.offset+n], true
}

// Values returns the elements in C order as a fresh slice.
func (a *Array[T]) Values() []T {
	out := make([]T, 0, a.Size())
	a.walk(func(off int) { out = append(out, a.data[off]) })
	return out
}

// Copy returns an owned, contiguous copy of the view.
func (a *Array[T]) Copy() *Array[T] {
	return &Array[T]{
		data:    a.Values(),
		shape:   append([]int(nil), a.shape...),
		strides: cStrides(a.shape),
	}
}

// Fill sets every element of the view to v.
func (a *Array[T]) Fill(v T) {
	a.walk(func(off int) { a.data[off] = v })
}

// CopyFrom copies src into a element-wise; shapes must match.
func (a *Array[T]) CopyFrom(src *Array[T]) error {
	return Combine(a, src, func(dst *T, s T) { *dst = s })
}

// Combine applies fn to each pair of elements of dst and src in C order.
func Combine[T any](dst, src *Array[T], fn func(dst *T, src T)) error {
	if !shape.EqualInts(dst.shape, src.shape) {
		return api.Errorf(api.ErrCodeInvalidArgument, "shape mismatch: %v vs %v", dst.shape, src.shape)
	}
	vals := src.Values()
	i := 0
	dst.walk(func(off int) {
		fn(&dst.data[off], vals[i])
		i++
	})
	return nil
}

// walk visits the backing offset of every element in C order.
func (a *Array[T]) walk(fn func(off int)) {
	n := a.Size()
	if n == 0 {
		return
	}
	nd := len(a.shape)
	if nd == 0 {
		fn(a.offset)
		return
	}
	idx := make([]int, nd)
	off := a.offset
	for k := 0; k < n; k++ {
		fn(off)
		for ax := nd - 1; ax >= 0; ax-- {
			idx[ax]++
			off += a.strides[ax]
			if idx[ax] < a.shape[ax] {
				break
			}
			off -= idx[ax] * a.strides[ax]
			idx[ax] = 0
		}
	}
}

func (a *Array[T]) String() string {
	return fmt.Sprintf("Array(shape=%v, strides=%v)", a.shape, a.strides)
}
