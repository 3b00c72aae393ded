// File: merge/funcs.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package merge

import (
	"github.com/momentics/hioload-udfbuf/api"
	"github.com/momentics/hioload-udfbuf/ndarray"
)

// Func merges src, a partition buffer's raw data, into dst, the matching
// view of the dataset buffer. Shapes are equal.
type Func[T api.Element] func(dst, src *ndarray.Array[T]) error

// Assign copies src over dst.
func Assign[T api.Element](dst, src *ndarray.Array[T]) error {
	return dst.CopyFrom(src)
}

// Add accumulates src into dst element-wise.
func Add[T api.Element](dst, src *ndarray.Array[T]) error {
	return ndarray.Combine(dst, src, func(d *T, s T) { *d += s })
}

// Max keeps the element-wise maximum. NaN on either side wins. Only ordered
// types qualify, so it is not a Func for complex buffers.
func Max[T api.Ordered](dst, src *ndarray.Array[T]) error {
	return ndarray.Combine(dst, src, func(d *T, s T) {
		if api.IsNaN(*d) {
			return
		}
		if s > *d || api.IsNaN(s) {
			*d = s
		}
	})
}

// DefaultFunc picks Assign for navigation buffers and Add otherwise.
func DefaultFunc[T api.Element](k api.Kind) Func[T] {
	if k == api.KindNav {
		return Assign[T]
	}
	return Add[T]
}
