// File: pool/typed.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Typed views over aligned regions.

package pool

import (
	"unsafe"

	"github.com/momentics/hioload-udfbuf/api"
)

// Bytes allocates size bytes from a.
func Bytes(a Allocator, size int) (*Region, error) {
	return a.Alloc(size)
}

// Empty allocates room for count elements of T and returns the region with
// a typed view of it. Contents are whatever the backend provides; both
// built-in backends hand out zero-filled memory.
func Empty[T api.Element](a Allocator, count int) (*Region, []T, error) {
	if count < 0 {
		return nil, nil, api.Errorf(api.ErrCodeInvalidArgument, "negative element count %d", count)
	}
	size := api.SizeOf[T]()
	if count > 0 && count > (maxAlloc-BlockSize)/size {
		return nil, nil, api.Errorf(api.ErrCodeResourceExhausted, "%d elements of %d bytes overflow", count, size)
	}
	r, err := a.Alloc(count * size)
	if err != nil {
		return nil, nil, err
	}
	return r, View[T](r), nil
}

// Zeros is Empty with every byte explicitly cleared.
func Zeros[T api.Element](a Allocator, count int) (*Region, []T, error) {
	r, data, err := Empty[T](a, count)
	if err != nil {
		return nil, nil, err
	}
	clear(r.Bytes())
	return r, data, nil
}

// View reinterprets the region's bytes as elements of T.
// Trailing bytes that do not fill a whole element are dropped.
func View[T api.Element](r *Region) []T {
	n := r.Len() / api.SizeOf[T]()
	if n == 0 {
		return []T{}
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(r.Bytes()))), n)
}
