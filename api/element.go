// File: api/element.go
// Author: momentics <momentics@gmail.com>
//
// Scalar element types storable in reduction buffers.

package api

import (
	"math"
	"math/cmplx"
	"unsafe"
)

// Element is the set of scalar types a buffer may hold.
type Element interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 |
		~complex64 | ~complex128
}

// Ordered is the subset of Element with a total order.
type Ordered interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// SizeOf returns the size in bytes of one T.
func SizeOf[T Element]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// NaN returns the not-a-number value of T. ok is false for integer
// types, which have no such value.
func NaN[T Element]() (v T, ok bool) {
	switch p := any(&v).(type) {
	case *float32:
		*p = float32(math.NaN())
	case *float64:
		*p = math.NaN()
	case *complex64:
		*p = complex64(cmplx.NaN())
	case *complex128:
		*p = cmplx.NaN()
	default:
		return v, false
	}
	return v, true
}

// IsNaN reports whether v is a not-a-number value.
func IsNaN[T Element](v T) bool {
	switch x := any(v).(type) {
	case float32:
		return math.IsNaN(float64(x))
	case float64:
		return math.IsNaN(x)
	case complex64:
		return cmplx.IsNaN(complex128(x))
	case complex128:
		return cmplx.IsNaN(x)
	}
	return false
}

// TypeName returns a short dtype-style name for T.
func TypeName[T Element]() string {
	var zero T
	switch any(zero).(type) {
	case int8:
		return "int8"
	case int16:
		return "int16"
	case int32:
		return "int32"
	case int64:
		return "int64"
	case uint8:
		return "uint8"
	case uint16:
		return "uint16"
	case uint32:
		return "uint32"
	case uint64:
		return "uint64"
	case float32:
		return "float32"
	case float64:
		return "float64"
	case complex64:
		return "complex64"
	case complex128:
		return "complex128"
	}
	return "custom"
}
