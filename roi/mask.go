// File: roi/mask.go
// Package roi maps between dataset navigation positions and the compacted
// rows a buffer stores when only ROI-selected positions are kept.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package roi

import "github.com/momentics/hioload-udfbuf/api"

// Mask selects navigation positions over the flattened navigation axis.
// A nil Mask selects everything.
type Mask []bool

// FromIndices returns a mask of length n with the given positions set.
func FromIndices(n int, idx ...int) (Mask, error) {
	m := make(Mask, n)
	for _, i := range idx {
		if i < 0 || i >= n {
			return nil, api.Errorf(api.ErrCodeInvalidArgument, "roi index %d out of range [0, %d)", i, n)
		}
		m[i] = true
	}
	return m, nil
}

// CountNonzero returns the number of selected positions.
func CountNonzero(m Mask) int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

// Validate checks that a non-nil mask covers exactly navSize positions.
func (m Mask) Validate(navSize int) error {
	if m != nil && len(m) != navSize {
		return api.Errorf(api.ErrCodeInvalidArgument,
			"roi has %d entries, navigation extent is %d", len(m), navSize)
	}
	return nil
}

// Sub returns the portion of m covering [origin, origin+extent).
func (m Mask) Sub(origin, extent int) (Mask, error) {
	if origin < 0 || extent < 0 || origin+extent > len(m) {
		return nil, api.Errorf(api.ErrCodeInvalidArgument,
			"range [%d, %d) outside roi of %d entries", origin, origin+extent, len(m))
	}
	return m[origin : origin+extent : origin+extent], nil
}

// Clone returns an independent copy; nil stays nil.
func (m Mask) Clone() Mask {
	if m == nil {
		return nil
	}
	return append(Mask(nil), m...)
}
