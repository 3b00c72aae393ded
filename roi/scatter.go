// File: roi/scatter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package roi

import "github.com/momentics/hioload-udfbuf/api"

// Scatter expands compacted rows into dataset order: row k of src goes to
// the k-th selected position of m. Every row holds rowLen elements.
// Unselected rows of dst are left untouched.
func Scatter[T any](dst, src []T, m Mask, rowLen int) error {
	if rowLen < 0 {
		return api.Errorf(api.ErrCodeInvalidArgument, "negative row length %d", rowLen)
	}
	if len(dst) != len(m)*rowLen {
		return api.Errorf(api.ErrCodeInvalidArgument, "destination holds %d elements, want %d", len(dst), len(m)*rowLen)
	}
	if want := CountNonzero(m) * rowLen; len(src) != want {
		return api.Errorf(api.ErrCodeInvalidArgument, "source holds %d elements, want %d", len(src), want)
	}
	k := 0
	for i, sel := range m {
		if !sel {
			continue
		}
		copy(dst[i*rowLen:(i+1)*rowLen], src[k*rowLen:(k+1)*rowLen])
		k++
	}
	return nil
}

// Gather is the inverse of Scatter: it compacts the selected rows of src
// into dst.
func Gather[T any](dst, src []T, m Mask, rowLen int) error {
	if rowLen < 0 {
		return api.Errorf(api.ErrCodeInvalidArgument, "negative row length %d", rowLen)
	}
	if len(src) != len(m)*rowLen {
		return api.Errorf(api.ErrCodeInvalidArgument, "source holds %d elements, want %d", len(src), len(m)*rowLen)
	}
	if want := CountNonzero(m) * rowLen; len(dst) != want {
		return api.Errorf(api.ErrCodeInvalidArgument, "destination holds %d elements, want %d", len(dst), want)
	}
	k := 0
	for i, sel := range m {
		if !sel {
			continue
		}
		copy(dst[k*rowLen:(k+1)*rowLen], src[i*rowLen:(i+1)*rowLen])
		k++
	}
	return nil
}
