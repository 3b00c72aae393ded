// File: buffer/derive.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package buffer

import (
	"github.com/momentics/hioload-udfbuf/api"
	"github.com/momentics/hioload-udfbuf/roi"
	"github.com/momentics/hioload-udfbuf/shape"
)

// DeriveShape computes the storage shape of a kind-k buffer over src:
//
//	sig:    src.Sig() ++ extra
//	nav:    src.Nav() ++ extra, or (count_nonzero(mask),) ++ extra with a mask
//	single: extra, or (1,) when extra is empty
func DeriveShape(k api.Kind, src shape.Shape, extra []int, mask roi.Mask) ([]int, error) {
	var out []int
	switch k {
	case api.KindSig:
		out = append(src.Sig().Extents(), extra...)
	case api.KindNav:
		if mask == nil {
			out = src.Nav().Extents()
		} else {
			out = []int{roi.CountNonzero(mask)}
		}
		out = append(out, extra...)
	case api.KindSingle:
		if len(extra) > 0 {
			out = append(out, extra...)
		} else {
			out = []int{1}
		}
	default:
		return nil, api.Errorf(api.ErrCodeInvalidArgument, "unknown kind: %d", int(k))
	}
	return out, nil
}
