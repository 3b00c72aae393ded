// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations and constants.

package api

// Kind selects which part of the dataset shape a buffer follows.
type Kind int

const (
	// KindNav buffers hold one entry per navigation position (scan point).
	KindNav Kind = iota + 1
	// KindSig buffers hold one entry per detector pixel.
	KindSig
	// KindSingle buffers are partition independent accumulators.
	KindSingle
)

func (k Kind) String() string {
	switch k {
	case KindNav:
		return "nav"
	case KindSig:
		return "sig"
	case KindSingle:
		return "single"
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindNav, KindSig, KindSingle:
		return true
	}
	return false
}

// AllocStats aggregates allocator accounting.
type AllocStats struct {
	Allocs     int64
	Frees      int64
	BytesInUse int64
	PeakBytes  int64
	Failures   int64
}
