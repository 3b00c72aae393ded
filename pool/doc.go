// Package pool
// Author: momentics <momentics@gmail.com>
//
// Aligned memory layer for hioload-udfbuf.
// Regions are rounded up to 4 KiB blocks and start on a block boundary,
// backed by anonymous mappings (unix), VirtualAlloc (windows) or the Go heap.
// See aligned.go, typed.go and limit.go for implementation details.
package pool
