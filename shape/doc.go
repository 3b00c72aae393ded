// Package shape
// Author: momentics <momentics@gmail.com>
//
// N-dimensional extents split into a navigation prefix and a signal suffix,
// and axis-aligned regions (origin + extent) inside them.
//
// A dataset of 10x20 scan positions recorded with a 256x256 detector has
// the shape (10, 20, 256, 256) with two signal dimensions:
//
//	ds := shape.MustNew([]int{10, 20, 256, 256}, 2)
//	ds.Nav()        // (10, 20)
//	ds.FlattenNav() // (200, 256, 256)
package shape
