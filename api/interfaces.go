// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package api

import "github.com/momentics/hioload-udfbuf/shape"

// Dataset describes the whole frame stack.
type Dataset interface {
	Shape() shape.Shape
}

// Partition is a contiguous range of navigation positions handled by one worker.
type Partition interface {
	Shape() shape.Shape
	Slice() shape.Slice
}

// Tile is the unit a partition is streamed in. The first origin element of
// TileSlice is the tile's frame offset along the navigation axis.
type Tile interface {
	TileSlice() shape.Slice
}
