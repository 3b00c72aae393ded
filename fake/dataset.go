// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake dataset, partition and tile descriptors for tests and examples.

package fake

import (
	"fmt"

	"github.com/momentics/hioload-udfbuf/api"
	"github.com/momentics/hioload-udfbuf/roi"
	"github.com/momentics/hioload-udfbuf/shape"
)

var (
	_ api.Dataset   = (*Dataset)(nil)
	_ api.Partition = (*Partition)(nil)
	_ api.Tile      = (*Tile)(nil)
)

// Dataset is a fixed-shape dataset descriptor.
type Dataset struct {
	shape shape.Shape
}

// NewDataset describes a dataset of navShape scan positions with frames of sigShape.
func NewDataset(navShape, sigShape []int) (*Dataset, error) {
	s, err := shape.New(append(append([]int(nil), navShape...), sigShape...), len(sigShape))
	if err != nil {
		return nil, err
	}
	return &Dataset{shape: s}, nil
}

// Shape returns the full dataset shape.
func (d *Dataset) Shape() shape.Shape { return d.shape }

// Partition covers a contiguous range of the flattened navigation axis.
type Partition struct {
	slice shape.Slice
}

// NewPartition covers frames [origin, origin+frames) of ds.
func NewPartition(ds api.Dataset, origin, frames int) (*Partition, error) {
	flat := ds.Shape().FlattenNav()
	if origin < 0 || frames < 0 || origin+frames > flat.At(0) {
		return nil, fmt.Errorf("partition [%d, %d) outside %d frames", origin, origin+frames, flat.At(0))
	}
	dims := append([]int{frames}, flat.Sig().Extents()...)
	s, err := shape.New(dims, flat.SigDims())
	if err != nil {
		return nil, err
	}
	o := make([]int, len(dims))
	o[0] = origin
	sl, err := shape.NewSlice(o, s)
	if err != nil {
		return nil, err
	}
	return &Partition{slice: sl}, nil
}

// NewPartitionFromSlice wraps an arbitrary slice, valid or not.
func NewPartitionFromSlice(sl shape.Slice) *Partition {
	return &Partition{slice: sl}
}

// Partitions splits ds into n contiguous partitions of near-equal size.
func Partitions(ds api.Dataset, n int) ([]*Partition, error) {
	total := ds.Shape().FlattenNav().At(0)
	if n <= 0 {
		return nil, fmt.Errorf("partition count %d must be positive", n)
	}
	out := make([]*Partition, 0, n)
	origin := 0
	for i := 0; i < n; i++ {
		frames := total / n
		if i < total%n {
			frames++
		}
		p, err := NewPartition(ds, origin, frames)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
		origin += frames
	}
	return out, nil
}

// Shape returns the partition shape (flattened navigation + signal).
func (p *Partition) Shape() shape.Shape { return p.slice.Shape }

// Slice returns the partition's region within the flattened dataset.
func (p *Partition) Slice() shape.Slice { return p.slice }

// Origin returns the first frame index.
func (p *Partition) Origin() int { return p.slice.Origin[0] }

// Frames returns the number of frames.
func (p *Partition) Frames() int { return p.slice.Shape.At(0) }

func (p *Partition) String() string { return fmt.Sprintf("Partition(%s)", p.slice) }

// Tile is a run of frames streamed together.
type Tile struct {
	slice     shape.Slice
	positions []int
}

// TileSlice returns the tile region; Origin[0] is the tile's first frame in
// navigation coordinates compacted by the ROI, if any.
func (t *Tile) TileSlice() shape.Slice { return t.slice }

// Frames returns the tile depth.
func (t *Tile) Frames() int { return t.slice.Shape.At(0) }

// Positions returns the dataset positions of the tile's frames.
func (t *Tile) Positions() []int { return t.positions }

// Tiles streams p in tiles of at most depth selected frames. With a mask
// only selected frames are visited and tile origins count selected frames.
func Tiles(p *Partition, mask roi.Mask, depth int) ([]*Tile, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("tile depth %d must be positive", depth)
	}
	index := roi.NewIndex(mask)
	origin := p.Origin()
	if index != nil {
		if p.Origin()+p.Frames() > index.Len() {
			return nil, fmt.Errorf("partition %s extends past roi of %d entries", p, index.Len())
		}
		before, err := index.CountBefore(p.Origin())
		if err != nil {
			return nil, err
		}
		origin = before
	}
	var (
		out     []*Tile
		pending []int
	)
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		dims := append([]int{len(pending)}, p.Shape().Sig().Extents()...)
		s, err := shape.New(dims, p.Shape().SigDims())
		if err != nil {
			return err
		}
		o := make([]int, len(dims))
		o[0] = origin
		out = append(out, &Tile{slice: shape.Slice{Origin: o, Shape: s}, positions: pending})
		origin += len(pending)
		pending = nil
		return nil
	}
	for pos := p.Origin(); pos < p.Origin()+p.Frames(); pos++ {
		if !index.Selected(pos) {
			continue
		}
		pending = append(pending, pos)
		if len(pending) == depth {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}
