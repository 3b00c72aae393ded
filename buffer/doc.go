// Package buffer
// Author: momentics <momentics@gmail.com>
//
// Reduction buffers shaped after a dataset or one of its partitions.
//
// A Buffer follows the navigation axes (one entry per scan position), the
// signal axes (one entry per detector pixel) or neither (a single
// accumulator), plus optional extra trailing axes. When a ROI is set, a
// navigation buffer stores only the selected positions, contiguously; views
// and Data translate between the two index spaces.
//
// Lifecycle: New → BindPartition | BindDataset → Allocate | SetBuffer →
// views / RawData / Data → Release. Each step happens once.
//
// A Buffer is not safe for concurrent use. Partition buffers belong to the
// worker processing the partition; dataset buffers are written by a single
// merge owner (see package merge).
package buffer
