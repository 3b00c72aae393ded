// Package benchmarks
// Author: momentics <momentics@gmail.com>
//
// Performance benchmarks for allocation, ROI addressing and merging.

package benchmarks

import (
	"context"
	"testing"

	"github.com/momentics/hioload-udfbuf/api"
	"github.com/momentics/hioload-udfbuf/buffer"
	"github.com/momentics/hioload-udfbuf/control"
	"github.com/momentics/hioload-udfbuf/fake"
	"github.com/momentics/hioload-udfbuf/pool"
	"github.com/momentics/hioload-udfbuf/roi"
	"github.com/momentics/hioload-udfbuf/runner"
)

func everyOther(n int) roi.Mask {
	m := make(roi.Mask, n)
	for i := 0; i < n; i += 2 {
		m[i] = true
	}
	return m
}

// BenchmarkAllocatorHeap measures aligned heap allocation of one frame.
func BenchmarkAllocatorHeap(b *testing.B) {
	a := pool.NewHeapAllocator()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			r, err := a.Alloc(256 * 256 * 4)
			if err != nil {
				b.Fatal(err)
			}
			_ = a.Free(r)
		}
	})
}

// BenchmarkAllocatorRecycled measures the same allocation through a recycler.
func BenchmarkAllocatorRecycled(b *testing.B) {
	a := pool.NewRecycler(pool.NewMmapAllocator(), 64)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			r, err := a.Alloc(256 * 256 * 4)
			if err != nil {
				b.Fatal(err)
			}
			_ = a.Free(r)
		}
	})
}

// BenchmarkPhysicalSlice measures ROI addressing of a partition.
func BenchmarkPhysicalSlice(b *testing.B) {
	ds, _ := fake.NewDataset([]int{256, 256}, []int{128, 128})
	p, _ := fake.NewPartition(ds, 1000, 4096)
	idx := roi.NewIndex(everyOther(256 * 256))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := idx.PhysicalSlice(p.Slice()); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkDataExpand measures materialisation of a compacted nav buffer.
func BenchmarkDataExpand(b *testing.B) {
	ds, _ := fake.NewDataset([]int{128, 128}, []int{16, 16})
	buf, _ := buffer.New[float32](api.KindNav, []int{4}, buffer.WithAllocator(pool.NewHeapAllocator()))
	if err := buf.BindDataset(ds, everyOther(128*128)); err != nil {
		b.Fatal(err)
	}
	if err := buf.Allocate(); err != nil {
		b.Fatal(err)
	}
	defer buf.Release()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := buf.Data(); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRunnerSum runs a trivial frame sum end to end.
func BenchmarkRunnerSum(b *testing.B) {
	ds, _ := fake.NewDataset([]int{32, 32}, []int{32, 32})
	fp, _ := fake.Partitions(ds, 8)
	parts := make([]api.Partition, len(fp))
	for i, p := range fp {
		parts[i] = p
	}
	cfg := control.Config{AllocBackend: control.BackendHeap, AllocRecycle: 8}
	job := runner.Job[float32]{
		Buffers: map[string]runner.BufferDecl[float32]{"sum": {Kind: api.KindSig}},
		Process: func(_ context.Context, t *runner.Task[float32]) error {
			v, err := t.Buffer("sum").ViewForPartition(t.Partition)
			if err != nil {
				return err
			}
			v.Fill(1)
			return nil
		},
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bufs, err := runner.Run(context.Background(), cfg, ds, parts, nil, job)
		if err != nil {
			b.Fatal(err)
		}
		for _, buf := range bufs {
			_ = buf.Release()
		}
	}
}
