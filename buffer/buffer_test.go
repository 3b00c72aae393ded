package buffer

import (
	"errors"
	"math"
	"testing"

	"github.com/momentics/hioload-udfbuf/api"
	"github.com/momentics/hioload-udfbuf/fake"
	"github.com/momentics/hioload-udfbuf/ndarray"
	"github.com/momentics/hioload-udfbuf/pool"
	"github.com/momentics/hioload-udfbuf/roi"
	"github.com/momentics/hioload-udfbuf/shape"
)

var scenarioROI = roi.Mask{true, false, true, true, false, false, false, true, false, false}

func scenarioDataset(t *testing.T) *fake.Dataset {
	t.Helper()
	ds, err := fake.NewDataset([]int{10}, []int{4, 4})
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func newBuffer[T api.Element](t *testing.T, kind api.Kind, extra ...int) *Buffer[T] {
	t.Helper()
	b, err := New[T](kind, extra, WithAllocator(pool.NewHeapAllocator()))
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func sameFloats(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Float32bits(a[i]) != math.Float32bits(b[i]) {
			return false
		}
	}
	return true
}

func TestDeriveShape(t *testing.T) {
	src := shape.MustNew([]int{10, 4, 4}, 2)
	cases := []struct {
		name  string
		kind  api.Kind
		extra []int
		mask  roi.Mask
		want  []int
	}{
		{"sig", api.KindSig, nil, nil, []int{4, 4}},
		{"sig extra", api.KindSig, []int{3}, scenarioROI, []int{4, 4, 3}},
		{"nav", api.KindNav, nil, nil, []int{10}},
		{"nav roi", api.KindNav, nil, scenarioROI, []int{4}},
		{"nav roi extra", api.KindNav, []int{2}, scenarioROI, []int{4, 2}},
		{"single", api.KindSingle, nil, nil, []int{1}},
		{"single extra", api.KindSingle, []int{5, 6}, nil, []int{5, 6}},
	}
	for _, c := range cases {
		got, err := DeriveShape(c.kind, src, c.extra, c.mask)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if !shape.EqualInts(got, c.want) {
			t.Errorf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
	if _, err := DeriveShape(api.Kind(42), src, nil, nil); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("unknown kind: %v", err)
	}
	if _, err := New[float32](api.Kind(0), nil); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("New with unknown kind: %v", err)
	}
}

func TestScenario_MaterializeWithROI(t *testing.T) {
	b := newBuffer[float32](t, api.KindNav)
	if err := b.BindDataset(scenarioDataset(t), scenarioROI); err != nil {
		t.Fatal(err)
	}
	if !shape.EqualInts(b.PhysicalShape(), []int{4}) || !shape.EqualInts(b.LogicalShape(), []int{10}) {
		t.Fatalf("physical %v logical %v", b.PhysicalShape(), b.LogicalShape())
	}
	if err := b.Allocate(); err != nil {
		t.Fatal(err)
	}
	raw, err := b.RawData()
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range []float32{10, 20, 30, 40} {
		raw.Set(v, i)
	}
	data, err := b.Data()
	if err != nil {
		t.Fatal(err)
	}
	nan := float32(math.NaN())
	want := []float32{10, nan, 20, 30, nan, nan, nan, 40, nan, nan}
	if !sameFloats(data.Values(), want) {
		t.Errorf("Data() = %v, want %v", data.Values(), want)
	}
}

func TestScenario_PartitionPhysicalSlice(t *testing.T) {
	ds := scenarioDataset(t)
	b := newBuffer[float32](t, api.KindNav)
	if err := b.BindDataset(ds, scenarioROI); err != nil {
		t.Fatal(err)
	}
	if err := b.Allocate(); err != nil {
		t.Fatal(err)
	}
	raw, _ := b.RawData()
	for i := 0; i < 4; i++ {
		raw.Set(float32(i), i)
	}
	p, err := fake.NewPartition(ds, 3, 4)
	if err != nil {
		t.Fatal(err)
	}
	view, err := b.ViewForPartition(p)
	if err != nil {
		t.Fatal(err)
	}
	if got := view.Values(); len(got) != 1 || got[0] != 2 {
		t.Errorf("partition [3,7) view = %v, want physical row 2", got)
	}
	p, err = fake.NewPartition(ds, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	view, err = b.ViewForPartition(p)
	if err != nil {
		t.Fatal(err)
	}
	if got := view.Values(); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("partition [1,4) view = %v, want physical rows [1,3)", got)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	ds := scenarioDataset(t)
	parts, err := fake.Partitions(ds, 3)
	if err != nil {
		t.Fatal(err)
	}
	for _, mask := range []roi.Mask{nil, scenarioROI} {
		b := newBuffer[float32](t, api.KindNav)
		if err := b.BindDataset(ds, mask); err != nil {
			t.Fatal(err)
		}
		if err := b.Allocate(); err != nil {
			t.Fatal(err)
		}
		for _, p := range parts {
			tiles, err := fake.Tiles(p, mask, 2)
			if err != nil {
				t.Fatal(err)
			}
			for _, tile := range tiles {
				for i, pos := range tile.Positions() {
					v, err := b.ViewForFrame(p, tile, i)
					if err != nil {
						t.Fatalf("frame %d: %v", pos, err)
					}
					if !shape.EqualInts(v.Shape(), []int{1}) {
						t.Fatalf("frame view shape %v", v.Shape())
					}
					v.Set(float32(100+pos), 0)
				}
			}
		}
		data, err := b.Data()
		if err != nil {
			t.Fatal(err)
		}
		for pos := 0; pos < 10; pos++ {
			got := data.At(pos)
			if mask == nil || mask[pos] {
				if got != float32(100+pos) {
					t.Errorf("roi=%v pos %d: got %v", mask != nil, pos, got)
				}
			} else if !math.IsNaN(float64(got)) {
				t.Errorf("unselected pos %d: got %v, want NaN", pos, got)
			}
		}
	}
}

func TestPartitionBuffer_FrameViews(t *testing.T) {
	ds := scenarioDataset(t)
	p, _ := fake.NewPartition(ds, 3, 5)
	b := newBuffer[float64](t, api.KindNav, 2)
	if err := b.BindPartition(p, scenarioROI); err != nil {
		t.Fatal(err)
	}
	if !shape.EqualInts(b.PhysicalShape(), []int{2, 2}) || !shape.EqualInts(b.LogicalShape(), []int{5, 2}) {
		t.Fatalf("physical %v logical %v", b.PhysicalShape(), b.LogicalShape())
	}
	if err := b.Allocate(); err != nil {
		t.Fatal(err)
	}
	tiles, _ := fake.Tiles(p, scenarioROI, 8)
	for i, pos := range tiles[0].Positions() {
		v, err := b.ViewForFrame(p, tiles[0], i)
		if err != nil {
			t.Fatal(err)
		}
		if !shape.EqualInts(v.Shape(), []int{2}) {
			t.Fatalf("extra-shaped frame view %v", v.Shape())
		}
		v.Set(float64(pos), 0)
		v.Set(float64(-pos), 1)
	}
	whole, err := b.ViewForPartition(p)
	if err != nil {
		t.Fatal(err)
	}
	if !shape.EqualInts(whole.Shape(), []int{2, 2}) {
		t.Errorf("partition view of partition buffer = %v", whole.Shape())
	}
	data, err := b.Data()
	if err != nil {
		t.Fatal(err)
	}
	if data.At(0, 0) != 3 || data.At(4, 1) != -7 || !math.IsNaN(data.At(1, 0)) {
		t.Errorf("partition data = %v", data.Values())
	}
}

func TestSigAndSingleViews(t *testing.T) {
	ds := scenarioDataset(t)
	p, _ := fake.NewPartition(ds, 0, 5)
	tiles, _ := fake.Tiles(p, nil, 5)

	sig := newBuffer[float32](t, api.KindSig)
	if err := sig.BindPartition(p, scenarioROI); err != nil {
		t.Fatal(err)
	}
	if !shape.EqualInts(sig.PhysicalShape(), []int{4, 4}) {
		t.Fatalf("sig shape %v", sig.PhysicalShape())
	}
	if err := sig.Allocate(); err != nil {
		t.Fatal(err)
	}
	pv, err := sig.ViewForPartition(p)
	if err != nil {
		t.Fatal(err)
	}
	fv, err := sig.ViewForFrame(p, tiles[0], 3)
	if err != nil {
		t.Fatal(err)
	}
	fv.Set(1.5, 2, 2)
	if pv.At(2, 2) != 1.5 || !shape.EqualInts(fv.Shape(), []int{4, 4}) {
		t.Error("sig frame view is not the partition view")
	}
	data, err := sig.Data()
	if err != nil {
		t.Fatal(err)
	}
	if data.At(2, 2) != 1.5 || math.IsNaN(float64(data.At(0, 0))) {
		t.Error("sig buffers must not be roi-expanded")
	}

	single := newBuffer[int64](t, api.KindSingle)
	if err := single.BindDataset(ds, nil); err != nil {
		t.Fatal(err)
	}
	if err := single.Allocate(); err != nil {
		t.Fatal(err)
	}
	sv, _ := single.ViewForFrame(p, tiles[0], 0)
	sv.Set(sv.At(0)+7, 0)
	all, _ := single.ViewForPartition(p)
	if !shape.EqualInts(all.Shape(), []int{1}) || all.At(0) != 7 {
		t.Errorf("single view = %v", all.Values())
	}
}

func TestIdempotentReads(t *testing.T) {
	b := newBuffer[float32](t, api.KindNav, 3)
	if err := b.BindDataset(scenarioDataset(t), scenarioROI); err != nil {
		t.Fatal(err)
	}
	if err := b.Allocate(); err != nil {
		t.Fatal(err)
	}
	raw, _ := b.RawData()
	for i := 0; i < 4; i++ {
		for j := 0; j < 3; j++ {
			raw.Set(float32(i*3+j), i, j)
		}
	}
	d1, _ := b.Data()
	d2, _ := b.Data()
	r1, _ := b.RawData()
	r2, _ := b.RawData()
	if !sameFloats(d1.Values(), d2.Values()) || !sameFloats(r1.Values(), r2.Values()) {
		t.Error("repeated reads differ")
	}
	d1.Set(-1, 0, 0)
	if d2.At(0, 0) == -1 {
		t.Error("Data results share storage")
	}
}

func TestZeroSizedROI(t *testing.T) {
	b := newBuffer[float64](t, api.KindNav)
	if err := b.BindDataset(scenarioDataset(t), make(roi.Mask, 10)); err != nil {
		t.Fatal(err)
	}
	if !b.ROIIsZero() {
		t.Fatal("empty roi not reported")
	}
	if err := b.Allocate(); err != nil {
		t.Fatal(err)
	}
	if !b.HasData() {
		t.Error("zero-sized buffer not allocated")
	}
	raw, _ := b.RawData()
	if raw.Size() != 0 || !shape.EqualInts(raw.Shape(), []int{0}) {
		t.Errorf("raw shape %v", raw.Shape())
	}
	data, err := b.Data()
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range data.Values() {
		if !math.IsNaN(v) {
			t.Fatalf("data = %v, want all NaN", data.Values())
		}
	}
}

func TestContractViolations(t *testing.T) {
	ds := scenarioDataset(t)
	p, _ := fake.NewPartition(ds, 0, 4)
	b := newBuffer[float32](t, api.KindNav)

	if err := b.Allocate(); !errors.Is(err, api.ErrContractViolation) {
		t.Errorf("allocate before bind: %v", err)
	}
	if err := b.BindDataset(ds, nil); err != nil {
		t.Fatal(err)
	}
	if err := b.BindPartition(p, nil); !errors.Is(err, api.ErrContractViolation) {
		t.Errorf("second bind: %v", err)
	}
	if _, err := b.ViewForPartition(p); !errors.Is(err, api.ErrContractViolation) {
		t.Errorf("view before allocate: %v", err)
	}
	if _, err := b.Data(); !errors.Is(err, api.ErrContractViolation) {
		t.Errorf("data before allocate: %v", err)
	}
	if err := b.Allocate(); err != nil {
		t.Fatal(err)
	}
	if err := b.Allocate(); !errors.Is(err, api.ErrContractViolation) {
		t.Errorf("second allocate: %v", err)
	}
	if err := b.SetBuffer(ndarray.New[float32](10)); !errors.Is(err, api.ErrContractViolation) {
		t.Errorf("set buffer after allocate: %v", err)
	}

	multiNav := fake.NewPartitionFromSlice(shape.Slice{
		Origin: []int{0, 0, 0, 0},
		Shape:  shape.MustNew([]int{2, 2, 4, 4}, 2),
	})
	tiles, _ := fake.Tiles(p, nil, 1)
	if _, err := b.ViewForFrame(multiNav, tiles[0], 0); !errors.Is(err, api.ErrContractViolation) {
		t.Errorf("frame view on 2-nav partition: %v", err)
	}
	if err := b.Release(); err != nil {
		t.Fatal(err)
	}
	if _, err := b.RawData(); !errors.Is(err, api.ErrContractViolation) {
		t.Errorf("raw data after release: %v", err)
	}
}

func TestInvalidArguments(t *testing.T) {
	ds := scenarioDataset(t)
	b := newBuffer[float32](t, api.KindNav)
	if err := b.BindDataset(ds, scenarioROI[:9]); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("short roi: %v", err)
	}

	sig := newBuffer[float32](t, api.KindSig)
	if err := sig.BindDataset(ds, nil); err != nil {
		t.Fatal(err)
	}
	if err := sig.Allocate(); err != nil {
		t.Fatal(err)
	}
	oneSig := fake.NewPartitionFromSlice(shape.Slice{
		Origin: []int{0, 0},
		Shape:  shape.MustNew([]int{4, 16}, 1),
	})
	if _, err := sig.ViewForPartition(oneSig); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("sig dims mismatch: %v", err)
	}

	nav := newBuffer[float32](t, api.KindNav)
	if err := nav.BindDataset(ds, scenarioROI); err != nil {
		t.Fatal(err)
	}
	if err := nav.Allocate(); err != nil {
		t.Fatal(err)
	}
	if _, err := nav.ViewForPartition(oneSig); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("nav sig dims mismatch: %v", err)
	}
	tiles, err := fake.Tiles(oneSig, scenarioROI, 1)
	if err != nil || len(tiles) == 0 {
		t.Fatalf("tiles = %v, %v", tiles, err)
	}
	if _, err := nav.ViewForFrame(oneSig, tiles[0], 0); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("nav frame sig dims mismatch: %v", err)
	}

	adopt := newBuffer[float32](t, api.KindNav)
	if err := adopt.BindDataset(ds, nil); err != nil {
		t.Fatal(err)
	}
	if err := adopt.SetBuffer(ndarray.New[float32](9)); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("wrong shape: %v", err)
	}
	own := ndarray.New[float32](10)
	if err := adopt.SetBuffer(own); err != nil {
		t.Fatal(err)
	}
	raw, _ := adopt.RawData()
	raw.Set(5, 9)
	if own.At(9) != 5 {
		t.Error("adopted storage not shared")
	}
}

func TestIntegerDataNeedsFill(t *testing.T) {
	b := newBuffer[int32](t, api.KindNav)
	if err := b.BindDataset(scenarioDataset(t), scenarioROI); err != nil {
		t.Fatal(err)
	}
	if err := b.Allocate(); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Data(); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("int Data with roi: %v", err)
	}
	data, err := b.DataWithFill(-1)
	if err != nil {
		t.Fatal(err)
	}
	if data.At(1) != -1 || data.At(0) != 0 {
		t.Errorf("filled data = %v", data.Values())
	}
}

func TestDatasetNavShapeRestored(t *testing.T) {
	ds, _ := fake.NewDataset([]int{2, 5}, []int{3, 3})
	b := newBuffer[float32](t, api.KindNav)
	if err := b.BindDataset(ds, nil); err != nil {
		t.Fatal(err)
	}
	if !shape.EqualInts(b.PhysicalShape(), []int{10}) {
		t.Fatalf("physical = %v", b.PhysicalShape())
	}
	if err := b.Allocate(); err != nil {
		t.Fatal(err)
	}
	raw, _ := b.RawData()
	raw.Set(7, 6)
	data, err := b.Data()
	if err != nil {
		t.Fatal(err)
	}
	if !shape.EqualInts(data.Shape(), []int{2, 5}) || data.At(1, 1) != 7 {
		t.Errorf("data shape %v", data.Shape())
	}
}

type flakyAllocator struct {
	pool.Allocator
	fail int
}

func (f *flakyAllocator) Alloc(size int) (*pool.Region, error) {
	if f.fail > 0 {
		f.fail--
		return nil, api.NewError(api.ErrCodeResourceExhausted, "out of memory")
	}
	return f.Allocator.Alloc(size)
}

func TestFailedAllocationIsRetryable(t *testing.T) {
	a := &flakyAllocator{Allocator: pool.NewHeapAllocator(), fail: 1}
	b, err := New[float32](api.KindSig, nil, WithAllocator(a))
	if err != nil {
		t.Fatal(err)
	}
	if err := b.BindDataset(scenarioDataset(t), nil); err != nil {
		t.Fatal(err)
	}
	if err := b.Allocate(); !errors.Is(err, api.ErrResourceExhausted) {
		t.Fatalf("first allocate: %v", err)
	}
	if b.HasData() {
		t.Fatal("failed allocation left data behind")
	}
	if err := b.Allocate(); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestReleaseFreesRegion(t *testing.T) {
	a := pool.NewHeapAllocator()
	b, _ := New[complex128](api.KindSig, []int{2}, WithAllocator(a))
	if err := b.BindDataset(scenarioDataset(t), nil); err != nil {
		t.Fatal(err)
	}
	if err := b.Allocate(); err != nil {
		t.Fatal(err)
	}
	if s := a.Stats(); s.BytesInUse != 4096 {
		t.Errorf("in use = %d", s.BytesInUse)
	}
	if err := b.Release(); err != nil {
		t.Fatal(err)
	}
	if s := a.Stats(); s.BytesInUse != 0 || s.Frees != 1 {
		t.Errorf("after release: %+v", s)
	}
	if b.HasData() {
		t.Error("released buffer reports data")
	}
}

func TestBindPartition_MultiAxisNavWithROI(t *testing.T) {
	p := fake.NewPartitionFromSlice(shape.Slice{
		Origin: []int{0, 0, 0, 0},
		Shape:  shape.MustNew([]int{2, 5, 4, 4}, 2),
	})
	for _, kind := range []api.Kind{api.KindSig, api.KindSingle} {
		b := newBuffer[float32](t, kind)
		if err := b.BindPartition(p, scenarioROI); err != nil {
			t.Errorf("%s: %v", kind, err)
			continue
		}
		if err := b.Allocate(); err != nil {
			t.Fatal(err)
		}
		if _, err := b.ViewForPartition(p); err != nil {
			t.Errorf("%s view: %v", kind, err)
		}
	}
	nav := newBuffer[float32](t, api.KindNav)
	if err := nav.BindPartition(p, scenarioROI); !errors.Is(err, api.ErrInvalidArgument) {
		t.Errorf("nav: %v", err)
	}
}
