// File: runner/runner.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// In-process driver for partitioned reductions. Each partition runs as one
// executor task that owns its partition buffers; results are merged into
// dataset buffers by the calling goroutine only.

package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/momentics/hioload-udfbuf/api"
	"github.com/momentics/hioload-udfbuf/buffer"
	"github.com/momentics/hioload-udfbuf/control"
	"github.com/momentics/hioload-udfbuf/internal/concurrency"
	"github.com/momentics/hioload-udfbuf/merge"
	"github.com/momentics/hioload-udfbuf/pool"
	"github.com/momentics/hioload-udfbuf/roi"
)

var logf = func(format string, args ...any) {
	log.Printf("[runner] "+format, args...)
}

// BufferDecl declares one result buffer of a job.
type BufferDecl[T api.Element] struct {
	Kind  api.Kind
	Extra []int
	Merge merge.Func[T] // nil selects merge.DefaultFunc
}

// Task is what Process sees for one partition.
type Task[T api.Element] struct {
	Partition api.Partition
	ROI       roi.Mask
	Buffers   map[string]*buffer.Buffer[T]
}

// Buffer returns the partition buffer declared under name, or nil.
func (t *Task[T]) Buffer(name string) *buffer.Buffer[T] { return t.Buffers[name] }

// Job is a partitioned reduction: its buffers and the per-partition work.
type Job[T api.Element] struct {
	Buffers map[string]BufferDecl[T]
	Process func(ctx context.Context, t *Task[T]) error
}

func (j Job[T]) validate() error {
	if j.Process == nil {
		return api.NewError(api.ErrCodeInvalidArgument, "job has no Process function")
	}
	if len(j.Buffers) == 0 {
		return api.NewError(api.ErrCodeInvalidArgument, "job declares no buffers")
	}
	for name, d := range j.Buffers {
		if !d.Kind.Valid() {
			return api.Errorf(api.ErrCodeInvalidArgument, "unknown kind %d", int(d.Kind)).
				WithContext("buffer", name)
		}
	}
	return nil
}

func (j Job[T]) names() []string {
	out := make([]string, 0, len(j.Buffers))
	for name := range j.Buffers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Option configures Run.
type Option func(*options)

type options struct {
	metrics *control.MetricsRegistry
	probes  *control.DebugProbes
	alloc   pool.Allocator
}

// WithMetrics publishes pool.* and merge.* counters into reg when Run ends.
func WithMetrics(reg *control.MetricsRegistry) Option {
	return func(o *options) { o.metrics = reg }
}

// WithDebug registers a probe dumping the dataset buffers' state.
func WithDebug(dp *control.DebugProbes) Option {
	return func(o *options) { o.probes = dp }
}

// WithAllocator overrides the allocator built from the configuration.
func WithAllocator(a pool.Allocator) Option {
	return func(o *options) { o.alloc = a }
}

// Run executes job over partitions of ds and returns the merged dataset
// buffers by name. mask is the dataset-level ROI over the flattened
// navigation axis, or nil. On error every buffer is released.
//
// Cancelling ctx abandons partitions that have not started; Run then
// returns ctx's error.
func Run[T api.Element](ctx context.Context, cfg control.Config, ds api.Dataset,
	partitions []api.Partition, mask roi.Mask, job Job[T], opts ...Option) (map[string]*buffer.Buffer[T], error) {
	if err := job.validate(); err != nil {
		return nil, err
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.alloc == nil {
		o.alloc = pool.FromConfig(cfg)
	}

	merger := merge.NewMerger[T]()
	results := make(map[string]*buffer.Buffer[T], len(job.Buffers))
	releaseAll := func() {
		for _, b := range results {
			_ = b.Release()
		}
	}
	for _, name := range job.names() {
		d := job.Buffers[name]
		b, err := buffer.New[T](d.Kind, d.Extra, buffer.WithAllocator(o.alloc))
		if err == nil {
			err = b.BindDataset(ds, mask)
		}
		if err == nil {
			err = b.Allocate()
		}
		if err == nil {
			results[name] = b
			err = merger.Register(name, b, d.Merge)
		}
		if err != nil {
			releaseAll()
			return nil, withBuffer(err, name)
		}
	}
	merger.OnDone(func(r merge.Result[T], _ error) {
		for _, b := range r.Buffers {
			_ = b.Release()
		}
	})
	if o.probes != nil {
		o.probes.RegisterProbe("runner.buffers", func() any {
			out := make(map[string]any, len(results))
			for name, b := range results {
				out[name] = b.Describe()
			}
			return out
		})
	}

	err := execute(ctx, cfg, partitions, mask, job, o.alloc, merger)
	if o.metrics != nil {
		pool.Publish(o.metrics, "pool", o.alloc)
		merger.Publish(o.metrics, "merge")
	}
	if err != nil {
		releaseAll()
		return nil, err
	}
	return results, nil
}

func execute[T api.Element](ctx context.Context, cfg control.Config, partitions []api.Partition,
	mask roi.Mask, job Job[T], alloc pool.Allocator, merger *merge.Merger[T]) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	exec := concurrency.NewExecutor(concurrency.Options{
		Workers:    cfg.Workers,
		QueueDepth: cfg.MergeQueueHint,
		Pin:        cfg.PinWorkers,
	})
	defer exec.Close()

	var (
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for _, p := range partitions {
		if ctx.Err() != nil {
			break
		}
		p := p
		err := exec.Submit(func() {
			if ctx.Err() != nil {
				return
			}
			r, err := runPartition(ctx, p, mask, job, alloc)
			if err == nil {
				err = merger.Enqueue(r)
			}
			if err != nil {
				releaseResult(r)
				fail(err)
			}
		})
		if err != nil {
			fail(api.NewError(api.ErrCodeInternal, "submit partition").WithCause(err))
			break
		}
		if _, err := merger.Drain(); err != nil {
			fail(err)
		}
	}
	exec.Wait()
	if _, err := merger.Drain(); err != nil {
		fail(err)
	}
	// results left behind a failed drain
	for merger.Len() > 0 {
		if _, err := merger.Drain(); err == nil {
			break
		}
	}

	if firstErr != nil {
		return firstErr
	}
	return context.Cause(ctx)
}

// runPartition creates the partition buffers and runs the job on them.
// Panics in Process become internal errors.
func runPartition[T api.Element](ctx context.Context, p api.Partition, mask roi.Mask,
	job Job[T], alloc pool.Allocator) (r merge.Result[T], err error) {
	r = merge.Result[T]{Partition: p, Buffers: make(map[string]*buffer.Buffer[T], len(job.Buffers))}
	for _, name := range job.names() {
		d := job.Buffers[name]
		b, err := buffer.New[T](d.Kind, d.Extra, buffer.WithAllocator(alloc))
		if err == nil {
			err = b.BindPartition(p, mask)
		}
		if err == nil {
			err = b.Allocate()
		}
		if err != nil {
			return r, withBuffer(err, name)
		}
		r.Buffers[name] = b
	}
	defer func() {
		if rec := recover(); rec != nil {
			logf("partition %v panicked: %v", p.Slice(), rec)
			err = api.NewError(api.ErrCodeInternal, fmt.Sprint("process panicked: ", rec)).
				WithContext("partition", p.Slice().String())
		}
	}()
	err = job.Process(ctx, &Task[T]{Partition: p, ROI: mask, Buffers: r.Buffers})
	return r, err
}

func releaseResult[T api.Element](r merge.Result[T]) {
	for _, b := range r.Buffers {
		_ = b.Release()
	}
}

func withBuffer(err error, name string) error {
	var e *api.Error
	if errors.As(err, &e) {
		return e.WithContext("buffer", name)
	}
	return api.NewError(api.ErrCodeInternal, err.Error()).WithCause(err).WithContext("buffer", name)
}
