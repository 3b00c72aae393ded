// File: merge/merger.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Merger owns a set of named dataset-level buffers and folds queued
// partition results into them.
//
// Enqueue may be called from any goroutine. Drain has a single owner: a
// second concurrent Drain fails with a contract violation rather than
// interleaving merges.

package merge

import (
	"errors"
	"log"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-udfbuf/api"
	"github.com/momentics/hioload-udfbuf/buffer"
	"github.com/momentics/hioload-udfbuf/control"
)

var logf = func(format string, args ...any) {
	log.Printf("[merge] "+format, args...)
}

// Result is the output of one partition: its partition buffers by name.
type Result[T api.Element] struct {
	Partition api.Partition
	Buffers   map[string]*buffer.Buffer[T]
}

type target[T api.Element] struct {
	buf *buffer.Buffer[T]
	fn  Func[T]
}

// Merger folds Results into dataset buffers in FIFO order.
type Merger[T api.Element] struct {
	mu      sync.Mutex
	targets map[string]target[T]
	names   []string
	pending *queue.Queue
	onDone  func(Result[T], error)

	draining atomic.Bool
	stats    mergeStats
}

type mergeStats struct {
	enqueued atomic.Int64
	_        cpu.CacheLinePad
	merged   atomic.Int64
	_        cpu.CacheLinePad
	failed   atomic.Int64
}

// NewMerger creates an empty merger.
func NewMerger[T api.Element]() *Merger[T] {
	return &Merger[T]{
		targets: make(map[string]target[T]),
		pending: queue.New(),
	}
}

// Register adds a dataset buffer under name. buf must hold storage. A nil
// fn selects DefaultFunc for the buffer's kind.
func (m *Merger[T]) Register(name string, buf *buffer.Buffer[T], fn Func[T]) error {
	if buf == nil || !buf.HasData() {
		return api.NewError(api.ErrCodeInvalidArgument, "merge target has no storage").
			WithContext("buffer", name)
	}
	if fn == nil {
		fn = DefaultFunc[T](buf.Kind())
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.targets[name]; dup {
		return api.NewError(api.ErrCodeInvalidArgument, "merge target registered twice").
			WithContext("buffer", name)
	}
	m.targets[name] = target[T]{buf: buf, fn: fn}
	m.names = append(m.names, name)
	sort.Strings(m.names)
	return nil
}

// OnDone sets a hook called by Drain for every result it pops, merged or
// failed. Callers use it to release partition buffers.
func (m *Merger[T]) OnDone(fn func(Result[T], error)) {
	m.mu.Lock()
	m.onDone = fn
	m.mu.Unlock()
}

// Buffer returns the dataset buffer registered under name.
func (m *Merger[T]) Buffer(name string) (*buffer.Buffer[T], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.targets[name]
	return t.buf, ok
}

// Enqueue queues r for the next Drain.
func (m *Merger[T]) Enqueue(r Result[T]) error {
	if r.Partition == nil {
		return api.NewError(api.ErrCodeInvalidArgument, "result without partition")
	}
	m.mu.Lock()
	m.pending.Add(r)
	m.mu.Unlock()
	m.stats.enqueued.Add(1)
	return nil
}

// Len returns the number of queued results.
func (m *Merger[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending.Length()
}

func (m *Merger[T]) pop() (Result[T], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending.Length() == 0 {
		return Result[T]{}, false
	}
	return m.pending.Remove().(Result[T]), true
}

// Drain merges every queued result and returns how many were merged. It
// stops at the first failing result, which is dropped; results queued
// behind it stay queued.
func (m *Merger[T]) Drain() (int, error) {
	if !m.draining.CompareAndSwap(false, true) {
		return 0, api.NewError(api.ErrCodeContractViolation, "concurrent drain")
	}
	defer m.draining.Store(false)

	n := 0
	for {
		r, ok := m.pop()
		if !ok {
			return n, nil
		}
		err := m.apply(r)
		m.mu.Lock()
		done := m.onDone
		m.mu.Unlock()
		if done != nil {
			done(r, err)
		}
		if err != nil {
			m.stats.failed.Add(1)
			logf("merge of %v failed: %v", r.Partition.Slice(), err)
			return n, err
		}
		m.stats.merged.Add(1)
		n++
	}
}

func (m *Merger[T]) apply(r Result[T]) error {
	m.mu.Lock()
	names := append([]string(nil), m.names...)
	m.mu.Unlock()
	for _, name := range names {
		m.mu.Lock()
		t := m.targets[name]
		m.mu.Unlock()
		src, ok := r.Buffers[name]
		if !ok || src == nil {
			return api.NewError(api.ErrCodeContractViolation, "result is missing a buffer").
				WithContext("buffer", name)
		}
		if src.Kind() != t.buf.Kind() {
			return api.Errorf(api.ErrCodeContractViolation,
				"result buffer is %s, target is %s", src.Kind(), t.buf.Kind()).WithContext("buffer", name)
		}
		srcData, err := src.RawData()
		if err != nil {
			return err
		}
		dst, err := t.buf.ViewForPartition(r.Partition)
		if err != nil {
			return err
		}
		if err := t.fn(dst, srcData); err != nil {
			var e *api.Error
			if errors.As(err, &e) {
				return e.WithContext("buffer", name)
			}
			return api.NewError(api.ErrCodeInternal, "merge function failed").
				WithCause(err).WithContext("buffer", name)
		}
	}
	return nil
}

// Stats returns merger counters.
func (m *Merger[T]) Stats() map[string]int64 {
	return map[string]int64{
		"enqueued": m.stats.enqueued.Load(),
		"merged":   m.stats.merged.Load(),
		"failed":   m.stats.failed.Load(),
		"pending":  int64(m.Len()),
	}
}

// Publish copies merger counters into reg under prefix.
func (m *Merger[T]) Publish(reg *control.MetricsRegistry, prefix string) {
	for k, v := range m.Stats() {
		reg.Set(prefix+"."+k, v)
	}
}
