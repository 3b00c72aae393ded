// File: internal/concurrency/executor.go
// Package concurrency implements a fixed-size task executor.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Executor dispatches tasks to worker goroutines through a bounded queue.
// Workers optionally lock to an OS thread pinned to one CPU.

package concurrency

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-udfbuf/internal/normalize"
)

// ErrExecutorClosed is returned by Submit after Close.
var ErrExecutorClosed = errors.New("executor closed")

var logf = func(format string, args ...any) {
	log.Printf("[executor] "+format, args...)
}

// TaskFunc is a unit of work to execute.
type TaskFunc func()

// Options tune an Executor.
type Options struct {
	Workers    int  // <= 0 means runtime.NumCPU()
	QueueDepth int  // <= 0 means 4 per worker
	Pin        bool // pin worker i to CPU i % NumCPU
}

// Executor manages a pool of worker goroutines.
type Executor struct {
	queue      chan TaskFunc
	closeCh    chan struct{}
	closeOnce  sync.Once
	workers    sync.WaitGroup
	pending    sync.WaitGroup
	numWorkers int

	stats execStats
}

// execStats keeps hot counters on separate cache lines.
type execStats struct {
	submitted atomic.Int64
	_         cpu.CacheLinePad
	completed atomic.Int64
	_         cpu.CacheLinePad
	panics    atomic.Int64
}

// NewExecutor starts the workers.
func NewExecutor(opts Options) *Executor {
	n := normalize.Workers(opts.Workers)
	depth := normalize.QueueDepth(opts.QueueDepth, n*4)
	e := &Executor{
		queue:      make(chan TaskFunc, depth),
		closeCh:    make(chan struct{}),
		numWorkers: n,
	}
	for i := 0; i < n; i++ {
		e.workers.Add(1)
		go e.run(i, opts.Pin)
	}
	return e
}

// Submit enqueues a task, blocking while the queue is full.
func (e *Executor) Submit(task TaskFunc) error {
	select {
	case <-e.closeCh:
		return ErrExecutorClosed
	default:
	}
	e.pending.Add(1)
	select {
	case e.queue <- task:
		e.stats.submitted.Add(1)
		return nil
	case <-e.closeCh:
		e.pending.Done()
		return ErrExecutorClosed
	}
}

// Wait blocks until every submitted task has finished.
func (e *Executor) Wait() {
	e.pending.Wait()
}

// NumWorkers returns the number of workers.
func (e *Executor) NumWorkers() int { return e.numWorkers }

// Close stops accepting tasks, lets queued tasks finish and waits for the
// workers to exit.
func (e *Executor) Close() {
	e.closeOnce.Do(func() {
		close(e.closeCh)
	})
	e.workers.Wait()
	// tasks that raced with Close still run
	for {
		select {
		case task := <-e.queue:
			e.execute(task)
		default:
			return
		}
	}
}

// Stats returns basic executor metrics.
func (e *Executor) Stats() map[string]int64 {
	submitted := e.stats.submitted.Load()
	completed := e.stats.completed.Load()
	return map[string]int64{
		"submitted_tasks": submitted,
		"completed_tasks": completed,
		"pending_tasks":   submitted - completed,
		"panics":          e.stats.panics.Load(),
		"num_workers":     int64(e.numWorkers),
	}
}

func (e *Executor) run(id int, pin bool) {
	defer e.workers.Done()
	if pin {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if err := pinCurrentThread(normalize.CPUIndex(id, runtime.NumCPU())); err != nil {
			logf("worker %d: pinning failed: %v", id, err)
		}
	}
	for {
		select {
		case task := <-e.queue:
			e.execute(task)
		case <-e.closeCh:
			// drain what was accepted before Close
			for {
				select {
				case task := <-e.queue:
					e.execute(task)
				default:
					return
				}
			}
		}
	}
}

// execute runs the task, recovering from panics to keep the worker alive.
func (e *Executor) execute(task TaskFunc) {
	defer func() {
		if r := recover(); r != nil {
			e.stats.panics.Add(1)
			logf("task panicked: %v", fmt.Sprint(r))
		}
		e.stats.completed.Add(1)
		e.pending.Done()
	}()
	task()
}
