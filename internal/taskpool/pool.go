// Copyright 2015 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package taskpool provides the three independently-bounded worker pools
// spec.md §4.6 names (folder/file/upload), each backed by
// github.com/odeke-em/semalim the way the teacher's Push and Pull
// (src/push.go, src/pull.go) drive a single flat pool: a jobs channel fed
// by a producer goroutine, consumed by semalim.Run at a fixed
// concurrency, with results drained in a loop.
//
// A worker may submit a task to any pool, including its own, while it is
// itself running inside that pool. A submission is "self" only when the
// caller is already executing as a task inside the very pool it is
// submitting to (tracked via a context value set on each job); that case
// must never block on a free worker or it can deadlock a small, fixed
// pool recursing into itself, so self-submissions go straight onto an
// internal unbounded relay queue. Every other submission — the
// cross-pool case spec.md §5 describes, where a folder worker hands a
// file off to the file pool, or a file worker hands an upload off to the
// upload pool — is bounded by the pool's capacity: Submit blocks the
// caller once that many jobs are already queued or running, so a fast
// producer pool is throttled by a slower consumer pool instead of
// growing an unbounded backlog in memory.
package taskpool

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/odeke-em/semalim"
)

// Func is the work a submitted task performs.
type Func func(ctx context.Context) (interface{}, error)

// Future is the handle returned by Submit, spec.md §4.6's `Future<T>`.
type Future struct {
	done  chan struct{}
	value interface{}
	err   error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) complete(v interface{}, err error) {
	f.value, f.err = v, err
	close(f.done)
}

// Wait blocks until the task completes and returns its result.
func (f *Future) Wait() (interface{}, error) {
	<-f.done
	return f.value, f.err
}

type job struct {
	id      uint64
	ctx     context.Context
	fn      Func
	future  *Future
	release func()
}

func (j *job) Id() interface{} { return j.id }

func (j *job) Do() (interface{}, error) {
	v, err := j.fn(j.ctx)
	j.future.complete(v, err)
	if j.release != nil {
		j.release()
	}
	return v, err
}

// poolNameKey tags a task's context with the name of the pool it is
// currently running in, so a nested Submit call can tell whether it is
// resubmitting into that same pool (self) or handing off to a different
// one (external, and therefore capacity-bounded).
type poolNameKey struct{}

func withPoolName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, poolNameKey{}, name)
}

func runningIn(ctx context.Context, name string) bool {
	running, _ := ctx.Value(poolNameKey{}).(string)
	return running == name
}

// Pool is one bounded worker pool with an unbounded self-submission relay
// in front of it and a capacity-bounded admission gate for everything
// else.
type Pool struct {
	Name        string
	concurrency uint64
	capacity    uint64
	onTaskError func(err error)

	in     chan semalim.Job
	out    chan semalim.Job
	tokens chan struct{}

	nextID uint64

	errCount int64

	closeOnce sync.Once
	closed    int32
	done      chan struct{}
	wg        sync.WaitGroup
}

// New creates a Pool with the given fixed worker count and a bounded
// capacity for external (cross-pool) submissions — spec.md §5's "the
// file pool's input queue has a bounded capacity (e.g. 4x worker count)
// so that folder workers block" once it fills. capacity == 0 defaults to
// 4x concurrency. onTaskError, if non-nil, is invoked (with the
// originating error) for every failed task, the way spec.md §4.6
// requires failures be "logged with the originating path context"
// without terminating the pool.
func New(name string, concurrency, capacity uint64, onTaskError func(err error)) *Pool {
	if concurrency == 0 {
		concurrency = 1
	}
	if capacity == 0 {
		capacity = concurrency * 4
	}

	p := &Pool{
		Name:        name,
		concurrency: concurrency,
		capacity:    capacity,
		onTaskError: onTaskError,
		in:          make(chan semalim.Job),
		out:         make(chan semalim.Job),
		tokens:      make(chan struct{}, capacity),
		done:        make(chan struct{}),
	}

	p.wg.Add(2)
	go p.relay()
	go p.consumeResults()

	return p
}

// relay forwards queued jobs from the unbounded `in` side to the bounded
// `out` side semalim actually dispatches from, buffering in memory so
// that Submit() from a busy worker never blocks waiting for a peer
// worker to free up.
func (p *Pool) relay() {
	defer p.wg.Done()
	defer close(p.out)

	var queue []semalim.Job

	for {
		if len(queue) == 0 {
			item, ok := <-p.in
			if !ok {
				return
			}
			queue = append(queue, item)
			continue
		}

		select {
		case item, ok := <-p.in:
			if !ok {
				for _, q := range queue {
					p.out <- q
				}
				return
			}
			queue = append(queue, item)
		case p.out <- queue[0]:
			queue = queue[1:]
		}
	}
}

func (p *Pool) consumeResults() {
	defer p.wg.Done()

	results := semalim.Run(p.out, p.concurrency)
	for result := range results {
		if err := result.Err(); err != nil {
			atomic.AddInt64(&p.errCount, 1)
			if p.onTaskError != nil {
				p.onTaskError(err)
			}
		}
	}
}

// Submit enqueues fn and returns a Future for its result. A self
// resubmission (fn is running as a task inside this same pool) never
// blocks on worker availability, preserving deadlock-freedom; every
// other submission blocks once p.capacity jobs are already queued or
// running in this pool, giving the producer side real backpressure.
func (p *Pool) Submit(ctx context.Context, fn Func) *Future {
	future := newFuture()

	if atomic.LoadInt32(&p.closed) == 1 {
		future.complete(nil, context.Canceled)
		return future
	}

	var release func()
	if !runningIn(ctx, p.Name) {
		select {
		case p.tokens <- struct{}{}:
		case <-p.done:
			future.complete(nil, context.Canceled)
			return future
		}
		var once sync.Once
		release = func() { once.Do(func() { <-p.tokens }) }
	}

	id := atomic.AddUint64(&p.nextID, 1)
	j := &job{id: id, ctx: withPoolName(ctx, p.Name), fn: fn, future: future, release: release}

	select {
	case p.in <- j:
	case <-p.done:
		future.complete(nil, context.Canceled)
		if release != nil {
			release()
		}
	}

	return future
}

// ErrorCount reports the number of tasks this pool has seen fail, spec.md
// §4.6's "per-pool error counter ... exposed to the engine."
func (p *Pool) ErrorCount() int64 {
	return atomic.LoadInt64(&p.errCount)
}

// Shutdown drains the pool: tasks already submitted run to completion;
// new submissions after Shutdown returns are rejected.
func (p *Pool) Shutdown() {
	p.closeOnce.Do(func() {
		atomic.StoreInt32(&p.closed, 1)
		close(p.done)
		close(p.in)
	})
	p.wg.Wait()
}
