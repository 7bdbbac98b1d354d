// Copyright 2025 Chitragupta Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package queue

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Priority orders pending items. Lower value runs first.
type Priority int

const (
	PriorityHigh Priority = iota
	PriorityNormal
	PriorityLow
)

// ErrCancelled is returned to a handle's Wait when the item was
// cancelled, either individually or via CancelAll.
var ErrCancelled = errors.New("queue: cancelled")

// Fn is the async operation a caller enqueues. It must observe ctx for
// cancellation; the queue has no way to force it to stop otherwise.
type Fn func(ctx context.Context) (any, error)

// Result is what a Handle's Wait resolves to.
type Result struct {
	Value any
	Err   error
}

const (
	statusPending int32 = iota
	statusActive
	statusDone
)

// Handle is returned by Enqueue. Wait blocks for the result; Cancel
// removes a pending item or aborts an active one's context.
type Handle struct {
	ID       string
	resultCh chan Result
	status   atomic.Int32
	cancelFn atomic.Value // context.CancelFunc
	q        *Queue
}

// Wait blocks until the item resolves (completed, failed, or cancelled).
func (h *Handle) Wait(ctx context.Context) (any, error) {
	select {
	case r := <-h.resultCh:
		return r.Value, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel removes a pending item (rejecting it) or, if active, aborts
// its AbortSignal-equivalent context; the Fn is responsible for
// observing that and returning promptly.
func (h *Handle) Cancel() {
	h.q.cancel(h)
}

type item struct {
	id       string
	fn       Fn
	priority Priority
	seq      int64
	timeout  time.Duration
	handle   *Handle
}

type itemHeap []*item

func (h itemHeap) Len() int { return len(h) }
func (h itemHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *itemHeap) Push(x any)   { *h = append(*h, x.(*item)) }
func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// Queue is a priority-ordered concurrency gate.
type Queue struct {
	concurrency    int
	defaultTimeout time.Duration

	mu      sync.Mutex
	pending itemHeap
	active  map[string]*item
	seq     int64
	wake    chan struct{}
}

// New creates a Queue admitting at most concurrency items at once.
func New(concurrency int, defaultTimeout time.Duration) *Queue {
	q := &Queue{
		concurrency:    concurrency,
		defaultTimeout: defaultTimeout,
		active:         make(map[string]*item),
		wake:           make(chan struct{}, 1),
	}
	heap.Init(&q.pending)
	go q.dispatchLoop()
	return q
}

// Enqueue schedules fn for execution under the concurrency cap,
// ordered by priority (stable within priority). A timeout of zero or
// less uses the queue's default.
func (q *Queue) Enqueue(fn Fn, priority Priority, timeout time.Duration) *Handle {
	if timeout <= 0 {
		timeout = q.defaultTimeout
	}
	h := &Handle{ID: uuid.NewString(), resultCh: make(chan Result, 1), q: q}

	q.mu.Lock()
	it := &item{id: h.ID, fn: fn, priority: priority, seq: q.seq, timeout: timeout, handle: h}
	q.seq++
	heap.Push(&q.pending, it)
	q.mu.Unlock()

	q.nudge()
	return h
}

func (q *Queue) nudge() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) dispatchLoop() {
	for {
		q.mu.Lock()
		for len(q.pending) > 0 && len(q.active) < q.concurrency {
			it := heap.Pop(&q.pending).(*item)
			q.active[it.id] = it
			go q.run(it)
		}
		q.mu.Unlock()
		<-q.wake
	}
}

func (q *Queue) run(it *item) {
	ctx := context.Background()
	var cancel context.CancelFunc
	if it.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, it.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()
	it.handle.cancelFn.Store(cancel)
	it.handle.status.Store(statusActive)

	value, err := it.fn(ctx)
	q.resolve(it, Result{Value: value, Err: err})
}

// resolve delivers a result exactly once; the status field gates this.
func (q *Queue) resolve(it *item, r Result) {
	if !it.handle.status.CompareAndSwap(statusPending, statusDone) &&
		!it.handle.status.CompareAndSwap(statusActive, statusDone) {
		return
	}
	it.handle.resultCh <- r

	q.mu.Lock()
	delete(q.active, it.id)
	q.mu.Unlock()
	q.nudge()
}

func (q *Queue) cancel(h *Handle) {
	q.mu.Lock()
	for i, it := range q.pending {
		if it.id == h.ID {
			heap.Remove(&q.pending, i)
			q.mu.Unlock()
			q.resolve(it, Result{Err: ErrCancelled})
			return
		}
	}
	active, ok := q.active[h.ID]
	q.mu.Unlock()
	if !ok {
		return
	}
	if cancelFn, ok := active.handle.cancelFn.Load().(context.CancelFunc); ok {
		cancelFn()
	}
}

// CancelAll force-rejects everything immediately; any later resolution
// attempt from a still-running Fn is ignored by the status gate.
func (q *Queue) CancelAll() {
	q.mu.Lock()
	pending := make([]*item, len(q.pending))
	copy(pending, q.pending)
	q.pending = q.pending[:0]
	active := make([]*item, 0, len(q.active))
	for _, it := range q.active {
		active = append(active, it)
	}
	q.mu.Unlock()

	for _, it := range pending {
		q.resolve(it, Result{Err: ErrCancelled})
	}
	for _, it := range active {
		if cancelFn, ok := it.handle.cancelFn.Load().(context.CancelFunc); ok {
			cancelFn()
		}
		q.resolve(it, Result{Err: ErrCancelled})
	}
}

// Drain blocks until pending == 0 && active == 0.
func (q *Queue) Drain(ctx context.Context) error {
	for {
		q.mu.Lock()
		empty := len(q.pending) == 0 && len(q.active) == 0
		if empty {
			q.mu.Unlock()
			return nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// Stats reports the current pending/active counts, for observability.
func (q *Queue) Stats() (pending, active int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending), len(q.active)
}
