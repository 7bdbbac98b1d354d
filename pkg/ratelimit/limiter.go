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

package ratelimit

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token-bucket rate limiter with dual rpm/tpm sliding
// windows and a priority-ordered slow path, scoped to one provider.
type Limiter struct {
	cfg Config

	mu        sync.Mutex
	requests  *slidingWindow
	tokens    *slidingWindow
	waiters   waiterHeap
	seq       int64
	destroyed bool

	pacer      *rate.Limiter
	drainOnce  sync.Once
	drainStop  chan struct{}
	drainWake  chan struct{}
	now        func() time.Time
}

// New creates a Limiter for one provider scope.
func New(cfg Config) *Limiter {
	l := &Limiter{
		cfg:       cfg,
		requests:  newSlidingWindow(cfg.windowDuration()),
		tokens:    newSlidingWindow(cfg.windowDuration()),
		pacer:     rate.NewLimiter(rate.Every(cfg.drainInterval()), 1),
		drainStop: make(chan struct{}),
		drainWake: make(chan struct{}, 1),
		now:       time.Now,
	}
	heap.Init(&l.waiters)
	go l.drainLoop()
	return l
}

type waiter struct {
	tokens   int64
	priority Priority
	seq      int64
	grant    chan error
}

// waiterHeap orders by priority, then by arrival order (seq), so that
// waiters at the same priority are serviced FIFO.
type waiterHeap []*waiter

func (h waiterHeap) Len() int { return len(h) }
func (h waiterHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h waiterHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *waiterHeap) Push(x any)        { *h = append(*h, x.(*waiter)) }
func (h *waiterHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// HasCapacity reports whether tokens more would fit under both windows
// without recording anything.
func (l *Limiter) HasCapacity(tokens int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasCapacityLocked(tokens)
}

func (l *Limiter) hasCapacityLocked(tokens int) bool {
	now := l.now()
	if l.cfg.RequestsPerMinute > 0 && l.requests.count(now) >= l.cfg.RequestsPerMinute {
		return false
	}
	if l.cfg.TokensPerMinute > 0 {
		if l.tokens.evict(now)+int64(tokens) > int64(l.cfg.TokensPerMinute) {
			return false
		}
	}
	return true
}

// Acquire admits the caller either immediately or after queuing until
// capacity frees up, honoring priority and ctx cancellation.
func (l *Limiter) Acquire(ctx context.Context, tokens int, priority Priority) error {
	l.mu.Lock()
	if l.destroyed {
		l.mu.Unlock()
		return ErrDestroyed
	}
	if l.hasCapacityLocked(tokens) {
		now := l.now()
		l.requests.record(now, 1)
		l.tokens.record(now, int64(tokens))
		l.mu.Unlock()
		return nil
	}

	w := &waiter{tokens: int64(tokens), priority: priority, seq: l.seq, grant: make(chan error, 1)}
	l.seq++
	heap.Push(&l.waiters, w)
	l.mu.Unlock()

	select {
	case l.drainWake <- struct{}{}:
	default:
	}

	select {
	case err := <-w.grant:
		return err
	case <-ctx.Done():
		l.removeWaiter(w)
		return ctx.Err()
	}
}

func (l *Limiter) removeWaiter(target *waiter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, w := range l.waiters {
		if w == target {
			heap.Remove(&l.waiters, i)
			return
		}
	}
}

// drainLoop periodically admits queued waiters in priority order as
// capacity frees up. The pacer (golang.org/x/time/rate) governs how
// often we bother checking, rather than a bare time.Ticker.
func (l *Limiter) drainLoop() {
	for {
		select {
		case <-l.drainStop:
			return
		case <-l.drainWake:
		case <-time.After(l.cfg.drainInterval()):
		}

		ctx, cancel := context.WithTimeout(context.Background(), l.cfg.drainInterval())
		_ = l.pacer.Wait(ctx)
		cancel()

		l.drainStep()
	}
}

func (l *Limiter) drainStep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.waiters.Len() > 0 {
		head := l.waiters[0]
		if !l.hasCapacityLocked(int(head.tokens)) {
			return
		}
		heap.Pop(&l.waiters)
		now := l.now()
		l.requests.record(now, 1)
		l.tokens.record(now, head.tokens)
		head.grant <- nil
	}
}

// Reset drops both windows and rejects all queued waiters.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests.reset()
	l.tokens.reset()
	l.rejectAllLocked(ErrReset)
}

// Destroy rejects all queued waiters and disables further use.
func (l *Limiter) Destroy() {
	l.mu.Lock()
	l.destroyed = true
	l.rejectAllLocked(ErrDestroyed)
	l.mu.Unlock()
	close(l.drainStop)
}

func (l *Limiter) rejectAllLocked(err error) {
	for _, w := range l.waiters {
		w.grant <- err
	}
	l.waiters = nil
}
