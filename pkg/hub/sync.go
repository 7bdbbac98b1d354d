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

package hub

import (
	"context"
	"sync"
	"time"
)

// barrier gates a fixed set of participants until every one of them
// has arrived.
type barrier struct {
	mu           sync.Mutex
	participants map[string]bool
	arrived      map[string]bool
	done         chan struct{}
	closed       bool
}

func (b *barrier) cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.done)
	}
}

// CreateBarrier registers a barrier with the given named participants.
func (h *Hub) CreateBarrier(name string, participants []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := make(map[string]bool, len(participants))
	for _, p := range participants {
		set[p] = true
	}
	h.barriers[name] = &barrier{
		participants: set,
		arrived:      make(map[string]bool),
		done:         make(chan struct{}),
	}
}

// ArriveAtBarrier marks agentID as arrived at name and blocks until
// every participant has arrived (nil), name's barrier is destroyed
// before that (an error), or ctx is cancelled.
func (h *Hub) ArriveAtBarrier(ctx context.Context, name, agentID string) error {
	h.mu.RLock()
	b, ok := h.barriers[name]
	h.mu.RUnlock()
	if !ok {
		return newError("ArriveAtBarrier", "no such barrier: "+name)
	}

	b.mu.Lock()
	if !b.closed {
		b.arrived[agentID] = true
		if len(b.arrived) >= len(b.participants) {
			allArrived := true
			for p := range b.participants {
				if !b.arrived[p] {
					allArrived = false
					break
				}
			}
			if allArrived {
				b.closed = true
				close(b.done)
			}
		}
	}
	b.mu.Unlock()

	select {
	case <-b.done:
		b.mu.Lock()
		defer b.mu.Unlock()
		for p := range b.participants {
			if !b.arrived[p] {
				return newError("ArriveAtBarrier", "barrier destroyed before every participant arrived")
			}
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// collector gathers exactly `expected` submissions keyed by submitter.
type collector struct {
	mu       sync.Mutex
	expected int
	results  map[string]any
	done     chan struct{}
	closed   bool
}

func (c *collector) cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
}

// CreateCollector registers a collector expecting `expected` results.
func (h *Hub) CreateCollector(id string, expected int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.collectors[id] = &collector{
		expected: expected,
		results:  make(map[string]any),
		done:     make(chan struct{}),
	}
}

// SubmitResult records from's value for collector id.
func (h *Hub) SubmitResult(id, from string, value any) error {
	h.mu.RLock()
	c, ok := h.collectors[id]
	h.mu.RUnlock()
	if !ok {
		return newError("SubmitResult", "no such collector: "+id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return newError("SubmitResult", "collector closed")
	}
	c.results[from] = value
	if len(c.results) >= c.expected {
		c.closed = true
		close(c.done)
	}
	return nil
}

// WaitForAll blocks until collector id has received its expected
// count of submissions, or timeout/ctx elapses.
func (h *Hub) WaitForAll(ctx context.Context, id string, timeout time.Duration) (map[string]any, error) {
	h.mu.RLock()
	c, ok := h.collectors[id]
	h.mu.RUnlock()
	if !ok {
		return nil, newError("WaitForAll", "no such collector: "+id)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-c.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		if len(c.results) < c.expected {
			return nil, newError("WaitForAll", "collector destroyed before completion")
		}
		out := make(map[string]any, len(c.results))
		for k, v := range c.results {
			out[k] = v
		}
		return out, nil
	case <-timer.C:
		return nil, newError("WaitForAll", "timed out waiting for all results")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
