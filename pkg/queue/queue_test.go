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
	"context"
	"testing"
	"time"
)

func TestEnqueueRespectsConcurrency(t *testing.T) {
	q := New(1, time.Second)
	started := make(chan struct{}, 2)
	release := make(chan struct{})

	fn := func(ctx context.Context) (any, error) {
		started <- struct{}{}
		<-release
		return "ok", nil
	}

	h1 := q.Enqueue(fn, PriorityNormal, 0)
	h2 := q.Enqueue(fn, PriorityNormal, 0)

	<-started
	select {
	case <-started:
		t.Fatal("second item started before first released, concurrency=1 violated")
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	v1, err1 := h1.Wait(context.Background())
	if err1 != nil || v1 != "ok" {
		t.Fatalf("h1: %v %v", v1, err1)
	}
	v2, err2 := h2.Wait(context.Background())
	if err2 != nil || v2 != "ok" {
		t.Fatalf("h2: %v %v", v2, err2)
	}
}

func TestPriorityOrder(t *testing.T) {
	q := New(1, time.Second)
	started := make(chan struct{})
	release := make(chan struct{})
	blocker := func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return nil, nil
	}
	q.Enqueue(blocker, PriorityNormal, 0)
	<-started

	order := make(chan string, 2)
	mk := func(label string) Fn {
		return func(ctx context.Context) (any, error) {
			order <- label
			return nil, nil
		}
	}
	q.Enqueue(mk("low"), PriorityLow, 0)
	time.Sleep(10 * time.Millisecond)
	q.Enqueue(mk("high"), PriorityHigh, 0)

	close(release)
	first := <-order
	<-order
	if first != "high" {
		t.Fatalf("expected high priority to run first, got %s", first)
	}
}

func TestCancelPending(t *testing.T) {
	q := New(1, time.Second)
	started := make(chan struct{})
	release := make(chan struct{})
	q.Enqueue(func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return nil, nil
	}, PriorityNormal, 0)
	<-started

	h := q.Enqueue(func(ctx context.Context) (any, error) { return "never", nil }, PriorityNormal, 0)
	h.Cancel()

	_, err := h.Wait(context.Background())
	if err != ErrCancelled {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	close(release)
}

func TestTimeout(t *testing.T) {
	q := New(1, 20*time.Millisecond)
	h := q.Enqueue(func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, PriorityNormal, 0)

	_, err := h.Wait(context.Background())
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestCancelAllForceRejectsActive(t *testing.T) {
	q := New(2, time.Second)
	started := make(chan struct{})
	h := q.Enqueue(func(ctx context.Context) (any, error) {
		close(started)
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond) // still "running" after CancelAll
		return "late", nil
	}, PriorityNormal, 0)
	<-started

	q.CancelAll()
	_, err := h.Wait(context.Background())
	if err != ErrCancelled {
		t.Fatalf("expected ErrCancelled from force-reject, got %v", err)
	}
}

func TestDrain(t *testing.T) {
	q := New(2, time.Second)
	q.Enqueue(func(ctx context.Context) (any, error) { return nil, nil }, PriorityNormal, 0)
	q.Enqueue(func(ctx context.Context) (any, error) { return nil, nil }, PriorityNormal, 0)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := q.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	pending, active := q.Stats()
	if pending != 0 || active != 0 {
		t.Fatalf("expected drained queue, got pending=%d active=%d", pending, active)
	}
}
