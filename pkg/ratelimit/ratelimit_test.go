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
	"context"
	"testing"
	"time"
)

func TestAcquireFastPath(t *testing.T) {
	l := New(Config{RequestsPerMinute: 2, TokensPerMinute: 100})
	defer l.Destroy()

	ctx := context.Background()
	if err := l.Acquire(ctx, 10, PriorityNormal); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := l.Acquire(ctx, 10, PriorityNormal); err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if l.HasCapacity(1) {
		t.Fatalf("expected no capacity after exhausting request budget")
	}
}

func TestAcquireConservation(t *testing.T) {
	// requestsGranted <= rpm and tokensGranted <= tpm over a minute window.
	l := New(Config{RequestsPerMinute: 3, TokensPerMinute: 30, DrainInterval: 5 * time.Millisecond})
	defer l.Destroy()

	ctx := context.Background()
	granted := 0
	var tokensGranted int
	for i := 0; i < 3; i++ {
		if err := l.Acquire(ctx, 10, PriorityNormal); err == nil {
			granted++
			tokensGranted += 10
		}
	}
	if granted > 3 {
		t.Fatalf("granted %d requests, want <= 3", granted)
	}
	if tokensGranted > 30 {
		t.Fatalf("granted %d tokens, want <= 30", tokensGranted)
	}

	// A 4th request should queue (no capacity) and time out via ctx.
	cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := l.Acquire(cctx, 10, PriorityNormal); err == nil {
		t.Fatalf("expected 4th acquire to block and then time out")
	}
}

func TestPriorityOrdering(t *testing.T) {
	// A short window means the seed request expires on its own, freeing
	// exactly one slot for whichever queued waiter the heap serves next.
	l := New(Config{
		RequestsPerMinute: 1,
		TokensPerMinute:   1000,
		DrainInterval:     5 * time.Millisecond,
		WindowDuration:    30 * time.Millisecond,
	})
	defer l.Destroy()

	ctx := context.Background()
	if err := l.Acquire(ctx, 1, PriorityNormal); err != nil {
		t.Fatalf("seed acquire: %v", err)
	}

	order := make(chan string, 2)
	go func() {
		_ = l.Acquire(ctx, 1, PriorityLow)
		order <- "low"
	}()
	time.Sleep(10 * time.Millisecond) // ensure low enqueues first
	go func() {
		_ = l.Acquire(ctx, 1, PriorityHigh)
		order <- "high"
	}()

	first := <-order
	<-order
	if first != "high" {
		t.Fatalf("expected high priority waiter to be serviced first, got %s", first)
	}
}

func TestDestroyRejectsQueued(t *testing.T) {
	l := New(Config{RequestsPerMinute: 1, TokensPerMinute: 10})
	ctx := context.Background()
	if err := l.Acquire(ctx, 1, PriorityNormal); err != nil {
		t.Fatalf("seed acquire: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- l.Acquire(ctx, 1, PriorityNormal)
	}()
	time.Sleep(10 * time.Millisecond)
	l.Destroy()

	select {
	case err := <-errCh:
		if err != ErrDestroyed {
			t.Fatalf("expected ErrDestroyed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("queued waiter was never rejected")
	}
}
