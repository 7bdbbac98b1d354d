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

package streaming

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/chitragupta/runtime/pkg/provider"
)

// scriptedAdapter replays a fixed sequence of event-sequences, one per
// call to Stream, so tests can simulate a flaky-then-healthy provider.
type scriptedAdapter struct {
	calls     int
	sequences [][]provider.StreamEvent
}

func (a *scriptedAdapter) ID() string       { return "scripted" }
func (a *scriptedAdapter) Models() []string { return nil }

func (a *scriptedAdapter) Stream(ctx context.Context, modelID string, messages []provider.Message, opts provider.StreamOptions) (<-chan provider.StreamEvent, error) {
	seq := a.sequences[a.calls]
	a.calls++
	ch := make(chan provider.StreamEvent, len(seq))
	for _, ev := range seq {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func withNoJitter(t *testing.T) {
	t.Helper()
	old := jitterFn
	jitterFn = func() time.Duration { return 0 }
	t.Cleanup(func() { jitterFn = old })
}

func TestStreamRetriesOnRetryableError(t *testing.T) {
	withNoJitter(t)
	a := &scriptedAdapter{sequences: [][]provider.StreamEvent{
		{{Type: provider.EventStart}, {Type: provider.EventError, Retryable: true, StatusCode: 503}},
		{{Type: provider.EventStart}, {Type: provider.EventText, Text: "ok"}, {Type: provider.EventDone, StopReason: provider.StopEndTurn}},
	}}

	cfg := Config{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, Multiplier: 2}
	ch := Stream(context.Background(), a, "m", nil, provider.StreamOptions{}, cfg)

	var sawRetry bool
	var text string
	var sawDone bool
	for ev := range ch {
		switch ev.Type {
		case provider.EventRetry:
			sawRetry = true
			if ev.Attempt != 1 || ev.MaxRetries != 3 {
				t.Fatalf("unexpected retry event %+v", ev)
			}
		case provider.EventText:
			text += ev.Text
		case provider.EventDone:
			sawDone = true
		case provider.EventError:
			t.Fatalf("error should not have propagated: %+v", ev)
		}
	}
	if !sawRetry || !sawDone || text != "ok" {
		t.Fatalf("sawRetry=%v sawDone=%v text=%q", sawRetry, sawDone, text)
	}
	if a.calls != 2 {
		t.Fatalf("expected 2 calls to adapter, got %d", a.calls)
	}
}

func TestStreamPropagatesNonRetryableError(t *testing.T) {
	withNoJitter(t)
	a := &scriptedAdapter{sequences: [][]provider.StreamEvent{
		{{Type: provider.EventStart}, {Type: provider.EventError, Retryable: false, Err: fmt.Errorf("bad credentials")}},
	}}

	ch := Stream(context.Background(), a, "m", nil, provider.StreamOptions{}, Config{})
	var sawError bool
	for ev := range ch {
		if ev.Type == provider.EventError {
			sawError = true
		}
		if ev.Type == provider.EventRetry {
			t.Fatal("should not retry a non-retryable error")
		}
	}
	if !sawError {
		t.Fatal("expected the non-retryable error to propagate")
	}
	if a.calls != 1 {
		t.Fatalf("expected exactly 1 call, got %d", a.calls)
	}
}

func TestStreamExhaustsRetriesThenPropagates(t *testing.T) {
	withNoJitter(t)
	flaky := []provider.StreamEvent{{Type: provider.EventError, Retryable: true, StatusCode: 429}}
	a := &scriptedAdapter{sequences: [][]provider.StreamEvent{flaky, flaky}}

	cfg := Config{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, Multiplier: 2}
	ch := Stream(context.Background(), a, "m", nil, provider.StreamOptions{}, cfg)

	var retries int
	var sawError bool
	for ev := range ch {
		if ev.Type == provider.EventRetry {
			retries++
		}
		if ev.Type == provider.EventError {
			sawError = true
		}
	}
	if retries != 1 {
		t.Fatalf("expected exactly 1 retry event (maxRetries=1), got %d", retries)
	}
	if !sawError {
		t.Fatal("expected final error to propagate after exhausting retries")
	}
	if a.calls != 2 {
		t.Fatalf("expected 2 calls total, got %d", a.calls)
	}
}

func TestStreamHonorsRetryAfterOverBackoff(t *testing.T) {
	withNoJitter(t)
	cfg := Config{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Second, Multiplier: 2}.withDefaults()
	delay := backoffDelay(cfg, 0, 5*time.Second)
	if delay != 5*time.Second {
		t.Fatalf("expected Retry-After to win when it exceeds computed backoff, got %v", delay)
	}
}

func TestBackoffDelayClampsToMaxDelay(t *testing.T) {
	withNoJitter(t)
	cfg := Config{MaxRetries: 5, BaseDelay: time.Second, MaxDelay: 3 * time.Second, Multiplier: 2}.withDefaults()
	delay := backoffDelay(cfg, 10, 0) // 2^10 seconds, way over MaxDelay
	if delay != 3*time.Second {
		t.Fatalf("expected delay clamped to MaxDelay, got %v", delay)
	}
}

func TestStreamCancellationStopsRetryLoop(t *testing.T) {
	flaky := []provider.StreamEvent{{Type: provider.EventError, Retryable: true}}
	a := &scriptedAdapter{sequences: [][]provider.StreamEvent{flaky, flaky, flaky, flaky}}

	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxRetries: 3, BaseDelay: time.Hour} // would block for a long time without cancellation
	ch := Stream(ctx, a, "m", nil, provider.StreamOptions{}, cfg)
	cancel()

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not observe cancellation")
	}
	drainTimeout := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-drainTimeout:
			t.Fatal("channel never closed after cancellation")
		}
	}
}
