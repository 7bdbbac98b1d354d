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
	"math"
	"math/rand"
	"time"

	"github.com/chitragupta/runtime/pkg/provider"
)

// Config tunes the backoff schedule. Zero values take the package
// defaults.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

func (c Config) withDefaults() Config {
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = time.Second
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.Multiplier == 0 {
		c.Multiplier = 2
	}
	return c
}

// jitterFn exists so tests can make backoff deterministic.
var jitterFn = func() time.Duration { return time.Duration(rand.Int63n(int64(500 * time.Millisecond))) }

func backoffDelay(cfg Config, attempt int, retryAfter time.Duration) time.Duration {
	exp := math.Pow(cfg.Multiplier, float64(attempt))
	delay := time.Duration(float64(cfg.BaseDelay) * exp)
	if delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	delay += jitterFn()

	if retryAfter > delay {
		delay = retryAfter
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return delay
}

// Stream wraps adapter.Stream with retry. The returned channel carries
// every event the adapter emits, with EventRetry events interleaved
// before each retried attempt, closing once a done arrives, a
// non-retryable/exhausted error is relayed, or ctx is cancelled.
func Stream(ctx context.Context, adapter provider.Adapter, modelID string, messages []provider.Message, opts provider.StreamOptions, cfg Config) <-chan provider.StreamEvent {
	cfg = cfg.withDefaults()
	out := make(chan provider.StreamEvent, 16)

	go func() {
		defer close(out)

		for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
			inCh, err := adapter.Stream(ctx, modelID, messages, opts)
			if err != nil {
				// construction failure: treat as a single non-retryable error
				select {
				case out <- provider.StreamEvent{Type: provider.EventError, Err: err}:
				case <-ctx.Done():
				}
				return
			}

			errEv, completed, cancelled := relay(ctx, inCh, out)
			if completed {
				return // done event observed: stream completed normally
			}
			if cancelled {
				return
			}
			if !errEv.Retryable || attempt == cfg.MaxRetries {
				// propagate: the caller sees the terminal error event
				select {
				case out <- errEv:
				case <-ctx.Done():
				}
				return
			}

			delay := backoffDelay(cfg, attempt, retryAfterDuration(errEv))
			select {
			case out <- provider.StreamEvent{
				Type: provider.EventRetry, Attempt: attempt + 1, MaxRetries: cfg.MaxRetries,
				DelayMs: delay.Milliseconds(), Err: errEv.Err, StatusCode: errEv.StatusCode,
			}:
			case <-ctx.Done():
				return
			}

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func retryAfterDuration(ev provider.StreamEvent) time.Duration {
	if ev.RetryAfter <= 0 {
		return 0
	}
	return time.Duration(ev.RetryAfter) * time.Second
}

// relay forwards every event from in to out, except a terminal error
// event, which it returns to the caller instead of forwarding (the
// caller decides whether to propagate it or retry silently).
// completed is true once a done event has passed through; cancelled is
// true if ctx ended before either happened.
func relay(ctx context.Context, in <-chan provider.StreamEvent, out chan<- provider.StreamEvent) (errEv provider.StreamEvent, completed, cancelled bool) {
	for ev := range in {
		if ev.Type == provider.EventError {
			return ev, false, false
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			return provider.StreamEvent{}, false, true
		}

		if ev.Type == provider.EventDone {
			return provider.StreamEvent{}, true, false
		}
	}
	return provider.StreamEvent{}, false, ctx.Err() != nil
}
