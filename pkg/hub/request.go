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
	"time"

	"github.com/google/uuid"
)

// Request sends payload to (to, topic) with a fresh correlationId and
// waits for a matching Reply, failing on ctx cancellation or timeout.
func (h *Hub) Request(ctx context.Context, to, topic string, payload any, from string, timeout time.Duration) (Envelope, error) {
	h.mu.Lock()
	if h.destroyed {
		h.mu.Unlock()
		return Envelope{}, newError("Request", "hub is destroyed")
	}
	correlationID := uuid.NewString()
	waiter := make(chan Envelope, 1)
	h.pending[correlationID] = waiter
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.pending, correlationID)
		h.mu.Unlock()
	}()

	h.Send(Envelope{
		ID:            uuid.NewString(),
		From:          from,
		To:            to,
		Topic:         topic,
		Payload:       payload,
		CorrelationID: correlationID,
	})

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case env, ok := <-waiter:
		if !ok {
			return Envelope{}, newError("Request", "hub destroyed while waiting for reply")
		}
		return env, nil
	case <-timer.C:
		return Envelope{}, newError("Request", "timed out waiting for reply")
	case <-ctx.Done():
		return Envelope{}, ctx.Err()
	}
}

// Reply fulfills a pending Request by correlationID. It is a no-op if
// no request is waiting on that correlationID (already timed out, or
// never existed).
func (h *Hub) Reply(correlationID, from string, payload any) {
	h.mu.RLock()
	waiter, ok := h.pending[correlationID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	waiter <- Envelope{
		ID:            uuid.NewString(),
		From:          from,
		CorrelationID: correlationID,
		Payload:       payload,
	}
}
