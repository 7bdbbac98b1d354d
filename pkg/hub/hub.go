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
	"sync"

	"github.com/google/uuid"
)

type subscription struct {
	id      string
	agentID string
	topic   string
	handler Handler
}

// Hub is CommHub: per-subscriber topic delivery, shared regions, and
// the barrier/collector synchronization primitives, all guarded by a
// single owning mutex per the single-owner-object rule every
// shared-mutation surface in this runtime follows.
type Hub struct {
	mu sync.RWMutex

	subsByTopic map[string][]*subscription

	regions   map[string]*Region
	barriers  map[string]*barrier
	collectors map[string]*collector

	pending map[string]chan Envelope // correlationId -> reply waiter

	destroyed bool
}

// New creates an empty Hub.
func New() *Hub {
	return &Hub{
		subsByTopic: make(map[string][]*subscription),
		regions:     make(map[string]*Region),
		barriers:    make(map[string]*barrier),
		collectors:  make(map[string]*collector),
		pending:     make(map[string]chan Envelope),
	}
}

// Subscribe registers handler to receive envelopes addressed to
// (agentID, topic), including broadcasts on topic. The returned
// Unsubscribe removes exactly this registration.
func (h *Hub) Subscribe(agentID, topic string, handler Handler) Unsubscribe {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &subscription{id: uuid.NewString(), agentID: agentID, topic: topic, handler: handler}
	h.subsByTopic[topic] = append(h.subsByTopic[topic], sub)

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.subsByTopic[topic]
		for i, s := range subs {
			if s.id == sub.id {
				h.subsByTopic[topic] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Send delivers env synchronously to every subscriber registered under
// (env.To, env.Topic).
func (h *Hub) Send(env Envelope) {
	if env.ID == "" {
		env.ID = uuid.NewString()
	}
	h.mu.RLock()
	var targets []Handler
	for _, sub := range h.subsByTopic[env.Topic] {
		if sub.agentID == env.To {
			targets = append(targets, sub.handler)
		}
	}
	h.mu.RUnlock()

	for _, deliver := range targets {
		deliver(env)
	}
}

// Broadcast delivers env to every subscriber on topic except from
// itself.
func (h *Hub) Broadcast(from, topic string, payload any, priority Priority) {
	env := Envelope{ID: uuid.NewString(), From: from, To: broadcastTo, Topic: topic, Payload: payload, Priority: priority}

	h.mu.RLock()
	var targets []Handler
	for _, sub := range h.subsByTopic[topic] {
		if sub.agentID != from {
			targets = append(targets, sub.handler)
		}
	}
	h.mu.RUnlock()

	for _, deliver := range targets {
		deliver(env)
	}
}

// Destroy rejects every pending request, barrier, and collector. After
// it, Request fails at once; the other operations do not check whether
// the hub was destroyed.
func (h *Hub) Destroy() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.destroyed {
		return
	}
	h.destroyed = true

	for _, ch := range h.pending {
		close(ch)
	}
	h.pending = make(map[string]chan Envelope)

	for _, b := range h.barriers {
		b.cancel()
	}
	for _, c := range h.collectors {
		c.cancel()
	}
}
