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

import "fmt"

// Priority orders nothing structural in the hub itself today (delivery
// is always synchronous fan-out), but is carried on every Envelope so
// a subscriber's own handler can triage its inbox, matching the
// priority vocabulary already used by ratelimit/queue.
type Priority int

const (
	PriorityHigh Priority = iota
	PriorityNormal
	PriorityLow
)

const broadcastTo = "*broadcast"

// Envelope is one message on the bus.
type Envelope struct {
	ID            string
	From          string
	To            string // an agentId, or "*broadcast"
	Topic         string
	Payload       any
	Priority      Priority
	CorrelationID string
}

// Handler receives delivered envelopes; it must tolerate synchronous
// invocation from within Send/Broadcast.
type Handler func(Envelope)

// Unsubscribe removes the subscription it was returned from.
type Unsubscribe func()

// Error is a hub-level failure (unknown region, ACL violation, timed
// out synchronization primitive, use after destroy).
type Error struct {
	Op      string
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("hub: %s: %s", e.Op, e.Message) }

func newError(op, msg string) *Error { return &Error{Op: op, Message: msg} }
