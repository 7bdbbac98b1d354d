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

package provider

import (
	"context"
	"encoding/json"
)

// Role identifies who produced a Message.
type Role string

const (
	RoleSystem     Role = "system"
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolResult Role = "tool_result"
)

// PartType discriminates a ContentPart.
type PartType string

const (
	PartText       PartType = "text"
	PartThinking   PartType = "thinking"
	PartImage      PartType = "image"
	PartToolCall   PartType = "tool_call"
	PartToolResult PartType = "tool_result"
)

// ContentPart is one element of a Message. Exactly the fields relevant
// to Type are populated.
type ContentPart struct {
	Type       PartType
	Text       string
	ImageURL   string
	ToolCall   *ToolCall
	ToolResult *ToolCallResult
}

// Message is one turn in a conversation context. tool_result parts
// carry a ToolCallID referencing a tool_call emitted by a prior
// assistant turn.
type Message struct {
	Role  Role
	Parts []ContentPart
}

// Text concatenates every PartText part of the message, the common
// case of a plain text turn.
func (m Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Type == PartText {
			out += p.Text
		}
	}
	return out
}

// ToolCall is a model-issued invocation of a registered tool. Arguments
// are delivered whole to callers even when an adapter accumulates them
// from incremental deltas internally.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ToolCallResult is the outcome of executing a ToolCall, folded back
// into the context as a tool_result part.
type ToolCallResult struct {
	ToolCallID string
	Content    string
	IsError    bool
}

// ToolDefinition describes a callable tool to a provider.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// StopReason is carried on the terminal done event.
type StopReason string

const (
	StopEndTurn      StopReason = "end_turn"
	StopMaxTokens    StopReason = "max_tokens"
	StopToolUse      StopReason = "tool_use"
	StopStopSequence StopReason = "stop_sequence"
)

// Usage reports token accounting. CacheReadTokens is zero when a
// provider does not report prompt caching.
type Usage struct {
	InputTokens     int
	OutputTokens    int
	CacheReadTokens int
}

// EventType discriminates a StreamEvent.
type EventType string

const (
	EventStart      EventType = "start"
	EventText       EventType = "text"
	EventThinking   EventType = "thinking"
	EventToolCall   EventType = "tool_call"
	EventToolResult EventType = "tool_result"
	EventUsage      EventType = "usage"
	EventError      EventType = "error"
	EventDone       EventType = "done"

	// EventRetry is never emitted by an Adapter; package streaming
	// injects it into the relayed sequence for observability when it
	// retries after a retryable error.
	EventRetry EventType = "retry"
)

// StreamEvent is the closed set of events a ProviderAdapter may emit.
// Only the fields relevant to Type are populated. A well-behaved
// sequence begins with exactly one start and ends with exactly one
// done, unless it terminates early with error.
type StreamEvent struct {
	Type EventType

	MessageID string // start

	Text string // text, thinking

	ToolCall   *ToolCall       // tool_call
	ToolResult *ToolCallResult // tool_result, for providers that execute tools themselves

	Usage *Usage // usage (may repeat); also set on done, authoritatively

	Err        error      // error
	Retryable  bool       // error: whether RetryableStream should retry this
	RetryAfter int64      // error: seconds, 0 if the provider didn't say
	StatusCode int        // error: HTTP status, 0 if not transport-level

	StopReason StopReason // done
	CostUSD    *float64   // done, optional

	// retry, set only on EventRetry
	Attempt    int
	MaxRetries int
	DelayMs    int64
}

// StreamOptions configures one Stream call.
type StreamOptions struct {
	Tools         []ToolDefinition
	Temperature   float64
	MaxTokens     int
	IncludeUsage  bool // OpenAI-compatible: sets stream_options.include_usage
}

// Adapter is the ProviderAdapter contract: a black box producing a
// finite lazy sequence of StreamEvent for one model call. Cancellation
// is cooperative via ctx — when ctx is done, the adapter must stop
// producing events promptly and close the returned channel.
//
// No Adapter implementation may retry internally; retry is layered on
// top by package streaming.
type Adapter interface {
	ID() string
	Models() []string
	Stream(ctx context.Context, modelID string, messages []Message, opts StreamOptions) (<-chan StreamEvent, error)
}
