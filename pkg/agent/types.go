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

package agent

import (
	"github.com/chitragupta/runtime/pkg/marga"
	"github.com/chitragupta/runtime/pkg/provider"
	"github.com/chitragupta/runtime/pkg/tool"
)

// Status is an Agent's lifecycle state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusAborted   Status = "aborted"
	StatusError     Status = "error"
)

// EventType names one of the named events an Agent fans out.
type EventType string

const (
	EventAgentStart      EventType = "agent:start"
	EventAgentText       EventType = "agent:text"
	EventAgentThinking   EventType = "agent:thinking"
	EventAgentToolCall   EventType = "agent:tool_call"
	EventAgentToolResult EventType = "agent:tool_result"
	EventAgentUsage      EventType = "agent:usage"
	EventAgentDone       EventType = "agent:done"
	EventAgentAbort      EventType = "agent:abort"
	EventAgentError      EventType = "agent:error"
	EventSubagentSpawn   EventType = "subagent:spawn"
	EventSubagentEvent   EventType = "subagent:event"
)

// Event is one item in an Agent's event sink.
type Event struct {
	Type       EventType
	AgentID    string
	Text       string
	ToolCall   *provider.ToolCall
	ToolResult *provider.ToolCallResult
	Usage      *provider.Usage
	Err        error
	Message    provider.Message // done: the accumulated assistant message

	// Subagent wrapping, set only on EventSubagentEvent/EventSubagentSpawn.
	SourceAgentID string
	SourcePurpose string
	SourceDepth   int
	Original      *Event
}

// Sink receives an Agent's events; it must tolerate being called
// synchronously from within the stream consumer.
type Sink func(Event)

// SpawnConfig configures a child Agent. Zero-valued fields are
// inherited from the parent.
type SpawnConfig struct {
	Purpose      string
	ProviderID   string
	ModelID      string
	Profile      marga.Profile
	Tools        *tool.Registry
	Temperature  *float64
	BubbleEvents *bool // nil means true (bubble)
}

// SubAgentResult is the structured outcome of Delegate.
type SubAgentResult struct {
	AgentID  string
	Purpose  string
	Status   Status // completed or error
	Response string
	Messages []provider.Message
	Cost     *float64
	Error    error
}
