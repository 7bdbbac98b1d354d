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
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/chitragupta/runtime/pkg/marga"
	"github.com/chitragupta/runtime/pkg/provider"
	"github.com/chitragupta/runtime/pkg/streaming"
	"github.com/chitragupta/runtime/pkg/tool"
)

// Resource ceilings, mandated but not pinned to an exact value by the
// routing contract; these are the runtime's defaults and can be
// overridden per-tree via Config.
const (
	DefaultMaxDepth      = 10
	DefaultMaxSubAgents  = 20
)

// Config configures a new root Agent (and is inherited down the tree
// unless a spawn overrides it).
type Config struct {
	Purpose      string
	Registry     *provider.Registry
	Pipeline     *marga.Pipeline // when set, each turn is routed through Classify/Stream
	ProviderID   string          // direct binding, used only when Pipeline is nil
	ModelID      string
	Temperature  float64
	Tools        *tool.Registry
	Policy       tool.PolicyEngine
	Sink         Sink
	RetryConfig  streaming.Config
	MaxDepth     int
	MaxSubAgents int
}

// Agent is one node in the supervised tree.
type Agent struct {
	mu sync.Mutex

	id      string
	purpose string
	depth   int
	parent  *Agent

	registry    *provider.Registry
	pipeline    *marga.Pipeline
	providerID  string
	modelID     string
	temperature float64
	retryConfig streaming.Config

	tools  *tool.Registry
	policy tool.PolicyEngine

	sink         Sink
	bubbleEvents bool

	maxDepth     int
	maxSubAgents int

	status   Status
	messages []provider.Message
	children []*Agent

	cancel context.CancelFunc
}

// New creates a root Agent from cfg.
func New(cfg Config) *Agent {
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	maxSubAgents := cfg.MaxSubAgents
	if maxSubAgents <= 0 {
		maxSubAgents = DefaultMaxSubAgents
	}
	sink := cfg.Sink
	if sink == nil {
		sink = func(Event) {}
	}
	return &Agent{
		id:           uuid.NewString(),
		purpose:      cfg.Purpose,
		depth:        0,
		registry:     cfg.Registry,
		pipeline:     cfg.Pipeline,
		providerID:   cfg.ProviderID,
		modelID:      cfg.ModelID,
		temperature:  cfg.Temperature,
		retryConfig:  cfg.RetryConfig,
		tools:        cfg.Tools,
		policy:       cfg.Policy,
		sink:         sink,
		bubbleEvents: true,
		maxDepth:     maxDepth,
		maxSubAgents: maxSubAgents,
		status:       StatusIdle,
	}
}

// ID returns this agent's identifier.
func (a *Agent) ID() string { return a.id }

// Purpose returns this agent's purpose label.
func (a *Agent) Purpose() string { return a.purpose }

// Depth returns this agent's depth in the tree (root is 0).
func (a *Agent) Depth() int { return a.depth }

// Parent returns this agent's parent, or nil at the root.
func (a *Agent) Parent() *Agent { return a.parent }

// Status returns the current lifecycle status.
func (a *Agent) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Context returns a copy of the accumulated conversation.
func (a *Agent) Context() []provider.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]provider.Message, len(a.messages))
	copy(out, a.messages)
	return out
}

func (a *Agent) isBound() bool {
	return a.pipeline != nil || a.providerID != ""
}

// emit delivers an event to this agent's sink and, unless bubbling is
// disabled for this agent, wraps it in a subagent:event envelope and
// forwards it up through every ancestor.
func (a *Agent) emit(ev Event) {
	ev.AgentID = a.id
	a.sink(ev)
	if !a.bubbleEvents || a.parent == nil {
		return
	}
	wrapped := Event{
		Type:          EventSubagentEvent,
		SourceAgentID: a.id,
		SourcePurpose: a.purpose,
		SourceDepth:   a.depth,
		Original:      &ev,
	}
	a.parent.emit(wrapped)
}

// Prompt runs one turn of the agent loop: append the user message,
// stream from the bound provider/pipeline, dispatch any tool calls,
// and repeat until the model stops asking for tools.
func (a *Agent) Prompt(ctx context.Context, userText string) (provider.Message, error) {
	a.mu.Lock()
	if a.status != StatusIdle && a.status != StatusCompleted {
		a.mu.Unlock()
		return provider.Message{}, newError(a.id, "Prompt", fmt.Sprintf("conflict: status is %s", a.status), nil)
	}
	if !a.isBound() {
		a.mu.Unlock()
		return provider.Message{}, newError(a.id, "Prompt", "no provider bound", nil)
	}
	a.messages = append(a.messages, provider.Message{
		Role:  provider.RoleUser,
		Parts: []provider.ContentPart{{Type: provider.PartText, Text: userText}},
	})
	a.status = StatusRunning
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()
	defer cancel()

	a.emit(Event{Type: EventAgentStart})

	hasTools := a.tools != nil && len(a.tools.Definitions()) > 0

	for {
		messages := a.Context()
		opts := provider.StreamOptions{Temperature: a.temperature, IncludeUsage: true}
		if a.tools != nil {
			opts.Tools = toProviderTools(a.tools.Definitions())
		}

		ch, err := a.streamTurn(ctx, messages, opts, userText, hasTools)
		if err != nil {
			a.finish(StatusError)
			a.emit(Event{Type: EventAgentError, Err: err})
			return provider.Message{}, err
		}

		assistant, toolCalls, stopReason, terminalErr := a.consume(ctx, ch)
		if ctx.Err() != nil {
			a.finish(StatusAborted)
			a.emit(Event{Type: EventAgentAbort})
			return provider.Message{}, ctx.Err()
		}
		if terminalErr != nil {
			a.finish(StatusError)
			a.emit(Event{Type: EventAgentError, Err: terminalErr})
			return provider.Message{}, terminalErr
		}

		a.mu.Lock()
		a.messages = append(a.messages, assistant)
		a.mu.Unlock()

		if stopReason == provider.StopToolUse && len(toolCalls) > 0 {
			for _, tc := range toolCalls {
				result := a.dispatchTool(ctx, tc)
				a.emit(Event{Type: EventAgentToolResult, ToolResult: &result})
				a.mu.Lock()
				a.messages = append(a.messages, provider.Message{
					Role:  provider.RoleToolResult,
					Parts: []provider.ContentPart{{Type: provider.PartToolResult, ToolResult: &result}},
				})
				a.mu.Unlock()
			}
			continue
		}

		a.finish(StatusCompleted)
		a.emit(Event{Type: EventAgentDone, Message: assistant})
		return assistant, nil
	}
}

func (a *Agent) finish(s Status) {
	a.mu.Lock()
	a.status = s
	a.mu.Unlock()
}

// streamTurn resolves this turn's provider/model (direct binding or a
// Pipeline classification) and returns its event stream.
func (a *Agent) streamTurn(ctx context.Context, messages []provider.Message, opts provider.StreamOptions, lastUserText string, hasTools bool) (<-chan provider.StreamEvent, error) {
	if a.pipeline != nil {
		decision := a.pipeline.Classify(lastUserText, hasTools)
		if decision.Temperature != 0 {
			opts.Temperature = decision.Temperature
		}
		return a.pipeline.Stream(ctx, &decision, messages, opts), nil
	}

	adapter, ok := a.registry.Get(a.providerID)
	if !ok {
		return nil, newError(a.id, "Prompt", fmt.Sprintf("provider %q not registered", a.providerID), nil)
	}
	return streaming.Stream(ctx, adapter, a.modelID, messages, opts, a.retryConfig), nil
}

// consume drains one turn's stream, accumulating text/thinking into the
// assistant message and collecting tool calls in order.
func (a *Agent) consume(ctx context.Context, ch <-chan provider.StreamEvent) (provider.Message, []provider.ToolCall, provider.StopReason, error) {
	var text, thinking string
	var toolCalls []provider.ToolCall
	var stopReason provider.StopReason

	for ev := range ch {
		switch ev.Type {
		case provider.EventText:
			text += ev.Text
			a.emit(Event{Type: EventAgentText, Text: ev.Text})
		case provider.EventThinking:
			thinking += ev.Text
			a.emit(Event{Type: EventAgentThinking, Text: ev.Text})
		case provider.EventToolCall:
			toolCalls = append(toolCalls, *ev.ToolCall)
			a.emit(Event{Type: EventAgentToolCall, ToolCall: ev.ToolCall})
		case provider.EventUsage:
			a.emit(Event{Type: EventAgentUsage, Usage: ev.Usage})
		case provider.EventError:
			return provider.Message{}, nil, "", ev.Err
		case provider.EventDone:
			stopReason = ev.StopReason
		}

		if ctx.Err() != nil {
			return provider.Message{}, nil, "", ctx.Err()
		}
	}

	parts := make([]provider.ContentPart, 0, 2+len(toolCalls))
	if thinking != "" {
		parts = append(parts, provider.ContentPart{Type: provider.PartThinking, Text: thinking})
	}
	if text != "" {
		parts = append(parts, provider.ContentPart{Type: provider.PartText, Text: text})
	}
	for i := range toolCalls {
		parts = append(parts, provider.ContentPart{Type: provider.PartToolCall, ToolCall: &toolCalls[i]})
	}

	return provider.Message{Role: provider.RoleAssistant, Parts: parts}, toolCalls, stopReason, nil
}

func toProviderTools(defs []tool.Definition) []provider.ToolDefinition {
	out := make([]provider.ToolDefinition, len(defs))
	for i, d := range defs {
		out[i] = provider.ToolDefinition{Name: d.Name, Description: d.Description, InputSchema: d.InputSchema}
	}
	return out
}
