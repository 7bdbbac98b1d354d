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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Ollama speaks the local /api/chat newline-delimited JSON protocol.
// The terminal object carries done:true with prompt_eval_count (input
// tokens) and eval_count (output tokens).
type Ollama struct {
	host   string
	models []string
	client *http.Client
}

// NewOllama constructs an Ollama adapter against host (default
// http://localhost:11434 when empty).
func NewOllama(host string, models []string) *Ollama {
	if host == "" {
		host = "http://localhost:11434"
	}
	return &Ollama{host: host, models: models, client: &http.Client{Timeout: 5 * time.Minute}}
}

func (o *Ollama) ID() string       { return "ollama" }
func (o *Ollama) Models() []string { return o.models }

type ollamaMessage struct {
	Role      string          `json:"role"`
	Content   string          `json:"content,omitempty"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

type ollamaToolCall struct {
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

type ollamaTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Parameters  json.RawMessage `json:"parameters"`
	} `json:"function"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Tools    []ollamaTool    `json:"tools,omitempty"`
}

type ollamaResponse struct {
	Message struct {
		Content   string           `json:"content"`
		ToolCalls []ollamaToolCall `json:"tool_calls"`
	} `json:"message"`
	Done            bool `json:"done"`
	PromptEvalCount int  `json:"prompt_eval_count"`
	EvalCount       int  `json:"eval_count"`
}

func (o *Ollama) buildRequest(modelID string, messages []Message, opts StreamOptions) ollamaRequest {
	req := ollamaRequest{Model: modelID, Stream: true}
	for _, m := range messages {
		role := string(m.Role)
		if m.Role == RoleToolResult {
			role = "tool"
		}
		om := ollamaMessage{Role: role, Content: m.Text()}
		for _, p := range m.Parts {
			if p.Type == PartToolCall {
				tc := ollamaToolCall{}
				tc.Function.Name = p.ToolCall.Name
				tc.Function.Arguments = p.ToolCall.Arguments
				om.ToolCalls = append(om.ToolCalls, tc)
			}
			if p.Type == PartToolResult {
				om.Content = p.ToolResult.Content
			}
		}
		req.Messages = append(req.Messages, om)
	}
	for _, t := range opts.Tools {
		ot := ollamaTool{Type: "function"}
		ot.Function.Name = t.Name
		ot.Function.Description = t.Description
		ot.Function.Parameters = t.InputSchema
		req.Tools = append(req.Tools, ot)
	}
	return req
}

func (o *Ollama) Stream(ctx context.Context, modelID string, messages []Message, opts StreamOptions) (<-chan StreamEvent, error) {
	body, err := json.Marshal(o.buildRequest(modelID, messages, opts))
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}

	out := make(chan StreamEvent, 16)
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody := readAllLimited(resp.Body)
		go emitTransportError(out, resp.StatusCode, respBody, resp.Header)
		return out, nil
	}

	go o.relay(ctx, resp, out)
	return out, nil
}

func (o *Ollama) relay(ctx context.Context, resp *http.Response, out chan<- StreamEvent) {
	defer close(out)
	defer resp.Body.Close()

	sendEvent(ctx, out, StreamEvent{Type: EventStart})

	decoder := json.NewDecoder(resp.Body)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var chunk ollamaResponse
		if err := decoder.Decode(&chunk); err != nil {
			if err == io.EOF {
				sendEvent(ctx, out, StreamEvent{Type: EventDone, StopReason: StopEndTurn})
				return
			}
			sendEvent(ctx, out, StreamEvent{Type: EventError, Err: fmt.Errorf("ollama: decode stream: %w", err), Retryable: true})
			return
		}

		if chunk.Message.Content != "" {
			sendEvent(ctx, out, StreamEvent{Type: EventText, Text: chunk.Message.Content})
		}
		for _, tc := range chunk.Message.ToolCalls {
			args := tc.Function.Arguments
			if len(args) == 0 {
				args = json.RawMessage("{}")
			}
			sendEvent(ctx, out, StreamEvent{Type: EventToolCall, ToolCall: &ToolCall{Name: tc.Function.Name, Arguments: args}})
		}

		if chunk.Done {
			usage := Usage{InputTokens: chunk.PromptEvalCount, OutputTokens: chunk.EvalCount}
			sendEvent(ctx, out, StreamEvent{Type: EventUsage, Usage: &usage})
			sendEvent(ctx, out, StreamEvent{Type: EventDone, StopReason: StopEndTurn, Usage: &usage})
			return
		}
	}
}
