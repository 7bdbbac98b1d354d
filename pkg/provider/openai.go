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
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OpenAICompat speaks the OpenAI-compatible Chat Completions SSE
// protocol: "data: <json>" frames terminated by "data: [DONE]", tool
// calls assembled incrementally by index. A base URL and bearer token
// parameterize it for OpenAI itself and any compatible target (xAI,
// Groq, Cerebras, Mistral, DeepSeek, OpenRouter, Together, ...).
type OpenAICompat struct {
	id      string
	apiKey  string
	baseURL string
	models  []string
	client  *http.Client
}

// NewOpenAICompat constructs an adapter identified by id, talking to
// baseURL (e.g. "https://api.openai.com/v1").
func NewOpenAICompat(id, apiKey, baseURL string, models []string) *OpenAICompat {
	return &OpenAICompat{
		id:      id,
		apiKey:  apiKey,
		baseURL: baseURL,
		models:  models,
		client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

func (o *OpenAICompat) ID() string       { return o.id }
func (o *OpenAICompat) Models() []string { return o.models }

type chatMessage struct {
	Role       string          `json:"role"`
	Content    string          `json:"content,omitempty"`
	ToolCalls  []chatToolCall  `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
}

type chatToolCall struct {
	Index    *int             `json:"index,omitempty"`
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type,omitempty"`
	Function chatToolFunction `json:"function"`
}

type chatToolFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

type chatTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Parameters  json.RawMessage `json:"parameters"`
	} `json:"function"`
}

type chatStreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type chatRequest struct {
	Model          string             `json:"model"`
	Messages       []chatMessage      `json:"messages"`
	Temperature    float64            `json:"temperature,omitempty"`
	Stream         bool               `json:"stream"`
	StreamOptions  *chatStreamOptions `json:"stream_options,omitempty"`
	Tools          []chatTool         `json:"tools,omitempty"`
	ToolChoice     string             `json:"tool_choice,omitempty"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content   string         `json:"content"`
			ToolCalls []chatToolCall `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (o *OpenAICompat) buildRequest(modelID string, messages []Message, opts StreamOptions) chatRequest {
	req := chatRequest{
		Model:       modelID,
		Temperature: opts.Temperature,
		Stream:      true,
	}
	if opts.IncludeUsage {
		req.StreamOptions = &chatStreamOptions{IncludeUsage: true}
	}

	for _, m := range messages {
		role := string(m.Role)
		if m.Role == RoleToolResult {
			role = "tool"
		}
		cm := chatMessage{Role: role, Content: m.Text()}
		for _, p := range m.Parts {
			switch p.Type {
			case PartToolCall:
				cm.ToolCalls = append(cm.ToolCalls, chatToolCall{
					ID: p.ToolCall.ID, Type: "function",
					Function: chatToolFunction{Name: p.ToolCall.Name, Arguments: string(p.ToolCall.Arguments)},
				})
			case PartToolResult:
				cm.ToolCallID = p.ToolResult.ToolCallID
				cm.Content = p.ToolResult.Content
			}
		}
		req.Messages = append(req.Messages, cm)
	}

	for _, t := range opts.Tools {
		ct := chatTool{Type: "function"}
		ct.Function.Name = t.Name
		ct.Function.Description = t.Description
		ct.Function.Parameters = t.InputSchema
		req.Tools = append(req.Tools, ct)
	}
	if len(req.Tools) > 0 {
		req.ToolChoice = "auto"
	}
	return req
}

func (o *OpenAICompat) Stream(ctx context.Context, modelID string, messages []Message, opts StreamOptions) (<-chan StreamEvent, error) {
	body, err := json.Marshal(o.buildRequest(modelID, messages, opts))
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", o.id, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", o.id, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", o.id, err)
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

func (o *OpenAICompat) relay(ctx context.Context, resp *http.Response, out chan<- StreamEvent) {
	defer close(out)
	defer resp.Body.Close()

	sendEvent(ctx, out, StreamEvent{Type: EventStart})

	toolCalls := make(map[int]*ToolCall)
	toolOrder := []int{}
	var usage Usage

	reader := bufio.NewReader(resp.Body)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				return
			}
			sendEvent(ctx, out, StreamEvent{Type: EventError, Err: fmt.Errorf("%s: read stream: %w", o.id, err), Retryable: true})
			return
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 || !bytes.HasPrefix(line, []byte("data: ")) {
			continue
		}
		payload := line[len("data: "):]
		if bytes.Equal(payload, []byte("[DONE]")) {
			sendEvent(ctx, out, StreamEvent{Type: EventDone, StopReason: StopEndTurn, Usage: &usage})
			return
		}

		var chunk chatStreamChunk
		if err := json.Unmarshal(payload, &chunk); err != nil {
			continue // malformed chunk: best-effort skip
		}

		if chunk.Error != nil {
			sendEvent(ctx, out, StreamEvent{Type: EventError, Err: fmt.Errorf("%s", chunk.Error.Message), Retryable: true})
			return
		}
		if chunk.Usage != nil {
			usage.InputTokens = chunk.Usage.PromptTokens
			usage.OutputTokens = chunk.Usage.CompletionTokens
			sendEvent(ctx, out, StreamEvent{Type: EventUsage, Usage: &usage})
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]

		if choice.Delta.Content != "" {
			sendEvent(ctx, out, StreamEvent{Type: EventText, Text: choice.Delta.Content})
		}

		for _, d := range choice.Delta.ToolCalls {
			idx := 0
			if d.Index != nil {
				idx = *d.Index
			}
			tc, ok := toolCalls[idx]
			if !ok {
				tc = &ToolCall{}
				toolCalls[idx] = tc
				toolOrder = append(toolOrder, idx)
			}
			if d.ID != "" {
				tc.ID = d.ID
			}
			if d.Function.Name != "" {
				tc.Name = d.Function.Name
			}
			tc.Arguments = append(tc.Arguments, []byte(d.Function.Arguments)...)
		}

		if choice.FinishReason == "tool_calls" {
			for _, idx := range toolOrder {
				tc := toolCalls[idx]
				if len(tc.Arguments) == 0 {
					tc.Arguments = json.RawMessage("{}")
				}
				sendEvent(ctx, out, StreamEvent{Type: EventToolCall, ToolCall: tc})
			}
		}
		if choice.FinishReason == "stop" || choice.FinishReason == "tool_calls" || choice.FinishReason == "length" {
			reason := StopEndTurn
			switch choice.FinishReason {
			case "tool_calls":
				reason = StopToolUse
			case "length":
				reason = StopMaxTokens
			}
			sendEvent(ctx, out, StreamEvent{Type: EventDone, StopReason: reason, Usage: &usage})
			return
		}
	}
}
