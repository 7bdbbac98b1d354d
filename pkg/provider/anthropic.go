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
	"net/http"
	"strings"
	"time"
)

// Anthropic speaks the native content-block-delta SSE protocol:
// message_start, content_block_start/delta/stop, message_delta,
// message_stop.
type Anthropic struct {
	apiKey  string
	host    string
	models  []string
	client  *http.Client
}

// NewAnthropic constructs an Anthropic adapter. host defaults to the
// public API when empty.
func NewAnthropic(apiKey, host string, models []string) *Anthropic {
	if host == "" {
		host = "https://api.anthropic.com"
	}
	return &Anthropic{
		apiKey: apiKey,
		host:   host,
		models: models,
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (a *Anthropic) ID() string       { return "anthropic" }
func (a *Anthropic) Models() []string { return a.models }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content []anthropicContentIn `json:"content"`
}

type anthropicContentIn struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type anthropicRequest struct {
	Model       string              `json:"model"`
	Messages    []anthropicMessage  `json:"messages"`
	System      string              `json:"system,omitempty"`
	MaxTokens   int                 `json:"max_tokens"`
	Temperature float64             `json:"temperature,omitempty"`
	Stream      bool                `json:"stream"`
	Tools       []anthropicTool     `json:"tools,omitempty"`
}

type anthropicStreamEvent struct {
	Type         string `json:"type"`
	Index        int    `json:"index"`
	Message      *struct {
		ID string `json:"id"`
	} `json:"message,omitempty"`
	ContentBlock *struct {
		Type string `json:"type"`
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"content_block,omitempty"`
	Delta *struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		PartialJSON string `json:"partial_json"`
		StopReason  string `json:"stop_reason"`
	} `json:"delta,omitempty"`
	Usage *struct {
		InputTokens              int `json:"input_tokens"`
		OutputTokens             int `json:"output_tokens"`
		CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (a *Anthropic) buildRequest(modelID string, messages []Message, opts StreamOptions) anthropicRequest {
	req := anthropicRequest{
		Model:       modelID,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Stream:      true,
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = 4096
	}

	for _, m := range messages {
		if m.Role == RoleSystem {
			req.System += m.Text()
			continue
		}
		role := string(m.Role)
		if m.Role == RoleToolResult {
			role = "user"
		}
		am := anthropicMessage{Role: role}
		for _, p := range m.Parts {
			switch p.Type {
			case PartText, PartThinking:
				am.Content = append(am.Content, anthropicContentIn{Type: "text", Text: p.Text})
			case PartToolCall:
				am.Content = append(am.Content, anthropicContentIn{
					Type: "tool_use", ID: p.ToolCall.ID, Name: p.ToolCall.Name, Input: p.ToolCall.Arguments,
				})
			case PartToolResult:
				am.Content = append(am.Content, anthropicContentIn{
					Type: "tool_result", ToolUseID: p.ToolResult.ToolCallID,
					Content: p.ToolResult.Content, IsError: p.ToolResult.IsError,
				})
			}
		}
		req.Messages = append(req.Messages, am)
	}

	for _, t := range opts.Tools {
		req.Tools = append(req.Tools, anthropicTool{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
	}
	return req
}

func mapStopReason(s string) StopReason {
	switch s {
	case "max_tokens":
		return StopMaxTokens
	case "tool_use":
		return StopToolUse
	case "stop_sequence":
		return StopStopSequence
	default:
		return StopEndTurn
	}
}

// Stream issues one streaming call and relays StreamEvent over the
// returned channel until done, error, or ctx cancellation.
func (a *Anthropic) Stream(ctx context.Context, modelID string, messages []Message, opts StreamOptions) (<-chan StreamEvent, error) {
	body, err := json.Marshal(a.buildRequest(modelID, messages, opts))
	if err != nil {
		return nil, fmt.Errorf("anthropic: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.host+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	if len(opts.Tools) > 0 {
		req.Header.Set("anthropic-beta", "fine-grained-tool-streaming-2025-05-14")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	out := make(chan StreamEvent, 16)
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody := readAllLimited(resp.Body)
		go emitTransportError(out, resp.StatusCode, respBody, resp.Header)
		return out, nil
	}

	go a.relay(ctx, resp, out)
	return out, nil
}

func (a *Anthropic) relay(ctx context.Context, resp *http.Response, out chan<- StreamEvent) {
	defer close(out)
	defer resp.Body.Close()

	toolCalls := make(map[int]*ToolCall)
	toolArgs := make(map[int]*bytes.Buffer)
	var finalUsage Usage

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, ":") || !strings.HasPrefix(line, "data: ") {
			continue
		}
		raw := strings.TrimPrefix(line, "data: ")

		var ev anthropicStreamEvent
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			continue // malformed frame: best-effort skip per protocol-error policy
		}

		switch ev.Type {
		case "message_start":
			id := ""
			if ev.Message != nil {
				id = ev.Message.ID
			}
			sendEvent(ctx, out, StreamEvent{Type: EventStart, MessageID: id})

		case "content_block_start":
			if ev.ContentBlock != nil && ev.ContentBlock.Type == "tool_use" {
				toolCalls[ev.Index] = &ToolCall{ID: ev.ContentBlock.ID, Name: ev.ContentBlock.Name}
				toolArgs[ev.Index] = &bytes.Buffer{}
			}

		case "content_block_delta":
			if ev.Delta == nil {
				continue
			}
			switch ev.Delta.Type {
			case "text_delta":
				sendEvent(ctx, out, StreamEvent{Type: EventText, Text: ev.Delta.Text})
			case "thinking_delta":
				sendEvent(ctx, out, StreamEvent{Type: EventThinking, Text: ev.Delta.Text})
			case "input_json_delta":
				if buf, ok := toolArgs[ev.Index]; ok {
					buf.WriteString(ev.Delta.PartialJSON)
				}
			}

		case "content_block_stop":
			if tc, ok := toolCalls[ev.Index]; ok {
				if buf := toolArgs[ev.Index]; buf != nil && buf.Len() > 0 {
					tc.Arguments = json.RawMessage(buf.Bytes())
				} else {
					tc.Arguments = json.RawMessage("{}")
				}
				sendEvent(ctx, out, StreamEvent{Type: EventToolCall, ToolCall: tc})
			}

		case "message_delta":
			if ev.Usage != nil {
				finalUsage.OutputTokens = ev.Usage.OutputTokens
				finalUsage.InputTokens = ev.Usage.InputTokens
				finalUsage.CacheReadTokens = ev.Usage.CacheReadInputTokens
				sendEvent(ctx, out, StreamEvent{Type: EventUsage, Usage: &finalUsage})
			}
			stop := StopEndTurn
			if ev.Delta != nil {
				stop = mapStopReason(ev.Delta.StopReason)
			}
			sendEvent(ctx, out, StreamEvent{Type: EventDone, StopReason: stop, Usage: &finalUsage})
			return

		case "error":
			msg := "anthropic stream error"
			if ev.Error != nil {
				msg = ev.Error.Message
			}
			sendEvent(ctx, out, StreamEvent{Type: EventError, Err: fmt.Errorf("%s", msg), Retryable: true})
			return
		}
	}
}
