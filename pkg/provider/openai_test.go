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
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decodeJSONBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

const chatTextFixture = `data: {"choices":[{"delta":{"content":"The"},"finish_reason":null}]}

data: {"choices":[{"delta":{"content":" answer"},"finish_reason":null}]}

data: {"choices":[{"delta":{},"finish_reason":"stop"}]}

data: [DONE]

`

func TestOpenAICompatStreamText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatTextFixture)
	}))
	defer srv.Close()

	o := NewOpenAICompat("openai", "k", srv.URL, []string{"gpt-4o"})
	ch, err := o.Stream(context.Background(), "gpt-4o", []Message{{Role: RoleUser, Parts: []ContentPart{{Type: PartText, Text: "hi"}}}}, StreamOptions{})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var text string
	var sawDone bool
	for ev := range ch {
		if ev.Type == EventText {
			text += ev.Text
		}
		if ev.Type == EventDone {
			sawDone = true
		}
	}
	if text != "The answer" || !sawDone {
		t.Fatalf("got text=%q sawDone=%v", text, sawDone)
	}
}

const chatToolFixture = `data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"calculator","arguments":""}}]},"finish_reason":null}]}

data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"expression\""}}]},"finish_reason":null}]}

data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":":\"6*7\"}"}}]},"finish_reason":null}]}

data: {"choices":[{"delta":{},"finish_reason":"tool_calls"}]}

data: [DONE]

`

func TestOpenAICompatToolCallIncrementalAssembly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatToolFixture)
	}))
	defer srv.Close()

	o := NewOpenAICompat("openai", "k", srv.URL, nil)
	ch, err := o.Stream(context.Background(), "gpt-4o", nil, StreamOptions{})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var tc *ToolCall
	var stop StopReason
	for ev := range ch {
		if ev.Type == EventToolCall {
			tc = ev.ToolCall
		}
		if ev.Type == EventDone {
			stop = ev.StopReason
		}
	}
	if tc == nil || tc.ID != "call_1" || tc.Name != "calculator" {
		t.Fatalf("expected call_1/calculator, got %+v", tc)
	}
	if string(tc.Arguments) != `{"expression":"6*7"}` {
		t.Fatalf("expected assembled args, got %s", tc.Arguments)
	}
	if stop != StopToolUse {
		t.Fatalf("expected tool_use stop reason, got %s", stop)
	}
}

func TestOpenAICompatIncludeUsage(t *testing.T) {
	var sawIncludeUsage bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			StreamOptions *struct {
				IncludeUsage bool `json:"include_usage"`
			} `json:"stream_options"`
		}
		_ = decodeJSONBody(r, &body)
		sawIncludeUsage = body.StreamOptions != nil && body.StreamOptions.IncludeUsage
		fmt.Fprint(w, `data: {"choices":[{"delta":{},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":2}}`+"\n\ndata: [DONE]\n\n")
	}))
	defer srv.Close()

	o := NewOpenAICompat("openai", "k", srv.URL, nil)
	ch, _ := o.Stream(context.Background(), "gpt-4o", nil, StreamOptions{IncludeUsage: true})
	var usage *Usage
	for ev := range ch {
		if ev.Type == EventUsage {
			usage = ev.Usage
		}
	}
	if !sawIncludeUsage {
		t.Fatalf("expected stream_options.include_usage=true on request")
	}
	if usage == nil || usage.InputTokens != 3 || usage.OutputTokens != 2 {
		t.Fatalf("expected usage {3,2}, got %+v", usage)
	}
}
