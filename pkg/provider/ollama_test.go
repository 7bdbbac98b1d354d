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
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const ollamaNDJSONFixture = `{"message":{"content":"Hello"},"done":false}
{"message":{"content":" back!"},"done":false}
{"message":{"content":""},"done":true,"prompt_eval_count":10,"eval_count":5}
`

func TestOllamaStreamText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, ollamaNDJSONFixture)
	}))
	defer srv.Close()

	o := NewOllama(srv.URL, []string{"llama3.1"})
	ch, err := o.Stream(context.Background(), "llama3.1", []Message{{Role: RoleUser, Parts: []ContentPart{{Type: PartText, Text: "hi"}}}}, StreamOptions{})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var text string
	var usage *Usage
	var sawDone bool
	for ev := range ch {
		switch ev.Type {
		case EventText:
			text += ev.Text
		case EventUsage:
			usage = ev.Usage
		case EventDone:
			sawDone = true
		}
	}
	if text != "Hello back!" {
		t.Fatalf("expected accumulated text, got %q", text)
	}
	if !sawDone {
		t.Fatal("expected a done event")
	}
	if usage == nil || usage.InputTokens != 10 || usage.OutputTokens != 5 {
		t.Fatalf("expected usage from prompt_eval_count/eval_count, got %+v", usage)
	}
}

func TestOllamaDefaultHost(t *testing.T) {
	o := NewOllama("", nil)
	if o.host != "http://localhost:11434" {
		t.Fatalf("expected default host, got %s", o.host)
	}
}
