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

package tool

import (
	"context"
	"encoding/json"
)

// Definition is what gets advertised to a model as a callable tool.
type Definition struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// Result is what a Handler returns after executing a call.
type Result struct {
	Content string
	IsError bool
}

// Handler executes one named tool.
type Handler interface {
	Definition() Definition
	Execute(ctx context.Context, args json.RawMessage) (Result, error)
}

// PolicyDecision is the outcome of a PolicyEngine check.
type PolicyDecision struct {
	Allowed bool
	Reason  string
}

// PolicyEngine is consulted before every dispatch; a nil PolicyEngine
// means every call is allowed.
type PolicyEngine interface {
	Check(toolName string, args json.RawMessage) PolicyDecision
}
