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

// Package agent implements the supervised agent tree: a node owns a
// conversation context and a bound provider/pipeline, runs a streaming
// prompt loop that dispatches tool calls between turns, and can spawn
// children that inherit its configuration unless overridden. Events
// from every descendant bubble up to the root as wrapped subagent
// events unless a spawn opts out.
package agent
