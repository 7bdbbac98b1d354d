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

// Package marga composes package classifier with a task→model binding
// table, min-complexity overrides, an upgrade rule for hard tasks, and
// an escalation chain consumed through package streaming. Pipeline.Classify
// resolves a PipelineDecision; Pipeline.Stream turns that decision into
// an escalating provider.StreamEvent sequence.
package marga
