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

package marga

import "github.com/chitragupta/runtime/pkg/classifier"

// NoProvider is the sentinel providerId meaning "skip the LLM call
// entirely" — the caller handles the task out-of-band (search,
// tool-only work).
const NoProvider = "none"

// Binding is one resolved (provider, model) pair with an explanation.
type Binding struct {
	ProviderID string
	ModelID    string
	Rationale  string
}

// Profile names a predefined binding configuration.
type Profile string

const (
	ProfileLocal  Profile = "local"
	ProfileCloud  Profile = "cloud"
	ProfileHybrid Profile = "hybrid"
)

// BindingTable maps each TaskType to exactly one Binding, plus the
// strong models used by the complexity upgrade rule and the ordered
// escalation chain (weakest to strongest) used by Pipeline.Stream.
type BindingTable struct {
	ByTaskType          map[classifier.TaskType]Binding
	StrongestReasoning  Binding   // expert complexity upgrade
	StrongCodeOptimized Binding   // complex code-gen/tool-exec upgrade
	StrongGeneric       Binding   // other complex upgrade
	Escalation          []Binding // weakest -> strongest, for Pipeline.Stream
}

// Profiles holds the three predefined binding tables. Model ids are
// illustrative family members, not pinned releases.
var Profiles = map[Profile]BindingTable{
	ProfileLocal: {
		ByTaskType: map[classifier.TaskType]Binding{
			classifier.TaskHeartbeat:  {NoProvider, "", "heartbeats never call a model"},
			classifier.TaskSmalltalk:  {"ollama", "llama3.1", "small talk stays local"},
			classifier.TaskSearch:     {NoProvider, "", "search is handled by the search tool, not a model"},
			classifier.TaskMemory:     {"ollama", "llama3.1", "memory recall stays local"},
			classifier.TaskFileOp:     {NoProvider, "", "file ops are tool-only"},
			classifier.TaskAPICall:    {NoProvider, "", "api calls are tool-only"},
			classifier.TaskCompaction: {"ollama", "qwen2.5", "compaction is cheap, stays local"},
			classifier.TaskEmbedding:  {NoProvider, "", "embedding uses the embedder collaborator, not a chat model"},
			classifier.TaskCodeGen:    {"ollama", "qwen2.5", "local code model"},
			classifier.TaskChat:       {"ollama", "llama3.1", "default local chat model"},
			classifier.TaskSummarize:  {"ollama", "llama3.1", "summarization stays local"},
			classifier.TaskTranslate:  {"ollama", "llama3.1", "translation stays local"},
			classifier.TaskToolExec:   {"ollama", "llama3.1", "tool orchestration stays local"},
			classifier.TaskReasoning:  {"ollama", "qwen2.5", "reasoning, local best-effort"},
			classifier.TaskVision:     {"ollama", "llama3.1", "vision stays local if the model supports it"},
		},
		StrongestReasoning:  Binding{"ollama", "qwen2.5", "strongest locally available reasoning model"},
		StrongCodeOptimized: Binding{"ollama", "qwen2.5", "strongest locally available code model"},
		StrongGeneric:       Binding{"ollama", "llama3.1", "strongest locally available generic model"},
		Escalation: []Binding{
			{"ollama", "llama3.1", "primary local model"},
			{"ollama", "qwen2.5", "secondary local model"},
		},
	},
	ProfileCloud: {
		ByTaskType: map[classifier.TaskType]Binding{
			classifier.TaskHeartbeat:  {NoProvider, "", "heartbeats never call a model"},
			classifier.TaskSmalltalk:  {"anthropic", "claude-haiku-4-5", "cheap model for small talk"},
			classifier.TaskSearch:     {NoProvider, "", "search is handled by the search tool"},
			classifier.TaskMemory:     {"anthropic", "claude-haiku-4-5", "cheap recall"},
			classifier.TaskFileOp:     {NoProvider, "", "file ops are tool-only"},
			classifier.TaskAPICall:    {NoProvider, "", "api calls are tool-only"},
			classifier.TaskCompaction: {"anthropic", "claude-haiku-4-5", "cheap summarizer for compaction"},
			classifier.TaskEmbedding:  {NoProvider, "", "embedding uses the embedder collaborator"},
			classifier.TaskCodeGen:    {"anthropic", "claude-sonnet-4-5", "balanced code model"},
			classifier.TaskChat:       {"anthropic", "claude-haiku-4-5", "default cloud chat model"},
			classifier.TaskSummarize:  {"anthropic", "claude-haiku-4-5", "cheap summarizer"},
			classifier.TaskTranslate:  {"anthropic", "claude-haiku-4-5", "cheap translator"},
			classifier.TaskToolExec:   {"anthropic", "claude-sonnet-4-5", "reliable tool orchestration"},
			classifier.TaskReasoning:  {"anthropic", "claude-opus-4-1", "deepest reasoning model"},
			classifier.TaskVision:     {"anthropic", "claude-sonnet-4-5", "multimodal-capable model"},
		},
		StrongestReasoning:  Binding{"anthropic", "claude-opus-4-1", "strongest reasoning model"},
		StrongCodeOptimized: Binding{"anthropic", "claude-sonnet-4-5", "strongest code-optimized model"},
		StrongGeneric:       Binding{"anthropic", "claude-sonnet-4-5", "strongest generic model"},
		Escalation: []Binding{
			{"anthropic", "claude-haiku-4-5", "fast tier"},
			{"anthropic", "claude-sonnet-4-5", "balanced tier"},
			{"anthropic", "claude-opus-4-1", "strongest tier"},
		},
	},
	ProfileHybrid: {
		ByTaskType: map[classifier.TaskType]Binding{
			classifier.TaskHeartbeat:  {NoProvider, "", "heartbeats never call a model"},
			classifier.TaskSmalltalk:  {"ollama", "llama3.1", "small talk stays local when possible"},
			classifier.TaskSearch:     {NoProvider, "", "search is handled by the search tool"},
			classifier.TaskMemory:     {"ollama", "llama3.1", "memory recall stays local when possible"},
			classifier.TaskFileOp:     {NoProvider, "", "file ops are tool-only"},
			classifier.TaskAPICall:    {NoProvider, "", "api calls are tool-only"},
			classifier.TaskCompaction: {"ollama", "qwen2.5", "compaction stays local when possible"},
			classifier.TaskEmbedding:  {NoProvider, "", "embedding uses the embedder collaborator"},
			classifier.TaskCodeGen:    {"anthropic", "claude-sonnet-4-5", "code-gen escalates to cloud"},
			classifier.TaskChat:       {"ollama", "llama3.1", "default chat stays local when possible"},
			classifier.TaskSummarize:  {"ollama", "llama3.1", "summarization stays local when possible"},
			classifier.TaskTranslate:  {"anthropic", "claude-haiku-4-5", "translation quality favors cloud"},
			classifier.TaskToolExec:   {"anthropic", "claude-sonnet-4-5", "tool orchestration favors cloud reliability"},
			classifier.TaskReasoning:  {"anthropic", "claude-opus-4-1", "deep reasoning escalates to cloud"},
			classifier.TaskVision:     {"anthropic", "claude-sonnet-4-5", "vision escalates to cloud"},
		},
		StrongestReasoning:  Binding{"anthropic", "claude-opus-4-1", "strongest reasoning model"},
		StrongCodeOptimized: Binding{"anthropic", "claude-sonnet-4-5", "strongest code-optimized model"},
		StrongGeneric:       Binding{"anthropic", "claude-sonnet-4-5", "strongest generic model"},
		Escalation: []Binding{
			{"ollama", "llama3.1", "local first"},
			{"anthropic", "claude-haiku-4-5", "cloud fast tier"},
			{"anthropic", "claude-sonnet-4-5", "cloud balanced tier"},
			{"anthropic", "claude-opus-4-1", "cloud strongest tier"},
		},
	},
}

// minComplexityOverrides floors the effective complexity for task
// types whose handling is inherently non-trivial regardless of what
// the text alone suggests.
var minComplexityOverrides = map[classifier.TaskType]classifier.Complexity{
	classifier.TaskReasoning: classifier.ComplexityComplex,
	classifier.TaskVision:    classifier.ComplexityMedium,
	classifier.TaskCodeGen:   classifier.ComplexityMedium,
}
