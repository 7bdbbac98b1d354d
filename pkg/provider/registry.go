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
	"os"

	"github.com/joho/godotenv"
)

// compatSpec describes one prebuilt OpenAI-compatible target.
type compatSpec struct {
	id      string
	envKey  string
	baseURL string
	models  []string
}

var compatTargets = []compatSpec{
	{id: "openai", envKey: "OPENAI_API_KEY", baseURL: "https://api.openai.com/v1", models: []string{"gpt-4o", "gpt-4o-mini", "o1", "o3-mini"}},
	{id: "xai", envKey: "XAI_API_KEY", baseURL: "https://api.x.ai/v1", models: []string{"grok-2-latest"}},
	{id: "groq", envKey: "GROQ_API_KEY", baseURL: "https://api.groq.com/openai/v1", models: []string{"llama-3.3-70b-versatile"}},
	{id: "cerebras", envKey: "CEREBRAS_API_KEY", baseURL: "https://api.cerebras.ai/v1", models: []string{"llama3.1-70b"}},
	{id: "mistral", envKey: "MISTRAL_API_KEY", baseURL: "https://api.mistral.ai/v1", models: []string{"mistral-large-latest"}},
	{id: "deepseek", envKey: "DEEPSEEK_API_KEY", baseURL: "https://api.deepseek.com/v1", models: []string{"deepseek-chat"}},
	{id: "openrouter", envKey: "OPENROUTER_API_KEY", baseURL: "https://openrouter.ai/api/v1", models: []string{"openrouter/auto"}},
	{id: "together", envKey: "TOGETHER_API_KEY", baseURL: "https://api.together.xyz/v1", models: []string{"meta-llama/Llama-3.3-70B-Instruct-Turbo"}},
}

// Registry holds the set of Adapters available in this process. An
// adapter whose required credential is absent from the environment is
// simply absent from the registry — never a construction failure.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistryFromEnv builds a Registry by probing the environment
// variables named in the external-interfaces contract. Anthropic and
// each OpenAI-compatible target are included only when their key
// variable is set; Ollama is included unconditionally, since it needs
// no credential.
func NewRegistryFromEnv() *Registry {
	// Best-effort: a .env file in the working directory is loaded into
	// the process environment before probing credentials below. Absence
	// of a .env file is not an error.
	_ = godotenv.Load()

	r := &Registry{adapters: make(map[string]Adapter)}

	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		r.adapters["anthropic"] = NewAnthropic(key, "", []string{"claude-opus-4-1", "claude-sonnet-4-5", "claude-haiku-4-5"})
	}

	for _, c := range compatTargets {
		key := os.Getenv(c.envKey)
		if key == "" {
			continue
		}
		r.adapters[c.id] = NewOpenAICompat(c.id, key, c.baseURL, c.models)
	}

	host := os.Getenv("OLLAMA_HOST")
	r.adapters["ollama"] = NewOllama(host, []string{"llama3.1", "qwen2.5"})

	return r
}

// NewRegistry builds an empty Registry, for callers assembling one
// programmatically (tests, or a non-env-driven wiring) rather than
// from NewRegistryFromEnv.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds or replaces an adapter under id.
func (r *Registry) Register(id string, a Adapter) {
	r.adapters[id] = a
}

// Get looks up an adapter by provider id.
func (r *Registry) Get(id string) (Adapter, bool) {
	a, ok := r.adapters[id]
	return a, ok
}

// IDs lists every registered provider id.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	return ids
}

// RegisterGeneric wires a generic OpenAI-compatible target parameterized
// by base URL and an auth env-var name, per the external-interfaces
// contract for targets not in the prebuilt list.
func (r *Registry) RegisterGeneric(id, baseURL, authEnvVar string, models []string) bool {
	key := os.Getenv(authEnvVar)
	if key == "" {
		return false
	}
	r.adapters[id] = NewOpenAICompat(id, key, baseURL, models)
	return true
}
