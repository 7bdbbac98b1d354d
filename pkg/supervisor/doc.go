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

// Package supervisor implements KaalaBrahma: a registry of agent
// heartbeats independent of the Agent objects themselves, enforcing
// staleness/death sweeps, ancestor-gated kill and heal, and tree
// health reporting. It never holds a reference to an Agent — only the
// liveness record a tree reports in.
package supervisor
