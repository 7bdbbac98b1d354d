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

// Package kartavya implements the auto-execution engine: a Niyama
// proposal is approved into an active Kartavya, live trigger
// evaluation promotes ready duties for execution subject to cooldown
// and hourly-cap limits, and execution outcomes feed back into each
// duty's confidence and lifecycle status.
package kartavya
