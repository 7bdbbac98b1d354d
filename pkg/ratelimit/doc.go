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

// Package ratelimit provides a per-provider token-bucket rate limiter.
//
// A Limiter tracks two rolling 60-second windows — requests and
// declared tokens — and admits callers either immediately (fast path)
// or by queuing them in priority order until capacity frees up (slow
// path). Waiters are drained on a periodic tick backed by
// golang.org/x/time/rate, which is also the steady-state pacing
// primitive used between drain attempts.
package ratelimit
