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

package ratelimit

import "errors"

// Common errors returned by Limiter.Acquire.
var (
	// ErrDestroyed is returned when Acquire is called on a destroyed limiter,
	// or when a waiter was queued on a limiter that was subsequently destroyed.
	ErrDestroyed = errors.New("ratelimit: limiter destroyed")

	// ErrReset is returned to queued waiters when Reset drops the windows.
	ErrReset = errors.New("ratelimit: limiter reset")
)
