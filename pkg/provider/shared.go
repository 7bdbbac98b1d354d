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
	"io"
	"net/http"
	"strconv"
)

// sendEvent delivers ev unless ctx is already done, honoring
// cancellation cooperatively instead of blocking forever on a full
// buffered channel nobody is draining anymore.
func sendEvent(ctx context.Context, out chan<- StreamEvent, ev StreamEvent) {
	select {
	case out <- ev:
	case <-ctx.Done():
	}
}

// readAllLimited reads up to 64KiB of a response body for error
// reporting, never more.
func readAllLimited(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 64*1024))
	return string(b)
}

// emitTransportError classifies a non-2xx response and emits a single
// error event carrying enough detail for RetryableStream to decide.
func emitTransportError(out chan<- StreamEvent, status int, body string, header http.Header) {
	defer close(out)
	ev := StreamEvent{
		Type:       EventError,
		StatusCode: status,
		Err:        fmt.Errorf("provider request failed with status %d: %s", status, body),
		Retryable:  retryableStatus(status),
		RetryAfter: parseRetryAfter(header),
	}
	if isAuthStatus(status) {
		ev.Retryable = false
	}
	out <- ev
}

// parseRetryAfter reads a Retry-After header expressed in seconds.
func parseRetryAfter(h http.Header) int64 {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return secs
}
