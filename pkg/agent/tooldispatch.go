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

package agent

import (
	"context"
	"fmt"

	"github.com/chitragupta/runtime/pkg/provider"
)

// dispatchTool checks policy, locates the handler, and executes it,
// folding every failure mode into a ToolCallResult rather than
// propagating an error: a denied or failing tool call is reported back
// to the model, not a reason to abort the turn.
func (a *Agent) dispatchTool(ctx context.Context, tc provider.ToolCall) provider.ToolCallResult {
	if a.policy != nil {
		decision := a.policy.Check(tc.Name, tc.Arguments)
		if !decision.Allowed {
			reason := decision.Reason
			if reason == "" {
				reason = "denied"
			}
			return provider.ToolCallResult{
				ToolCallID: tc.ID,
				Content:    fmt.Sprintf("Policy denied: %s", reason),
				IsError:    true,
			}
		}
	}

	if a.tools == nil {
		return provider.ToolCallResult{
			ToolCallID: tc.ID,
			Content:    fmt.Sprintf("Unknown tool %q", tc.Name),
			IsError:    true,
		}
	}
	handler, ok := a.tools.Get(tc.Name)
	if !ok {
		return provider.ToolCallResult{
			ToolCallID: tc.ID,
			Content:    fmt.Sprintf("Unknown tool %q", tc.Name),
			IsError:    true,
		}
	}

	result, err := handler.Execute(ctx, tc.Arguments)
	if err != nil {
		return provider.ToolCallResult{
			ToolCallID: tc.ID,
			Content:    err.Error(),
			IsError:    true,
		}
	}

	return provider.ToolCallResult{
		ToolCallID: tc.ID,
		Content:    result.Content,
		IsError:    result.IsError,
	}
}
