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
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Spawn creates a child agent under a, inheriting every zero-valued
// field of cfg from a's own configuration. It fails if spawning would
// exceed this tree's depth or fan-out ceilings.
func (a *Agent) Spawn(cfg SpawnConfig) (*Agent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.depth+1 > a.maxDepth {
		return nil, newError(a.id, "Spawn", fmt.Sprintf("max depth %d exceeded", a.maxDepth), nil)
	}
	if len(a.children) >= a.maxSubAgents {
		return nil, newError(a.id, "Spawn", fmt.Sprintf("max sub-agents %d exceeded", a.maxSubAgents), nil)
	}

	providerID := cfg.ProviderID
	if providerID == "" {
		providerID = a.providerID
	}
	modelID := cfg.ModelID
	if modelID == "" {
		modelID = a.modelID
	}
	pipeline := a.pipeline
	if cfg.Profile != "" && a.pipeline != nil {
		child := *a.pipeline
		child.Profile = cfg.Profile
		pipeline = &child
	}
	tools := cfg.Tools
	if tools == nil {
		tools = a.tools
	}
	temperature := a.temperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	bubble := true
	if cfg.BubbleEvents != nil {
		bubble = *cfg.BubbleEvents
	}

	child := &Agent{
		id:           uuid.NewString(),
		purpose:      cfg.Purpose,
		depth:        a.depth + 1,
		parent:       a,
		registry:     a.registry,
		pipeline:     pipeline,
		providerID:   providerID,
		modelID:      modelID,
		temperature:  temperature,
		retryConfig:  a.retryConfig,
		tools:        tools,
		policy:       a.policy,
		sink:         a.sink,
		bubbleEvents: bubble,
		maxDepth:     a.maxDepth,
		maxSubAgents: a.maxSubAgents,
		status:       StatusIdle,
	}
	a.children = append(a.children, child)

	child.emit(Event{Type: EventSubagentSpawn})
	return child, nil
}

// Delegate spawns a child per cfg and runs one prompt against it,
// folding the outcome into a SubAgentResult rather than propagating an
// error for ordinary prompt failures.
func (a *Agent) Delegate(ctx context.Context, cfg SpawnConfig, prompt string) (SubAgentResult, error) {
	child, err := a.Spawn(cfg)
	if err != nil {
		return SubAgentResult{}, err
	}
	return child.runDelegated(ctx, prompt), nil
}

func (child *Agent) runDelegated(ctx context.Context, prompt string) SubAgentResult {
	msg, err := child.Prompt(ctx, prompt)
	result := SubAgentResult{
		AgentID:  child.id,
		Purpose:  child.purpose,
		Status:   child.Status(),
		Messages: child.Context(),
	}
	if err != nil {
		result.Status = StatusError
		result.Error = err
		return result
	}
	result.Response = msg.Text()
	return result
}

// DelegateTask pairs a SpawnConfig with the prompt to run against the
// resulting child, the unit of work DelegateParallel fans out over.
type DelegateTask struct {
	Config SpawnConfig
	Prompt string
}

// DelegateParallel spawns one child per task and runs every prompt
// concurrently, returning results in input order. It validates the
// fan-out ceiling before spawning any child, so a rejection never
// leaves a partial batch of children behind.
func (a *Agent) DelegateParallel(ctx context.Context, tasks []DelegateTask) ([]SubAgentResult, error) {
	a.mu.Lock()
	if len(a.children)+len(tasks) > a.maxSubAgents {
		a.mu.Unlock()
		return nil, newError(a.id, "DelegateParallel", fmt.Sprintf("max sub-agents %d exceeded", a.maxSubAgents), nil)
	}
	a.mu.Unlock()

	children := make([]*Agent, len(tasks))
	for i, t := range tasks {
		child, err := a.Spawn(t.Config)
		if err != nil {
			return nil, err
		}
		children[i] = child
	}

	results := make([]SubAgentResult, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	for i := range tasks {
		i := i
		g.Go(func() error {
			results[i] = children[i].runDelegated(gctx, tasks[i].Prompt)
			return nil
		})
	}
	_ = g.Wait() // per-task failures are carried in results, not returned
	return results, nil
}

// GetRoot walks up to the tree's root.
func (a *Agent) GetRoot() *Agent {
	node := a
	for node.parent != nil {
		node = node.parent
	}
	return node
}

// GetAncestors returns a's ancestors, nearest first.
func (a *Agent) GetAncestors() []*Agent {
	var out []*Agent
	for node := a.parent; node != nil; node = node.parent {
		out = append(out, node)
	}
	return out
}

// GetLineage returns a's ancestors followed by a itself, root first.
func (a *Agent) GetLineage() []*Agent {
	ancestors := a.GetAncestors()
	out := make([]*Agent, 0, len(ancestors)+1)
	for i := len(ancestors) - 1; i >= 0; i-- {
		out = append(out, ancestors[i])
	}
	return append(out, a)
}

// GetLineagePath renders a's lineage as a human-readable purpose chain.
func (a *Agent) GetLineagePath() string {
	lineage := a.GetLineage()
	parts := make([]string, len(lineage))
	for i, node := range lineage {
		p := node.purpose
		if p == "" {
			p = node.id
		}
		parts[i] = p
	}
	return strings.Join(parts, " > ")
}

// GetChildren returns a's direct children.
func (a *Agent) GetChildren() []*Agent {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Agent, len(a.children))
	copy(out, a.children)
	return out
}

// GetDescendants returns every node under a, breadth-first.
func (a *Agent) GetDescendants() []*Agent {
	var out []*Agent
	queue := a.GetChildren()
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		out = append(out, node)
		queue = append(queue, node.GetChildren()...)
	}
	return out
}

// GetSiblings returns every other child of a's parent, or nil at the root.
func (a *Agent) GetSiblings() []*Agent {
	if a.parent == nil {
		return nil
	}
	var out []*Agent
	for _, c := range a.parent.GetChildren() {
		if c.id != a.id {
			out = append(out, c)
		}
	}
	return out
}

// FindAgent searches a's subtree (a included) for the given id.
func (a *Agent) FindAgent(id string) *Agent {
	if a.id == id {
		return a
	}
	for _, d := range a.GetDescendants() {
		if d.id == id {
			return d
		}
	}
	return nil
}

// IsAncestorOf reports whether a is an ancestor of other.
func (a *Agent) IsAncestorOf(other *Agent) bool {
	for node := other.parent; node != nil; node = node.parent {
		if node.id == a.id {
			return true
		}
	}
	return false
}

// IsDescendantOf reports whether a is a descendant of other.
func (a *Agent) IsDescendantOf(other *Agent) bool {
	return other.IsAncestorOf(a)
}

// TreeSnapshot is a serializable view of a subtree's shape.
type TreeSnapshot struct {
	AgentID     string         `json:"agentId"`
	Purpose     string         `json:"purpose"`
	Status      Status         `json:"status"`
	Depth       int            `json:"depth"`
	Children    []TreeSnapshot `json:"children,omitempty"`
	TotalAgents int            `json:"totalAgents,omitempty"` // populated on the root snapshot only
	MaxDepth    int            `json:"maxDepth,omitempty"`
}

// GetTree returns a serializable snapshot of a's subtree.
func (a *Agent) GetTree() TreeSnapshot {
	snap := a.snapshot()
	snap.TotalAgents = 1 + len(a.GetDescendants())
	snap.MaxDepth = a.maxDepthBelow()
	return snap
}

func (a *Agent) snapshot() TreeSnapshot {
	children := a.GetChildren()
	snap := TreeSnapshot{
		AgentID: a.id,
		Purpose: a.purpose,
		Status:  a.Status(),
		Depth:   a.depth,
	}
	for _, c := range children {
		snap.Children = append(snap.Children, c.snapshot())
	}
	return snap
}

func (a *Agent) maxDepthBelow() int {
	max := a.depth
	for _, d := range a.GetDescendants() {
		if d.depth > max {
			max = d.depth
		}
	}
	return max
}

// RenderTree draws a's subtree as an ASCII tree rooted at a.
func (a *Agent) RenderTree() string {
	var b strings.Builder
	renderNode(&b, a, "", true)
	return b.String()
}

func renderNode(b *strings.Builder, node *Agent, prefix string, last bool) {
	connector := "├── "
	if last {
		connector = "└── "
	}
	if prefix == "" {
		connector = ""
	}
	label := node.purpose
	if label == "" {
		label = node.id
	}
	fmt.Fprintf(b, "%s%s%s [%s]\n", prefix, connector, label, node.Status())

	childPrefix := prefix
	if prefix != "" {
		if last {
			childPrefix += "    "
		} else {
			childPrefix += "│   "
		}
	}
	children := node.GetChildren()
	for i, c := range children {
		renderNode(b, c, childPrefix, i == len(children)-1)
	}
}

// RemoveChild removes a child by id, and fails if that child is
// currently running.
func (a *Agent) RemoveChild(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, c := range a.children {
		if c.id != id {
			continue
		}
		if c.Status() == StatusRunning {
			return newError(a.id, "RemoveChild", fmt.Sprintf("child %s is running", id), nil)
		}
		a.children = append(a.children[:i], a.children[i+1:]...)
		return nil
	}
	return newError(a.id, "RemoveChild", fmt.Sprintf("no such child %s", id), nil)
}

// PruneChildren removes every child whose status is not running,
// returning the number removed.
func (a *Agent) PruneChildren() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	kept := a.children[:0]
	removed := 0
	for _, c := range a.children {
		if c.Status() == StatusRunning {
			kept = append(kept, c)
		} else {
			removed++
		}
	}
	a.children = kept
	return removed
}

// Abort cancels a's in-flight prompt, if any, and cascades to every
// descendant. Agents that never started a prompt stay idle; agents
// that were running transition to aborted.
func (a *Agent) Abort() {
	a.mu.Lock()
	cancel := a.cancel
	children := make([]*Agent, len(a.children))
	copy(children, a.children)
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, c := range children {
		c.Abort()
	}
}
