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
	"strings"
	"testing"
	"time"

	"github.com/chitragupta/runtime/pkg/provider"
)

func newTreeRoot(t *testing.T) *Agent {
	t.Helper()
	adapter := &scriptedAdapter{id: "test", sequence: [][]provider.StreamEvent{
		{{Type: provider.EventText, Text: "ok"}, {Type: provider.EventDone, StopReason: provider.StopEndTurn}},
	}}
	reg := provider.NewRegistry()
	reg.Register("test", adapter)
	return New(Config{
		Purpose:     "root",
		Registry:    reg,
		ProviderID:  "test",
		ModelID:     "any",
		RetryConfig: testRetryConfig(),
	})
}

func TestSpawnInheritsParentBinding(t *testing.T) {
	root := newTreeRoot(t)
	child, err := root.Spawn(SpawnConfig{Purpose: "helper"})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if child.providerID != root.providerID || child.modelID != root.modelID {
		t.Fatal("expected child to inherit provider/model binding")
	}
	if child.depth != 1 {
		t.Fatalf("want depth 1, got %d", child.depth)
	}
	if child.Parent() != root {
		t.Fatal("expected parent to be root")
	}
}

func TestSpawnEnforcesMaxDepth(t *testing.T) {
	root := newTreeRoot(t)
	root.maxDepth = 1
	if _, err := root.Spawn(SpawnConfig{Purpose: "child"}); err != nil {
		t.Fatalf("expected first spawn to succeed: %v", err)
	}
	child := root.GetChildren()[0]
	if _, err := child.Spawn(SpawnConfig{Purpose: "grandchild"}); err == nil {
		t.Fatal("expected depth ceiling to reject the grandchild")
	}
}

func TestSpawnEnforcesMaxSubAgents(t *testing.T) {
	root := newTreeRoot(t)
	root.maxSubAgents = 1
	if _, err := root.Spawn(SpawnConfig{Purpose: "a"}); err != nil {
		t.Fatalf("first spawn: %v", err)
	}
	if _, err := root.Spawn(SpawnConfig{Purpose: "b"}); err == nil {
		t.Fatal("expected fan-out ceiling to reject the second spawn")
	}
}

func TestDelegateRunsPromptOnChild(t *testing.T) {
	root := newTreeRoot(t)
	result, err := root.Delegate(context.Background(), SpawnConfig{Purpose: "helper"}, "do it")
	if err != nil {
		t.Fatalf("Delegate: %v", err)
	}
	if result.Status != StatusCompleted {
		t.Fatalf("want completed, got %s", result.Status)
	}
	if result.Response != "ok" {
		t.Fatalf("want %q, got %q", "ok", result.Response)
	}
	if result.Purpose != "helper" {
		t.Fatalf("want helper, got %s", result.Purpose)
	}
}

func TestDelegateParallelRunsConcurrentlyInOrder(t *testing.T) {
	root := newTreeRoot(t)
	tasks := []DelegateTask{
		{Config: SpawnConfig{Purpose: "one"}, Prompt: "a"},
		{Config: SpawnConfig{Purpose: "two"}, Prompt: "b"},
		{Config: SpawnConfig{Purpose: "three"}, Prompt: "c"},
	}
	results, err := root.DelegateParallel(context.Background(), tasks)
	if err != nil {
		t.Fatalf("DelegateParallel: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("want 3 results, got %d", len(results))
	}
	for i, want := range []string{"one", "two", "three"} {
		if results[i].Purpose != want {
			t.Fatalf("result %d: want purpose %s, got %s", i, want, results[i].Purpose)
		}
		if results[i].Status != StatusCompleted {
			t.Fatalf("result %d: want completed, got %s", i, results[i].Status)
		}
	}
}

func TestDelegateParallelRejectsOverCeiling(t *testing.T) {
	root := newTreeRoot(t)
	root.maxSubAgents = 2
	tasks := []DelegateTask{
		{Config: SpawnConfig{Purpose: "one"}, Prompt: "a"},
		{Config: SpawnConfig{Purpose: "two"}, Prompt: "b"},
		{Config: SpawnConfig{Purpose: "three"}, Prompt: "c"},
	}
	if _, err := root.DelegateParallel(context.Background(), tasks); err == nil {
		t.Fatal("expected fan-out ceiling rejection")
	}
	if len(root.GetChildren()) != 0 {
		t.Fatal("expected no partial children on rejection")
	}
}

func TestTraversalHelpers(t *testing.T) {
	root := newTreeRoot(t)
	mid, _ := root.Spawn(SpawnConfig{Purpose: "mid"})
	leaf, _ := mid.Spawn(SpawnConfig{Purpose: "leaf"})
	sibling, _ := mid.Spawn(SpawnConfig{Purpose: "sibling"})

	if leaf.GetRoot() != root {
		t.Fatal("GetRoot mismatch")
	}
	ancestors := leaf.GetAncestors()
	if len(ancestors) != 2 || ancestors[0] != mid || ancestors[1] != root {
		t.Fatalf("unexpected ancestors: %v", ancestors)
	}
	lineage := leaf.GetLineage()
	if len(lineage) != 3 || lineage[0] != root || lineage[2] != leaf {
		t.Fatalf("unexpected lineage: %v", lineage)
	}
	if path := leaf.GetLineagePath(); path != "root > mid > leaf" {
		t.Fatalf("unexpected lineage path: %q", path)
	}

	descendants := root.GetDescendants()
	if len(descendants) != 3 {
		t.Fatalf("want 3 descendants, got %d", len(descendants))
	}

	siblings := leaf.GetSiblings()
	if len(siblings) != 1 || siblings[0] != sibling {
		t.Fatalf("unexpected siblings: %v", siblings)
	}

	if root.FindAgent(leaf.ID()) != leaf {
		t.Fatal("FindAgent failed to locate leaf")
	}
	if !root.IsAncestorOf(leaf) || !leaf.IsDescendantOf(root) {
		t.Fatal("ancestor/descendant relationship broken")
	}
	if leaf.IsAncestorOf(root) {
		t.Fatal("leaf must not be an ancestor of root")
	}
}

func TestGetTreeSnapshotCountsAndDepth(t *testing.T) {
	root := newTreeRoot(t)
	mid, _ := root.Spawn(SpawnConfig{Purpose: "mid"})
	mid.Spawn(SpawnConfig{Purpose: "leaf"})

	snap := root.GetTree()
	if snap.TotalAgents != 3 {
		t.Fatalf("want 3 total agents, got %d", snap.TotalAgents)
	}
	if snap.MaxDepth != 2 {
		t.Fatalf("want max depth 2, got %d", snap.MaxDepth)
	}
	if len(snap.Children) != 1 || len(snap.Children[0].Children) != 1 {
		t.Fatal("unexpected snapshot shape")
	}
}

func TestRenderTreeIncludesEveryPurpose(t *testing.T) {
	root := newTreeRoot(t)
	root.Spawn(SpawnConfig{Purpose: "helper-a"})
	root.Spawn(SpawnConfig{Purpose: "helper-b"})

	rendered := root.RenderTree()
	for _, want := range []string{"root", "helper-a", "helper-b"} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("rendered tree missing %q:\n%s", want, rendered)
		}
	}
}

func TestRemoveChildRejectsRunningChild(t *testing.T) {
	root := newTreeRoot(t)
	child, _ := root.Spawn(SpawnConfig{Purpose: "helper"})
	child.status = StatusRunning

	if err := root.RemoveChild(child.ID()); err == nil {
		t.Fatal("expected RemoveChild to reject a running child")
	}
	child.status = StatusCompleted
	if err := root.RemoveChild(child.ID()); err != nil {
		t.Fatalf("RemoveChild: %v", err)
	}
	if len(root.GetChildren()) != 0 {
		t.Fatal("expected child to be removed")
	}
}

func TestPruneChildrenKeepsOnlyRunning(t *testing.T) {
	root := newTreeRoot(t)
	running, _ := root.Spawn(SpawnConfig{Purpose: "running"})
	running.status = StatusRunning
	done, _ := root.Spawn(SpawnConfig{Purpose: "done"})
	done.status = StatusCompleted
	idle, _ := root.Spawn(SpawnConfig{Purpose: "idle"})
	idle.status = StatusIdle

	removed := root.PruneChildren()
	if removed != 2 {
		t.Fatalf("want 2 removed, got %d", removed)
	}
	children := root.GetChildren()
	if len(children) != 1 || children[0] != running {
		t.Fatalf("expected only the running child to remain, got %v", children)
	}
}

func TestAbortCascadesThroughIdleAndRunningDescendants(t *testing.T) {
	root := newTreeRoot(t)
	idleChild, _ := root.Spawn(SpawnConfig{Purpose: "idle-child"})

	blocker := &blockingAdapter{unblock: make(chan struct{})}
	runningChild := &Agent{
		id:           "running-child",
		purpose:      "running-child",
		depth:        1,
		parent:       root,
		registry:     func() *provider.Registry { r := provider.NewRegistry(); r.Register("test", blocker); return r }(),
		providerID:   "test",
		modelID:      "any",
		sink:         func(Event) {},
		bubbleEvents: true,
		maxDepth:     root.maxDepth,
		maxSubAgents: root.maxSubAgents,
		status:       StatusIdle,
		retryConfig:  testRetryConfig(),
	}
	root.children = append(root.children, runningChild)

	started := make(chan struct{})
	go func() {
		close(started)
		runningChild.Prompt(context.Background(), "hi")
	}()
	<-started
	for i := 0; i < 100 && runningChild.Status() != StatusRunning; i++ {
		time.Sleep(time.Millisecond)
	}

	root.Abort()

	for i := 0; i < 100 && runningChild.Status() == StatusRunning; i++ {
		time.Sleep(time.Millisecond)
	}
	if runningChild.Status() != StatusAborted {
		t.Fatalf("want running child aborted, got %s", runningChild.Status())
	}
	if idleChild.Status() != StatusIdle {
		t.Fatalf("want idle child to remain idle, got %s", idleChild.Status())
	}
}
