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

package supervisor

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chitragupta/runtime/pkg/logger"
)

func defaultConfig() Config {
	return Config{
		HeartbeatInterval: 5 * time.Second,
		StaleThreshold:    30 * time.Second,
		DeadThreshold:     2 * time.Minute,
	}
}

// Supervisor is KaalaBrahma: a registry of heartbeats keyed by
// agentId, independent of the agents themselves.
type Supervisor struct {
	mu         sync.Mutex
	cfg        Config
	heartbeats map[string]*Heartbeat
	callbacks  []StatusChangeFunc

	heartbeatsByStatus *prometheus.GaugeVec
}

// New creates a Supervisor. A zero Config takes the package defaults.
func New(cfg Config) *Supervisor {
	if cfg.HeartbeatInterval == 0 {
		cfg = defaultConfig()
	}
	s := &Supervisor{
		cfg:        cfg,
		heartbeats: make(map[string]*Heartbeat),
		heartbeatsByStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "runtime",
				Subsystem: "supervisor",
				Name:      "heartbeats",
				Help:      "Number of registered heartbeats by status.",
			},
			[]string{"status"},
		),
	}
	return s
}

// Collectors exposes the supervisor's Prometheus collectors for
// registration with a metrics registry.
func (s *Supervisor) Collectors() []prometheus.Collector {
	return []prometheus.Collector{s.heartbeatsByStatus}
}

// Subscribe adds a callback notified of every status mutation.
func (s *Supervisor) Subscribe(fn StatusChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, fn)
}

func (s *Supervisor) notify(change StatusChange) {
	for _, cb := range s.callbacks {
		cb(change)
	}
}

// RegisterAgent inserts a new heartbeat record.
func (s *Supervisor) RegisterAgent(hb Heartbeat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if hb.LastBeat.IsZero() {
		hb.LastBeat = hb.StartedAt
	}
	rec := hb
	s.heartbeats[hb.AgentID] = &rec
	s.refreshGauge()
}

// RecordHeartbeat bumps lastBeat to now and merges patch onto the
// existing record.
func (s *Supervisor) RecordHeartbeat(agentID string, patch *HeartbeatPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hb, ok := s.heartbeats[agentID]
	if !ok {
		return
	}
	hb.LastBeat = time.Now()
	if patch != nil {
		if patch.TurnCount != nil {
			hb.TurnCount = *patch.TurnCount
		}
		if patch.TokenUsage != nil {
			hb.TokenUsage = *patch.TokenUsage
		}
		if patch.TokenBudget != nil {
			hb.TokenBudget = *patch.TokenBudget
		}
	}
}

// ReportStuck transitions an agent to stale with a recorded reason.
func (s *Supervisor) ReportStuck(agentID, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hb, ok := s.heartbeats[agentID]
	if !ok {
		return
	}
	old := hb.Status
	hb.Status = StatusStale
	hb.StuckReason = reason
	s.refreshGauge()
	if old != hb.Status {
		s.notify(StatusChange{AgentID: agentID, OldStatus: old, NewStatus: hb.Status, Reason: reason})
	}
}

// HealTree sweeps every heartbeat: records older than deadThreshold
// are reaped (deleted, terminal — no dead→killed transition is
// notified since deletion itself is the terminal signal); records
// older than staleThreshold are promoted alive→stale.
func (s *Supervisor) HealTree() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, hb := range s.heartbeats {
		age := now.Sub(hb.LastBeat)
		switch {
		case age >= s.cfg.DeadThreshold:
			old := hb.Status
			delete(s.heartbeats, id)
			logger.GetLogger().Warn("reaping dead agent", "agentID", id, "age", age)
			s.notify(StatusChange{AgentID: id, OldStatus: old, NewStatus: StatusDead, Reason: "deadThreshold exceeded"})
		case age >= s.cfg.StaleThreshold && hb.Status == StatusAlive:
			old := hb.Status
			hb.Status = StatusStale
			s.notify(StatusChange{AgentID: id, OldStatus: old, NewStatus: StatusStale, Reason: "staleThreshold exceeded"})
		}
	}
	s.refreshGauge()
}

// isAncestor reports whether ancestorID is an ancestor of agentID by
// walking the parentId chain. Must be called with s.mu held.
func (s *Supervisor) isAncestor(ancestorID, agentID string) bool {
	node, ok := s.heartbeats[agentID]
	for ok {
		if node.ParentID == ancestorID {
			return true
		}
		node, ok = s.heartbeats[node.ParentID]
	}
	return false
}

// subtreeIDs collects rootID and every descendant, bottom-up (deepest
// first). Must be called with s.mu held.
func (s *Supervisor) subtreeIDs(rootID string) []string {
	childrenOf := make(map[string][]string)
	for id, hb := range s.heartbeats {
		childrenOf[hb.ParentID] = append(childrenOf[hb.ParentID], id)
	}
	var order []string
	var walk func(id string)
	walk = func(id string) {
		for _, c := range childrenOf[id] {
			walk(c)
		}
		order = append(order, id)
	}
	walk(rootID)
	return order
}

// KillAgent requires requester to be an ancestor of target, then sets
// status=killed and deletes every node in target's subtree,
// bottom-up, summing freed tokens.
func (s *Supervisor) KillAgent(requester, target string) KillResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.heartbeats[target]; !ok {
		return KillResult{Success: false, Reason: "target not found"}
	}
	if !s.isAncestor(requester, target) {
		return KillResult{Success: false, Reason: "not an ancestor"}
	}

	ids := s.subtreeIDs(target)
	var freed int
	for _, id := range ids {
		hb := s.heartbeats[id]
		old := hb.Status
		hb.Status = StatusKilled
		diff := hb.TokenBudget - hb.TokenUsage
		if diff > 0 {
			freed += diff
		}
		delete(s.heartbeats, id)
		s.notify(StatusChange{AgentID: id, OldStatus: old, NewStatus: StatusKilled, Reason: "cascade kill"})
	}
	s.refreshGauge()
	logger.GetLogger().Info("cascade kill", "requester", requester, "target", target, "killed", len(ids), "freedTokens", freed)

	return KillResult{
		Success:      true,
		KilledIDs:    ids,
		CascadeCount: len(ids),
		FreedTokens:  freed,
	}
}

// HealAgent requires requester to be an ancestor of target, then
// transitions stale/dead back to alive and clears the stuck reason.
// Dead records no longer exist once reaped, so healing a dead agent
// is only possible in the window before HealTree sweeps it.
func (s *Supervisor) HealAgent(requester, target string) KillResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	hb, ok := s.heartbeats[target]
	if !ok {
		return KillResult{Success: false, Reason: "target not found"}
	}
	if !s.isAncestor(requester, target) {
		return KillResult{Success: false, Reason: "not an ancestor"}
	}
	if hb.Status != StatusStale && hb.Status != StatusDead {
		return KillResult{Success: false, Reason: "target is not stale or dead"}
	}

	old := hb.Status
	hb.Status = StatusAlive
	hb.StuckReason = ""
	hb.LastBeat = time.Now()
	s.refreshGauge()
	s.notify(StatusChange{AgentID: target, OldStatus: old, NewStatus: StatusAlive, Reason: "healed"})
	return KillResult{Success: true}
}

// GetTreeHealth reports totals by status, max depth, highest token
// usage, and a per-node snapshot with child/descendant counts derived
// from the parentId graph.
func (s *Supervisor) GetTreeHealth() TreeHealth {
	s.mu.Lock()
	defer s.mu.Unlock()

	childrenOf := make(map[string][]string)
	for id, hb := range s.heartbeats {
		childrenOf[hb.ParentID] = append(childrenOf[hb.ParentID], id)
	}

	var descendantCount func(id string) int
	descendantCount = func(id string) int {
		count := 0
		for _, c := range childrenOf[id] {
			count += 1 + descendantCount(c)
		}
		return count
	}

	health := TreeHealth{TotalByStatus: make(map[Status]int)}
	for id, hb := range s.heartbeats {
		health.TotalByStatus[hb.Status]++
		if hb.Depth > health.MaxDepth {
			health.MaxDepth = hb.Depth
		}
		if hb.TokenUsage > health.HighestTokenUsage {
			health.HighestTokenUsage = hb.TokenUsage
		}
		health.Nodes = append(health.Nodes, NodeHealth{
			AgentID:         id,
			Status:          hb.Status,
			Depth:           hb.Depth,
			TokenUsage:      hb.TokenUsage,
			ChildCount:      len(childrenOf[id]),
			DescendantCount: descendantCount(id),
		})
	}
	return health
}

// refreshGauge recomputes the by-status heartbeat gauge. Must be
// called with s.mu held.
func (s *Supervisor) refreshGauge() {
	counts := map[Status]int{}
	for _, hb := range s.heartbeats {
		counts[hb.Status]++
	}
	for _, st := range []Status{StatusAlive, StatusStale, StatusDead, StatusKilled} {
		s.heartbeatsByStatus.WithLabelValues(string(st)).Set(float64(counts[st]))
	}
}
