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

package kartavya

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chitragupta/runtime/pkg/logger"
)

// Engine holds the live set of proposals and duties and evaluates
// triggers against a supplied EvaluationContext.
type Engine struct {
	mu        sync.Mutex
	cfg       Config
	kartavyas map[string]*Kartavya
	proposals map[string]*NiyamaProposal
}

// New creates an Engine, clamping cfg to the package's hard ceilings.
func New(cfg Config) *Engine {
	return &Engine{
		cfg:       cfg.withDefaults(),
		kartavyas: make(map[string]*Kartavya),
		proposals: make(map[string]*NiyamaProposal),
	}
}

func (e *Engine) activeCount() int {
	n := 0
	for _, k := range e.kartavyas {
		if k.Status == KartavyaActive {
			n++
		}
	}
	return n
}

// ProposeNiyama drafts a new proposal pending approval.
func (e *Engine) ProposeNiyama(trigger Trigger, action string, confidence float64, vasanaID string, evidence []string) *NiyamaProposal {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := &NiyamaProposal{
		ID:         uuid.NewString(),
		VasanaID:   vasanaID,
		Trigger:    trigger,
		Action:     action,
		Confidence: confidence,
		Evidence:   evidence,
		Status:     NiyamaPending,
		CreatedAt:  time.Now(),
	}
	e.proposals[p.ID] = p
	return p
}

// ApproveNiyama turns a pending proposal into an active Kartavya,
// rejecting the approval if the active-duty ceiling is already hit.
func (e *Engine) ApproveNiyama(id string) (*Kartavya, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.proposals[id]
	if !ok {
		return nil, fmt.Errorf("kartavya: no such proposal %q", id)
	}
	if p.Status != NiyamaPending {
		return nil, fmt.Errorf("kartavya: proposal %q is not pending", id)
	}
	if e.activeCount() >= e.cfg.MaxActive {
		return nil, fmt.Errorf("kartavya: active duty ceiling (%d) reached", e.cfg.MaxActive)
	}

	trigger := p.Trigger
	if trigger.CooldownMs < e.cfg.MinCooldownMs {
		trigger.CooldownMs = e.cfg.MinCooldownMs
	}

	now := time.Now()
	k := &Kartavya{
		ID:         uuid.NewString(),
		Trigger:    trigger,
		Action:     p.Action,
		Confidence: p.Confidence,
		Status:     KartavyaActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	e.kartavyas[k.ID] = k
	p.Status = NiyamaApproved
	return k, nil
}

// AutoPromote approves, without human review, every vasana whose
// strength times predictive accuracy clears the configured
// auto-approve threshold. It returns the IDs of the duties created.
func (e *Engine) AutoPromote(vasanas []Vasana) []string {
	var promoted []string
	for _, v := range vasanas {
		if v.Strength*v.PredictiveAccuracy < e.cfg.AutoApproveThreshold {
			continue
		}
		p := e.ProposeNiyama(v.Trigger, v.Action, v.Strength*v.PredictiveAccuracy, v.ID, v.Evidence)
		k, err := e.ApproveNiyama(p.ID)
		if err != nil {
			continue
		}
		promoted = append(promoted, k.ID)
	}
	return promoted
}

// pruneExecutionLog returns a new slice holding the entries of log from
// the last hour; log itself is left unchanged.
func pruneExecutionLog(log []ExecutionRecord, now time.Time) []ExecutionRecord {
	cutoff := now.Add(-time.Hour)
	kept := log[:0:0]
	for _, rec := range log {
		if rec.At.After(cutoff) {
			kept = append(kept, rec)
		}
	}
	return kept
}

// EvaluateTriggers matches every active Kartavya's trigger against
// ctx, skipping duties over the hourly execution cap or still inside
// their cooldown window, and returns the ones ready to fire in a
// deterministic (ID-sorted) order.
func (e *Engine) EvaluateTriggers(ctx EvaluationContext) []*Kartavya {
	e.mu.Lock()
	defer e.mu.Unlock()

	var ready []*Kartavya
	for _, k := range e.kartavyas {
		if k.Status != KartavyaActive {
			continue
		}
		k.ExecutionLog = pruneExecutionLog(k.ExecutionLog, ctx.Now)
		if len(k.ExecutionLog) >= e.cfg.MaxExecutionsPerHour {
			continue
		}
		if k.Trigger.LastFired != nil {
			elapsed := ctx.Now.Sub(*k.Trigger.LastFired)
			if elapsed < time.Duration(k.Trigger.CooldownMs)*time.Millisecond {
				continue
			}
		}
		if !k.Trigger.matches(ctx) {
			continue
		}
		ready = append(ready, k)
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i].ID < ready[j].ID })
	return ready
}

// RecordExecution logs an execution outcome, nudges confidence, and
// auto-fails a duty whose recent failure rate has gotten too high.
func (e *Engine) RecordExecution(id string, success bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	k, ok := e.kartavyas[id]
	if !ok {
		return fmt.Errorf("kartavya: no such duty %q", id)
	}

	now := time.Now()
	k.ExecutionLog = append(k.ExecutionLog, ExecutionRecord{At: now, Success: success})
	k.TotalExecutions++
	if success {
		k.Confidence += 0.01
	} else {
		k.TotalFailures++
		k.Confidence -= 0.05
	}
	if k.Confidence > 1 {
		k.Confidence = 1
	}
	if k.Confidence < 0 {
		k.Confidence = 0
	}

	k.Trigger.LastFired = &now
	k.LastExecuted = &now
	k.UpdatedAt = now

	if k.TotalExecutions >= 5 {
		failureRate := float64(k.TotalFailures) / float64(k.TotalExecutions)
		if failureRate > 0.5 && k.Status == KartavyaActive {
			k.Status = KartavyaFailed
			logger.GetLogger().Warn("auto-failing duty", "kartavyaID", id, "failureRate", failureRate, "totalExecutions", k.TotalExecutions)
		}
	}
	return nil
}

func (e *Engine) transition(id string, from, to KartavyaStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	k, ok := e.kartavyas[id]
	if !ok {
		return fmt.Errorf("kartavya: no such duty %q", id)
	}
	if k.Status != from {
		return fmt.Errorf("kartavya: %q is %s, not %s", id, k.Status, from)
	}
	k.Status = to
	k.UpdatedAt = time.Now()
	return nil
}

// Pause moves an active duty to paused.
func (e *Engine) Pause(id string) error { return e.transition(id, KartavyaActive, KartavyaPaused) }

// Resume moves a paused duty back to active.
func (e *Engine) Resume(id string) error { return e.transition(id, KartavyaPaused, KartavyaActive) }

// Retire permanently stands a duty down, regardless of its current
// status (so long as it isn't already retired).
func (e *Engine) Retire(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	k, ok := e.kartavyas[id]
	if !ok {
		return fmt.Errorf("kartavya: no such duty %q", id)
	}
	if k.Status == KartavyaRetired {
		return fmt.Errorf("kartavya: %q is already retired", id)
	}
	k.Status = KartavyaRetired
	k.UpdatedAt = time.Now()
	return nil
}

// Get returns the duty with the given ID.
func (e *Engine) Get(id string) (*Kartavya, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	k, ok := e.kartavyas[id]
	return k, ok
}

// ReportStuck records a stuck reason against a duty, without changing
// its lifecycle status — a human or supervisor decides what to do
// with that signal.
func (e *Engine) ReportStuck(id, reason string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	k, ok := e.kartavyas[id]
	if !ok {
		return fmt.Errorf("kartavya: no such duty %q", id)
	}
	k.StuckReason = reason
	k.UpdatedAt = time.Now()
	return nil
}
