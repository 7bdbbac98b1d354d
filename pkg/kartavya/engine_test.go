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
	"testing"
	"time"
)

func approvedKartavya(t *testing.T, e *Engine, trigger Trigger) *Kartavya {
	t.Helper()
	p := e.ProposeNiyama(trigger, "do-thing", 0.9, "vasana-1", []string{"ev"})
	k, err := e.ApproveNiyama(p.ID)
	if err != nil {
		t.Fatalf("ApproveNiyama: %v", err)
	}
	return k
}

func TestCronMatchExactMinute(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 5, 0, 0, time.UTC)
	if !matchesCron("*/5 * * * *", now) {
		t.Fatal("expected */5 * * * * to match 10:05:00Z")
	}
	miss := time.Date(2024, 1, 1, 10, 7, 0, 0, time.UTC)
	if matchesCron("*/5 * * * *", miss) {
		t.Fatal("expected */5 * * * * not to match 10:07:00Z")
	}
}

func TestCronMatchMalformedNeverMatches(t *testing.T) {
	if matchesCron("not a cron expr", time.Now()) {
		t.Fatal("a malformed expression should never match")
	}
}

func TestEvaluateTriggersRespectsCooldown(t *testing.T) {
	e := New(Config{MinCooldownMs: 60_000})
	k := approvedKartavya(t, e, Trigger{Type: TriggerEvent, Condition: "deploy", CooldownMs: 60_000})

	now := time.Now()
	lastFired := now.Add(-30 * time.Second)
	k.Trigger.LastFired = &lastFired

	ready := e.EvaluateTriggers(EvaluationContext{Now: now, Events: []string{"deploy"}})
	if len(ready) != 0 {
		t.Fatalf("expected no duties ready within cooldown, got %v", ready)
	}

	lastFired2 := now.Add(-70 * time.Second)
	k.Trigger.LastFired = &lastFired2
	ready = e.EvaluateTriggers(EvaluationContext{Now: now, Events: []string{"deploy"}})
	if len(ready) != 1 || ready[0].ID != k.ID {
		t.Fatalf("expected %s ready once cooldown has elapsed, got %v", k.ID, ready)
	}
}

func TestEvaluateTriggersSkipsOverHourlyCap(t *testing.T) {
	e := New(Config{MaxExecutionsPerHour: 2})
	k := approvedKartavya(t, e, Trigger{Type: TriggerEvent, Condition: "tick"})

	now := time.Now()
	k.ExecutionLog = []ExecutionRecord{
		{At: now.Add(-10 * time.Minute), Success: true},
		{At: now.Add(-5 * time.Minute), Success: true},
	}

	ready := e.EvaluateTriggers(EvaluationContext{Now: now, Events: []string{"tick"}})
	if len(ready) != 0 {
		t.Fatalf("expected the hourly cap to suppress firing, got %v", ready)
	}
}

func TestEvaluateTriggersPrunesOldExecutions(t *testing.T) {
	e := New(Config{MaxExecutionsPerHour: 1})
	k := approvedKartavya(t, e, Trigger{Type: TriggerEvent, Condition: "tick"})

	now := time.Now()
	k.ExecutionLog = []ExecutionRecord{{At: now.Add(-2 * time.Hour), Success: true}}

	ready := e.EvaluateTriggers(EvaluationContext{Now: now, Events: []string{"tick"}})
	if len(ready) != 1 {
		t.Fatalf("expected the stale execution to be pruned and the duty to fire, got %v", ready)
	}
}

func TestEvaluateTriggersThreshold(t *testing.T) {
	e := New(Config{})
	approvedKartavya(t, e, Trigger{Type: TriggerThreshold, Condition: "cpu >= 90"})

	below := e.EvaluateTriggers(EvaluationContext{Now: time.Now(), Metrics: map[string]float64{"cpu": 85}})
	if len(below) != 0 {
		t.Fatalf("expected no match below threshold, got %v", below)
	}
	above := e.EvaluateTriggers(EvaluationContext{Now: time.Now(), Metrics: map[string]float64{"cpu": 95}})
	if len(above) != 1 {
		t.Fatalf("expected a match at or above threshold, got %v", above)
	}
}

func TestEvaluateTriggersPatternFallsBackToSubstring(t *testing.T) {
	e := New(Config{})
	approvedKartavya(t, e, Trigger{Type: TriggerPattern, Condition: "[unterminated"})

	ready := e.EvaluateTriggers(EvaluationContext{Now: time.Now(), Patterns: []string{"has [unterminated inside"}})
	if len(ready) != 1 {
		t.Fatal("expected an unparseable regex to fall back to substring matching")
	}
}

func TestRecordExecutionNudgesConfidenceAndAutoFails(t *testing.T) {
	e := New(Config{})
	k := approvedKartavya(t, e, Trigger{Type: TriggerEvent, Condition: "x"})
	k.Confidence = 0.5

	for i := 0; i < 3; i++ {
		if err := e.RecordExecution(k.ID, false); err != nil {
			t.Fatalf("RecordExecution: %v", err)
		}
	}
	if err := e.RecordExecution(k.ID, true); err != nil {
		t.Fatalf("RecordExecution: %v", err)
	}
	if err := e.RecordExecution(k.ID, false); err != nil {
		t.Fatalf("RecordExecution: %v", err)
	}

	got, _ := e.Get(k.ID)
	if got.TotalExecutions != 5 {
		t.Fatalf("want 5 executions, got %d", got.TotalExecutions)
	}
	if got.Status != KartavyaFailed {
		t.Fatalf("want auto-fail once failure rate exceeds 0.5 over >=5 executions, got %s", got.Status)
	}
}

func TestApproveNiyamaEnforcesActiveCeiling(t *testing.T) {
	e := New(Config{MaxActive: 1})
	approvedKartavya(t, e, Trigger{Type: TriggerEvent, Condition: "a"})

	p := e.ProposeNiyama(Trigger{Type: TriggerEvent, Condition: "b"}, "do", 0.9, "v2", nil)
	if _, err := e.ApproveNiyama(p.ID); err == nil {
		t.Fatal("expected approval to be rejected once MaxActive is reached")
	}
}

func TestApproveNiyamaClampsCooldownToMinimum(t *testing.T) {
	e := New(Config{MinCooldownMs: 60_000})
	p := e.ProposeNiyama(Trigger{Type: TriggerEvent, Condition: "a", CooldownMs: 1000}, "do", 0.9, "v1", nil)
	k, err := e.ApproveNiyama(p.ID)
	if err != nil {
		t.Fatalf("ApproveNiyama: %v", err)
	}
	if k.Trigger.CooldownMs != 60_000 {
		t.Fatalf("expected cooldown clamped to the configured minimum, got %d", k.Trigger.CooldownMs)
	}
}

func TestAutoPromoteUsesStrengthTimesAccuracy(t *testing.T) {
	e := New(Config{AutoApproveThreshold: 0.8})
	vasanas := []Vasana{
		{ID: "v1", Trigger: Trigger{Type: TriggerEvent, Condition: "a"}, Action: "do-a", Strength: 0.9, PredictiveAccuracy: 0.95},
		{ID: "v2", Trigger: Trigger{Type: TriggerEvent, Condition: "b"}, Action: "do-b", Strength: 0.5, PredictiveAccuracy: 0.5},
	}
	promoted := e.AutoPromote(vasanas)
	if len(promoted) != 1 {
		t.Fatalf("expected exactly one vasana to clear the auto-approve threshold, got %d", len(promoted))
	}
}

func TestLifecycleTransitions(t *testing.T) {
	e := New(Config{})
	k := approvedKartavya(t, e, Trigger{Type: TriggerEvent, Condition: "a"})

	if err := e.Pause(k.ID); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := e.Pause(k.ID); err == nil {
		t.Fatal("expected a second Pause on an already-paused duty to fail")
	}
	if err := e.Resume(k.ID); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if err := e.Retire(k.ID); err != nil {
		t.Fatalf("Retire: %v", err)
	}
	if err := e.Retire(k.ID); err == nil {
		t.Fatal("expected retiring an already-retired duty to fail")
	}
}

func TestPersistAndRestoreRoundTrip(t *testing.T) {
	store, err := OpenSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLiteStore: %v", err)
	}
	defer store.Close()

	e := New(Config{})
	k := approvedKartavya(t, e, Trigger{Type: TriggerThreshold, Condition: "cpu >= 80", CooldownMs: 60_000})
	if err := e.RecordExecution(k.ID, true); err != nil {
		t.Fatalf("RecordExecution: %v", err)
	}
	if err := e.Persist(store); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	restored := New(Config{})
	if err := restored.Restore(store); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	got, ok := restored.Get(k.ID)
	if !ok {
		t.Fatal("expected the persisted duty to come back on restore")
	}
	if got.Action != k.Action || got.Trigger.Condition != k.Trigger.Condition {
		t.Fatalf("restored duty does not match what was persisted: %+v", got)
	}
	if got.TotalExecutions != 1 {
		t.Fatalf("expected execution history to survive the round trip, got %d", got.TotalExecutions)
	}
}
