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

import "time"

// Hard ceilings a Config is clamped to on construction, regardless of
// what the caller asks for.
const (
	HardMaxActive            = 100
	HardMaxExecutionsPerHour = 60
	HardMinCooldownMs        = 10_000
)

// TriggerType names the matching strategy EvaluateTriggers applies to
// a Trigger's Condition.
type TriggerType string

const (
	TriggerCron      TriggerType = "cron"
	TriggerEvent     TriggerType = "event"
	TriggerThreshold TriggerType = "threshold"
	TriggerPattern   TriggerType = "pattern"
)

// Trigger is the condition a Kartavya waits on before firing.
type Trigger struct {
	Type       TriggerType
	Condition  string
	CooldownMs int64
	LastFired  *time.Time
}

// KartavyaStatus is the lifecycle state of an approved duty. Status
// only ever moves monotonically forward, except active and paused
// which toggle back and forth.
type KartavyaStatus string

const (
	KartavyaProposed KartavyaStatus = "proposed"
	KartavyaApproved KartavyaStatus = "approved"
	KartavyaActive   KartavyaStatus = "active"
	KartavyaPaused   KartavyaStatus = "paused"
	KartavyaFailed   KartavyaStatus = "failed"
	KartavyaRetired  KartavyaStatus = "retired"
)

// ExecutionRecord is one append to a Kartavya's execution log, used
// both for the hourly rate cap and for the rolling failure rate.
type ExecutionRecord struct {
	At      time.Time
	Success bool
}

// Kartavya is a standing, auto-firing duty: a trigger paired with an
// action, carrying its own confidence and execution history.
type Kartavya struct {
	ID         string
	Trigger    Trigger
	Action     string
	Confidence float64
	Status     KartavyaStatus

	TotalExecutions int
	TotalFailures   int
	ExecutionLog    []ExecutionRecord

	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastFired   *time.Time
	LastExecuted *time.Time
	StuckReason string
}

// NiyamaStatus is the review state of a proposed duty.
type NiyamaStatus string

const (
	NiyamaPending  NiyamaStatus = "pending"
	NiyamaApproved NiyamaStatus = "approved"
	NiyamaRejected NiyamaStatus = "rejected"
)

// NiyamaProposal is a draft duty awaiting approval into an active
// Kartavya, carrying the evidence that justified proposing it.
type NiyamaProposal struct {
	ID         string
	VasanaID   string
	Trigger    Trigger
	Action     string
	Confidence float64
	Evidence   []string
	Status     NiyamaStatus
	CreatedAt  time.Time
}

// Vasana is an observed behavioral tendency: a candidate for
// auto-promotion into a Niyama proposal when it is both strong and
// reliable enough.
type Vasana struct {
	ID                  string
	Trigger             Trigger
	Action              string
	Strength            float64
	PredictiveAccuracy  float64
	Evidence            []string
}

// EvaluationContext is the live state EvaluateTriggers matches
// triggers against.
type EvaluationContext struct {
	Now     time.Time
	Events  []string
	Metrics map[string]float64
	Patterns []string
}

// Config bounds an Engine's behavior. Zero fields fall back to
// defaults; MaxActive and MaxExecutionsPerHour are capped at their
// Hard* ceilings and MinCooldownMs is raised to HardMinCooldownMs.
// AutoApproveThreshold has no bound.
type Config struct {
	MaxActive            int
	MaxExecutionsPerHour int
	MinCooldownMs        int64
	AutoApproveThreshold float64
}

func (c Config) withDefaults() Config {
	if c.MaxActive <= 0 || c.MaxActive > HardMaxActive {
		c.MaxActive = HardMaxActive
	}
	if c.MaxExecutionsPerHour <= 0 || c.MaxExecutionsPerHour > HardMaxExecutionsPerHour {
		c.MaxExecutionsPerHour = HardMaxExecutionsPerHour
	}
	if c.MinCooldownMs < HardMinCooldownMs {
		c.MinCooldownMs = HardMinCooldownMs
	}
	if c.AutoApproveThreshold <= 0 {
		c.AutoApproveThreshold = 0.8
	}
	return c
}

// Stmt is a prepared statement, the duck-typed {run, all, get} shape
// §4.10 and §9 require of a persistence adapter.
type Stmt interface {
	Run(args ...any) error
	All(args ...any) ([]map[string]any, error)
	Get(args ...any) (map[string]any, bool, error)
}

// Store is the minimal persistence shape the Kartavya engine needs:
// prepare a statement, or exec a one-off statement (DDL, mostly). Any
// adapter satisfying this interface is accepted — modernc.org/sqlite
// is the one wired in by this module, but it is not assumed.
type Store interface {
	Prepare(query string) (Stmt, error)
	Exec(query string, args ...any) error
}
