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
	"encoding/json"
	"time"
)

const (
	createKartavyasTable = `
CREATE TABLE IF NOT EXISTS kartavyas (
	id TEXT PRIMARY KEY,
	trigger TEXT NOT NULL,
	action TEXT NOT NULL,
	confidence REAL NOT NULL,
	status TEXT NOT NULL,
	total_executions INTEGER NOT NULL,
	total_failures INTEGER NOT NULL,
	execution_log TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

	createProposalsTable = `
CREATE TABLE IF NOT EXISTS niyama_proposals (
	id TEXT PRIMARY KEY,
	vasana_id TEXT NOT NULL,
	trigger TEXT NOT NULL,
	action TEXT NOT NULL,
	confidence REAL NOT NULL,
	evidence TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at TEXT NOT NULL
)`

	upsertKartavya = `
INSERT INTO kartavyas (id, trigger, action, confidence, status, total_executions, total_failures, execution_log, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	trigger=excluded.trigger, action=excluded.action, confidence=excluded.confidence,
	status=excluded.status, total_executions=excluded.total_executions,
	total_failures=excluded.total_failures, execution_log=excluded.execution_log,
	updated_at=excluded.updated_at`

	upsertProposal = `
INSERT INTO niyama_proposals (id, vasana_id, trigger, action, confidence, evidence, status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	vasana_id=excluded.vasana_id, trigger=excluded.trigger, action=excluded.action,
	confidence=excluded.confidence, evidence=excluded.evidence, status=excluded.status`

	selectKartavyas = `SELECT id, trigger, action, confidence, status, total_executions, total_failures, execution_log, created_at, updated_at FROM kartavyas`
	selectProposals = `SELECT id, vasana_id, trigger, action, confidence, evidence, status, created_at FROM niyama_proposals`
)

// Persist writes every duty and proposal to db, creating its tables
// if they don't already exist.
func (e *Engine) Persist(db Store) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := db.Exec(createKartavyasTable); err != nil {
		return err
	}
	if err := db.Exec(createProposalsTable); err != nil {
		return err
	}

	kStmt, err := db.Prepare(upsertKartavya)
	if err != nil {
		return err
	}
	for _, k := range e.kartavyas {
		triggerJSON, err := json.Marshal(k.Trigger)
		if err != nil {
			return err
		}
		logJSON, err := json.Marshal(k.ExecutionLog)
		if err != nil {
			return err
		}
		if err := kStmt.Run(k.ID, string(triggerJSON), k.Action, k.Confidence, string(k.Status),
			k.TotalExecutions, k.TotalFailures, string(logJSON),
			k.CreatedAt.Format(time.RFC3339Nano), k.UpdatedAt.Format(time.RFC3339Nano)); err != nil {
			return err
		}
	}

	pStmt, err := db.Prepare(upsertProposal)
	if err != nil {
		return err
	}
	for _, p := range e.proposals {
		triggerJSON, err := json.Marshal(p.Trigger)
		if err != nil {
			return err
		}
		evidenceJSON, err := json.Marshal(p.Evidence)
		if err != nil {
			return err
		}
		if err := pStmt.Run(p.ID, p.VasanaID, string(triggerJSON), p.Action, p.Confidence,
			string(evidenceJSON), string(p.Status), p.CreatedAt.Format(time.RFC3339Nano)); err != nil {
			return err
		}
	}
	return nil
}

// Restore clears the in-memory state and repopulates it from db.
// Rows that fail to parse (corrupt JSON, bad timestamps) are skipped
// silently rather than aborting the whole restore.
func (e *Engine) Restore(db Store) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	kartavyas := make(map[string]*Kartavya)
	kStmt, err := db.Prepare(selectKartavyas)
	if err != nil {
		return err
	}
	rows, err := kStmt.All()
	if err != nil {
		return err
	}
	for _, row := range rows {
		k, ok := parseKartavyaRow(row)
		if !ok {
			continue
		}
		kartavyas[k.ID] = k
	}

	proposals := make(map[string]*NiyamaProposal)
	pStmt, err := db.Prepare(selectProposals)
	if err != nil {
		return err
	}
	prows, err := pStmt.All()
	if err != nil {
		return err
	}
	for _, row := range prows {
		p, ok := parseProposalRow(row)
		if !ok {
			continue
		}
		proposals[p.ID] = p
	}

	e.kartavyas = kartavyas
	e.proposals = proposals
	return nil
}

func asString(row map[string]any, col string) (string, bool) {
	switch v := row[col].(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	default:
		return "", false
	}
}

func asFloat(row map[string]any, col string) (float64, bool) {
	switch v := row[col].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

func asInt(row map[string]any, col string) (int, bool) {
	f, ok := asFloat(row, col)
	return int(f), ok
}

func parseKartavyaRow(row map[string]any) (*Kartavya, bool) {
	id, ok := asString(row, "id")
	if !ok {
		return nil, false
	}
	triggerJSON, _ := asString(row, "trigger")
	var trigger Trigger
	if err := json.Unmarshal([]byte(triggerJSON), &trigger); err != nil {
		return nil, false
	}
	action, _ := asString(row, "action")
	confidence, _ := asFloat(row, "confidence")
	status, _ := asString(row, "status")
	totalExec, _ := asInt(row, "total_executions")
	totalFail, _ := asInt(row, "total_failures")
	logJSON, _ := asString(row, "execution_log")
	var log []ExecutionRecord
	if logJSON != "" {
		if err := json.Unmarshal([]byte(logJSON), &log); err != nil {
			return nil, false
		}
	}
	createdStr, _ := asString(row, "created_at")
	created, err := time.Parse(time.RFC3339Nano, createdStr)
	if err != nil {
		return nil, false
	}
	updatedStr, _ := asString(row, "updated_at")
	updated, err := time.Parse(time.RFC3339Nano, updatedStr)
	if err != nil {
		return nil, false
	}

	return &Kartavya{
		ID:              id,
		Trigger:         trigger,
		Action:          action,
		Confidence:      confidence,
		Status:          KartavyaStatus(status),
		TotalExecutions: totalExec,
		TotalFailures:   totalFail,
		ExecutionLog:    log,
		CreatedAt:       created,
		UpdatedAt:       updated,
	}, true
}

func parseProposalRow(row map[string]any) (*NiyamaProposal, bool) {
	id, ok := asString(row, "id")
	if !ok {
		return nil, false
	}
	vasanaID, _ := asString(row, "vasana_id")
	triggerJSON, _ := asString(row, "trigger")
	var trigger Trigger
	if err := json.Unmarshal([]byte(triggerJSON), &trigger); err != nil {
		return nil, false
	}
	action, _ := asString(row, "action")
	confidence, _ := asFloat(row, "confidence")
	evidenceJSON, _ := asString(row, "evidence")
	var evidence []string
	if evidenceJSON != "" {
		if err := json.Unmarshal([]byte(evidenceJSON), &evidence); err != nil {
			return nil, false
		}
	}
	status, _ := asString(row, "status")
	createdStr, _ := asString(row, "created_at")
	created, err := time.Parse(time.RFC3339Nano, createdStr)
	if err != nil {
		return nil, false
	}

	return &NiyamaProposal{
		ID:         id,
		VasanaID:   vasanaID,
		Trigger:    trigger,
		Action:     action,
		Confidence: confidence,
		Evidence:   evidence,
		Status:     NiyamaStatus(status),
		CreatedAt:  created,
	}, true
}
