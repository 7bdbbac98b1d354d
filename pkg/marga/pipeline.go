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

package marga

import (
	"context"
	"fmt"
	"math"

	"github.com/chitragupta/runtime/pkg/classifier"
	"github.com/chitragupta/runtime/pkg/provider"
	"github.com/chitragupta/runtime/pkg/streaming"
)

// PipelineDecision is the resolved routing outcome for one prompt.
type PipelineDecision struct {
	TaskType      classifier.TaskType
	Complexity    classifier.Complexity
	ProviderID    string
	ModelID       string
	Rationale     string
	Confidence    float64
	SkipLLM       bool
	Temperature   float64
	EscalatedFrom []string // provider ids this decision escalated past, oldest first
}

// TemperatureAdjust optionally overrides the base temperature for a
// (taskType, complexity) pair.
type TemperatureAdjust func(base float64, taskType classifier.TaskType, complexity classifier.Complexity) float64

// baseTemperature gives each taskType a default starting temperature
// before any TemperatureAdjust hook runs.
var baseTemperature = map[classifier.TaskType]float64{
	classifier.TaskCodeGen:   0.2,
	classifier.TaskReasoning: 0.3,
	classifier.TaskSummarize: 0.3,
	classifier.TaskTranslate: 0.2,
	classifier.TaskChat:      0.7,
	classifier.TaskSmalltalk: 0.8,
}

func defaultBaseTemperature(t classifier.TaskType) float64 {
	if v, ok := baseTemperature[t]; ok {
		return v
	}
	return 0.5
}

// Pipeline composes classification, binding resolution, and escalation
// over a provider.Registry.
type Pipeline struct {
	Profile           Profile
	Registry          *provider.Registry
	TemperatureAdjust TemperatureAdjust
	RetryConfig       streaming.Config
	MaxEscalations    int // 0 derives from the profile's escalation chain length
}

// Classify runs Pravritti + Vichara, applies min-complexity overrides
// and the complexity upgrade rule, resolves a binding, and returns the
// combined PipelineDecision.
func (p *Pipeline) Classify(text string, hasTools bool) PipelineDecision {
	taskType, taskResult := classifier.Pravritti(text, hasTools)
	complexity, complexityResult := classifier.Vichara(text, hasTools)

	if floor, ok := minComplexityOverrides[taskType]; ok {
		complexity = classifier.Max(complexity, floor)
	}

	table := Profiles[p.Profile]
	binding, ok := table.ByTaskType[taskType]
	if !ok {
		binding = Binding{ProviderID: NoProvider, Rationale: "no binding configured for this task type"}
	}

	if classifier.AtLeast(complexity, classifier.ComplexityComplex) && binding.ProviderID != NoProvider {
		switch {
		case complexity == classifier.ComplexityExpert:
			binding = table.StrongestReasoning
		case taskType == classifier.TaskCodeGen || taskType == classifier.TaskToolExec:
			binding = table.StrongCodeOptimized
		default:
			binding = table.StrongGeneric
		}
	}

	temperature := defaultBaseTemperature(taskType)
	if p.TemperatureAdjust != nil {
		temperature = p.TemperatureAdjust(temperature, taskType, complexity)
	}

	confidence := math.Sqrt(taskResult.Confidence * complexityResult.Confidence)

	return PipelineDecision{
		TaskType:    taskType,
		Complexity:  complexity,
		ProviderID:  binding.ProviderID,
		ModelID:     binding.ModelID,
		Rationale:   binding.Rationale,
		Confidence:  confidence,
		SkipLLM:     binding.ProviderID == NoProvider,
		Temperature: temperature,
	}
}

// maxEscalations derives the escalation cap from the profile's chain
// length when the pipeline doesn't pin one explicitly.
func (p *Pipeline) maxEscalations() int {
	if p.MaxEscalations > 0 {
		return p.MaxEscalations
	}
	return len(Profiles[p.Profile].Escalation)
}

// Stream resolves decision's provider/model, then streams from it with
// retry (package streaming); on an unrecovered error it escalates to
// the next registered binding in the profile's escalation chain
// (weakest to strongest), restarting the call. After exhausting the
// chain it emits a single terminal error event.
func (p *Pipeline) Stream(ctx context.Context, decision *PipelineDecision, messages []provider.Message, opts provider.StreamOptions) <-chan provider.StreamEvent {
	out := make(chan provider.StreamEvent, 16)

	if decision.SkipLLM {
		go func() {
			defer close(out)
			usage := provider.Usage{}
			out <- provider.StreamEvent{Type: provider.EventDone, StopReason: provider.StopEndTurn, Usage: &usage}
		}()
		return out
	}

	chain := p.escalationChain(*decision)

	go func() {
		defer close(out)

		var lastErr error
		maxAttempts := p.maxEscalations()

		for i, b := range chain {
			if i > maxAttempts {
				break
			}
			adapter, ok := p.Registry.Get(b.ProviderID)
			if !ok {
				continue // not registered: skip to the next link in the chain
			}

			completed, errEv := p.runOne(ctx, adapter, b.ModelID, messages, opts, out)
			if completed {
				decision.ProviderID, decision.ModelID, decision.Rationale = b.ProviderID, b.ModelID, b.Rationale
				return
			}
			if ctx.Err() != nil {
				return
			}
			lastErr = errEv.Err
			decision.EscalatedFrom = append(decision.EscalatedFrom, b.ProviderID)
		}

		select {
		case out <- provider.StreamEvent{Type: provider.EventError, Err: fmt.Errorf("all providers exhausted: %w", lastErr)}:
		case <-ctx.Done():
		}
	}()

	return out
}

// escalationChain starts at decision's own binding (if present in the
// profile's chain) and runs to the strongest; if decision's binding
// isn't itself in the chain, the whole chain is tried after it.
func (p *Pipeline) escalationChain(decision PipelineDecision) []Binding {
	table := Profiles[p.Profile]
	chain := make([]Binding, 0, len(table.Escalation)+1)
	chain = append(chain, Binding{ProviderID: decision.ProviderID, ModelID: decision.ModelID, Rationale: decision.Rationale})
	rest := table.Escalation
	for i, b := range table.Escalation {
		if b.ProviderID == decision.ProviderID && b.ModelID == decision.ModelID {
			rest = table.Escalation[i+1:]
			break
		}
	}
	return append(chain, rest...)
}

// runOne streams one (provider, model) through package streaming and
// relays its events. It returns (completed, lastErrorEvent).
func (p *Pipeline) runOne(ctx context.Context, adapter provider.Adapter, modelID string, messages []provider.Message, opts provider.StreamOptions, out chan<- provider.StreamEvent) (bool, provider.StreamEvent) {
	in := streaming.Stream(ctx, adapter, modelID, messages, opts, p.RetryConfig)

	for ev := range in {
		if ev.Type == provider.EventError {
			return false, ev
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			return false, provider.StreamEvent{}
		}

		if ev.Type == provider.EventDone {
			return true, provider.StreamEvent{}
		}
	}
	return false, provider.StreamEvent{}
}
