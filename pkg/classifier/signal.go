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

package classifier

import "strings"

// Input is the observation both classifiers score against. WordCount
// and HasTools are supplied alongside Text rather than derived inside
// a signal's predicate, so predicates stay pure string/bool checks.
type Input struct {
	Text       string
	WordCount  int
	TokenCount int
	HasTools   bool
}

// NewInput builds an Input from raw prompt text.
func NewInput(text string, hasTools bool) Input {
	return Input{
		Text:       text,
		WordCount:  len(strings.Fields(text)),
		TokenCount: countTokens(text),
		HasTools:   hasTools,
	}
}

// Signal is one weighted predicate in a layered scoring table.
type Signal struct {
	Label     string
	Weight    float64
	Predicate func(Input) bool
}

// Tier is one scored bucket: a score lands in the tier whose [Min,Max)
// range contains it. Min is inclusive, Max exclusive.
type Tier struct {
	Label string
	Min   float64
	Max   float64
}

func (t Tier) contains(score float64) bool { return score >= t.Min && score < t.Max }
func (t Tier) center() float64             { return (t.Min + t.Max) / 2 }
func (t Tier) width() float64              { return t.Max - t.Min }

// Table is a closed-set layered classifier: score every signal, map
// the aggregate to a tier, derive a confidence from proximity to that
// tier's center.
type Table struct {
	Signals []Signal
	Tiers   []Tier // ascending by Min; the last tier's Max must cover every attainable score
}

// Result is one classification outcome.
type Result struct {
	Label      string
	Score      float64
	Confidence float64
	Matched    []string // signal labels that fired, for explainability
}

// Classify scores in against every signal, buckets the sum into a
// tier, and derives confidence as 1 minus the normalized distance to
// that tier's center, clamped to [0.5, 1.0].
func (t Table) Classify(in Input) Result {
	var score float64
	var matched []string
	for _, s := range t.Signals {
		if s.Predicate(in) {
			score += s.Weight
			matched = append(matched, s.Label)
		}
	}

	tier := t.Tiers[len(t.Tiers)-1]
	for _, candidate := range t.Tiers {
		if candidate.contains(score) {
			tier = candidate
			break
		}
	}

	confidence := 1.0
	if w := tier.width(); w > 0 {
		confidence = 1 - absFloat(score-tier.center())/w
	}
	if confidence < 0.5 {
		confidence = 0.5
	}
	if confidence > 1.0 {
		confidence = 1.0
	}

	return Result{Label: tier.Label, Score: score, Confidence: confidence, Matched: matched}
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
