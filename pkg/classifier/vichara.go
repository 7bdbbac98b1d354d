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

import (
	"regexp"
	"strings"
)

// Complexity is the closed set Vichara classifies into.
type Complexity string

const (
	ComplexityTrivial Complexity = "trivial"
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
	ComplexityExpert  Complexity = "expert"
)

// complexityRank orders the closed set for "at least X" comparisons
// used by Marga's min-complexity overrides and upgrade rules.
var complexityRank = map[Complexity]int{
	ComplexityTrivial: 0,
	ComplexitySimple:  1,
	ComplexityMedium:  2,
	ComplexityComplex: 3,
	ComplexityExpert:  4,
}

// AtLeast reports whether c is ranked at or above floor.
func AtLeast(c, floor Complexity) bool { return complexityRank[c] >= complexityRank[floor] }

// Max returns whichever of a, b ranks higher.
func Max(a, b Complexity) Complexity {
	if complexityRank[a] >= complexityRank[b] {
		return a
	}
	return b
}

var (
	reGreetingAck  = regexp.MustCompile(`(?i)^\s*(hi|hello|hey|thanks|thank you|ok|okay|sure|got it)\b`)
	reCodeKeywords = regexp.MustCompile(`(?i)\b(function|class|algorithm|refactor|implement|compile|bug|stack trace)\b`)
	reMultiStep    = regexp.MustCompile(`(?i)\b(step[s]?|first.*then|then.*finally|multi-?step)\b`)
	reReasonDepth  = regexp.MustCompile(`(?i)\b(why|prove|derive|trade-?offs?|explain in depth)\b`)
	reExpertDomain = regexp.MustCompile(`(?i)\b(distributed systems?|cryptograph\w*|compiler|kernel|formal proof|thermodynamics|raft consensus)\b`)
)

func isShortQuestion(in Input) bool {
	return in.WordCount <= 6 && strings.HasSuffix(strings.TrimSpace(in.Text), "?")
}

func isBriefRequest(in Input) bool {
	return in.WordCount <= 20 &&
		!reCodeKeywords.MatchString(in.Text) && !reMultiStep.MatchString(in.Text) &&
		!reReasonDepth.MatchString(in.Text) && !reExpertDomain.MatchString(in.Text) &&
		!reGreetingAck.MatchString(in.Text)
}

var vicharaSignals = []Signal{
	{Label: "greeting-ack", Weight: 0.5, Predicate: func(in Input) bool { return reGreetingAck.MatchString(in.Text) }},
	{Label: "short-question", Weight: 1.3, Predicate: isShortQuestion},
	{Label: "brief-request", Weight: 1.5, Predicate: isBriefRequest},
	{Label: "code-keywords", Weight: 2.5, Predicate: func(in Input) bool { return reCodeKeywords.MatchString(in.Text) }},
	{Label: "multi-step-task", Weight: 2.7, Predicate: func(in Input) bool { return reMultiStep.MatchString(in.Text) || in.TokenCount > 80 }},
	{Label: "reasoning-depth", Weight: 3.5, Predicate: func(in Input) bool { return reReasonDepth.MatchString(in.Text) }},
	{Label: "expert-domain", Weight: 4.5, Predicate: func(in Input) bool { return reExpertDomain.MatchString(in.Text) }},
	{Label: "tool-presence", Weight: 0.8, Predicate: func(in Input) bool { return in.HasTools }},
}

var vicharaTiers = []Tier{
	{Label: string(ComplexityTrivial), Min: 0, Max: 1},
	{Label: string(ComplexitySimple), Min: 1, Max: 2},
	{Label: string(ComplexityMedium), Min: 2, Max: 3},
	{Label: string(ComplexityComplex), Min: 3, Max: 4},
	{Label: string(ComplexityExpert), Min: 4, Max: 1000},
}

// VicharaTable is the complexity classifier.
var VicharaTable = Table{Signals: vicharaSignals, Tiers: vicharaTiers}

// Vichara classifies text (and whether tools are registered) into a
// Complexity with a confidence in [0.5, 1.0].
func Vichara(text string, hasTools bool) (Complexity, Result) {
	r := VicharaTable.Classify(NewInput(text, hasTools))
	return Complexity(r.Label), r
}
