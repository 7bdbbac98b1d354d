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

package memoryaux

import (
	"context"
	"regexp"
	"strings"

	"github.com/chitragupta/runtime/pkg/embedder"
)

// Category is one of the fixed kinds of fact the extractor recognizes.
type Category string

const (
	CategoryIdentity     Category = "identity"
	CategoryLocation     Category = "location"
	CategoryWork         Category = "work"
	CategoryPreference   Category = "preference"
	CategoryRelationship Category = "relationship"
	CategoryInstruction  Category = "instruction"
	CategoryPersonal     Category = "personal"
)

// Fact is one extracted statement about the user.
type Fact struct {
	Category   Category
	Text       string
	Confidence float64
	Method     string // "pattern" or "vector"
}

type factPattern struct {
	category Category
	re       *regexp.Regexp
	template string // Sprintf-style template using the first capture group, e.g. "name is %s"
}

// defaultPatterns is the ranked set of regexes tried, in order,
// before falling back to vector matching. Every entry that matches
// contributes a fact; the order only sets the order of the results.
var defaultPatterns = []factPattern{
	{CategoryIdentity, regexp.MustCompile(`(?i)\bmy name is ([A-Za-z][A-Za-z '-]*)`), "name is %s"},
	{CategoryLocation, regexp.MustCompile(`(?i)\bi live in ([A-Za-z][A-Za-z ,'-]*)`), "lives in %s"},
	{CategoryWork, regexp.MustCompile(`(?i)\bi work (?:as|at) ([A-Za-z0-9][A-Za-z0-9 ,'-]*)`), "works as/at %s"},
	{CategoryRelationship, regexp.MustCompile(`(?i)\bmy (wife|husband|partner|brother|sister|mother|father|son|daughter) is ([A-Za-z][A-Za-z '-]*)`), ""},
	{CategoryPreference, regexp.MustCompile(`(?i)\bi (?:like|love|prefer) ([A-Za-z0-9][A-Za-z0-9 ,'-]*)`), "prefers %s"},
	{CategoryInstruction, regexp.MustCompile(`(?i)\b(?:always|never|remember to) ([A-Za-z0-9][A-Za-z0-9 ,'-]*)`), "instruction: %s"},
	{CategoryPersonal, regexp.MustCompile(`(?i)\bi am (\d{1,3}) years old`), "is %s years old"},
}

// Template is a canonical example sentence for one category, used as
// the vector-fallback comparison target when no regex pattern fires.
type Template struct {
	Category Category
	Text     string
}

// Extractor scans text for facts, trying ranked regex patterns first
// and falling back to embedding similarity against a caller-supplied
// set of canonical templates.
type Extractor struct {
	embedder  embedder.Embedder
	templates []Template
	seen      map[string]bool
}

// NewExtractor builds an Extractor. templates is the vector-fallback
// seed list — a plain, caller-extensible list of canonical sentences
// per category, passed in rather than hardcoded so callers can tune
// it without touching code. embed may be nil, in which case the
// vector fallback is always skipped.
func NewExtractor(embed embedder.Embedder, templates []Template) *Extractor {
	return &Extractor{embedder: embed, templates: templates, seen: make(map[string]bool)}
}

func normalizedPrefix(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	const maxLen = 40
	if len(t) > maxLen {
		t = t[:maxLen]
	}
	return t
}

func (e *Extractor) dedupeKey(category Category, text string) string {
	return string(category) + "|" + normalizedPrefix(text)
}

// Extract scans text and returns every fact recognized by the ranked
// patterns; if none fire, it falls back to embedding similarity
// against the template seed list. Facts already seen by this
// Extractor instance (matching (category, normalized-prefix)) are
// suppressed.
func (e *Extractor) Extract(ctx context.Context, text string) ([]Fact, error) {
	var facts []Fact

	for _, p := range defaultPatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		var factText string
		if p.template == "" {
			// Relationship pattern carries two capture groups.
			factText = m[1] + " is " + m[2]
		} else {
			factText = sprintfOne(p.template, m[1])
		}
		facts = append(facts, Fact{Category: p.category, Text: factText, Confidence: 0.95, Method: "pattern"})
	}

	if len(facts) == 0 && e.embedder != nil && len(e.templates) > 0 {
		fact, ok, err := e.vectorFallback(ctx, text)
		if err != nil {
			return nil, err
		}
		if ok {
			facts = append(facts, fact)
		}
	}

	return e.dedupe(facts), nil
}

func (e *Extractor) vectorFallback(ctx context.Context, text string) (Fact, bool, error) {
	textVec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return Fact{}, false, err
	}

	bestSim := -1.0
	bestCategory := Category("")
	for _, tmpl := range e.templates {
		tmplVec, err := e.embedder.Embed(ctx, tmpl.Text)
		if err != nil {
			return Fact{}, false, err
		}
		s := cosineSim(toFloat64(textVec), toFloat64(tmplVec))
		if s > bestSim {
			bestSim = s
			bestCategory = tmpl.Category
		}
	}

	if bestSim < 0.65 {
		return Fact{}, false, nil
	}
	confidence := bestSim
	if confidence > 0.85 {
		confidence = 0.85
	}
	return Fact{Category: bestCategory, Text: text, Confidence: confidence, Method: "vector"}, true, nil
}

// dedupe drops facts whose (category, normalized-prefix) key has
// already been seen by this Extractor (across this and prior calls).
func (e *Extractor) dedupe(facts []Fact) []Fact {
	var out []Fact
	for _, f := range facts {
		key := e.dedupeKey(f.Category, f.Text)
		if e.seen[key] {
			continue
		}
		e.seen[key] = true
		out = append(out, f)
	}
	return out
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func sprintfOne(template, value string) string {
	return strings.Replace(template, "%s", value, 1)
}
