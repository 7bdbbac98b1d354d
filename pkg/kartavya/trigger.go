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
	"regexp"
	"strconv"
	"strings"
)

// thresholdOps is checked longest-first so ">=" isn't shadowed by ">".
var thresholdOps = []string{">=", "<=", "==", ">", "<"}

// matchesThreshold parses condition as "name OP value" and compares
// it against metrics[name]. An unparseable condition, or a metric
// that isn't present, never matches.
func matchesThreshold(condition string, metrics map[string]float64) bool {
	for _, op := range thresholdOps {
		idx := strings.Index(condition, op)
		if idx < 0 {
			continue
		}
		name := strings.TrimSpace(condition[:idx])
		rhs := strings.TrimSpace(condition[idx+len(op):])
		want, err := strconv.ParseFloat(rhs, 64)
		if err != nil {
			return false
		}
		got, ok := metrics[name]
		if !ok {
			return false
		}
		switch op {
		case ">=":
			return got >= want
		case "<=":
			return got <= want
		case "==":
			return got == want
		case ">":
			return got > want
		case "<":
			return got < want
		}
	}
	return false
}

// matchesPattern tries condition as a regular expression against each
// candidate; if it fails to compile, it falls back to a plain
// substring match instead of never matching at all.
func matchesPattern(condition string, candidates []string) bool {
	re, err := regexp.Compile(condition)
	for _, c := range candidates {
		if err == nil {
			if re.MatchString(c) {
				return true
			}
			continue
		}
		if strings.Contains(c, condition) {
			return true
		}
	}
	return false
}

// matchesEvent reports whether condition names one of the fired
// events.
func matchesEvent(condition string, events []string) bool {
	for _, e := range events {
		if e == condition {
			return true
		}
	}
	return false
}

// matches dispatches a Trigger against ctx by its Type.
func (tr Trigger) matches(ctx EvaluationContext) bool {
	switch tr.Type {
	case TriggerCron:
		return matchesCron(tr.Condition, ctx.Now)
	case TriggerEvent:
		return matchesEvent(tr.Condition, ctx.Events)
	case TriggerThreshold:
		return matchesThreshold(tr.Condition, ctx.Metrics)
	case TriggerPattern:
		return matchesPattern(tr.Condition, ctx.Patterns)
	default:
		return false
	}
}
