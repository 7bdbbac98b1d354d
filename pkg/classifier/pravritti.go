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

import "regexp"

// TaskType is the closed set Pravritti classifies into.
type TaskType string

const (
	TaskHeartbeat  TaskType = "heartbeat"
	TaskSmalltalk  TaskType = "smalltalk"
	TaskSearch     TaskType = "search"
	TaskMemory     TaskType = "memory"
	TaskFileOp     TaskType = "file-op"
	TaskAPICall    TaskType = "api-call"
	TaskCompaction TaskType = "compaction"
	TaskEmbedding  TaskType = "embedding"
	TaskCodeGen    TaskType = "code-gen"
	TaskChat       TaskType = "chat"
	TaskSummarize  TaskType = "summarize"
	TaskTranslate  TaskType = "translate"
	TaskToolExec   TaskType = "tool-exec"
	TaskReasoning  TaskType = "reasoning"
	TaskVision     TaskType = "vision"
)

var (
	reHeartbeat  = regexp.MustCompile(`(?i)\b(ping|heartbeat|are you (there|alive))\b`)
	reSmalltalk  = regexp.MustCompile(`(?i)\b(hi|hello|hey|how are you|good morning|thanks|thank you)\b`)
	reSearch     = regexp.MustCompile(`(?i)\b(search|look up|find (me|information)|google)\b`)
	reMemory     = regexp.MustCompile(`(?i)\b(remember|recall|what did (i|we) (say|discuss)|memory)\b`)
	reFileOp     = regexp.MustCompile(`(?i)\b(read|write|create|delete|move) (the |a )?file\b|\.([a-z0-9]{1,5})\b.*\b(file|path)\b`)
	reAPICall    = regexp.MustCompile(`(?i)\b(call|invoke|hit) (the |an? )?(api|endpoint|webhook)\b`)
	reCompaction = regexp.MustCompile(`(?i)\b(compact|condense|shrink) (the )?(context|history|conversation)\b`)
	reEmbedding  = regexp.MustCompile(`(?i)\b(embed|embedding|vector(ize)?)\b`)
	reCodeGen    = regexp.MustCompile(`(?i)\b(write|generate|implement|refactor) (a |the )?(function|code|class|program)\b`)
	reSummarize  = regexp.MustCompile(`(?i)\b(summarize|summary|tl;?dr)\b`)
	reTranslate  = regexp.MustCompile(`(?i)\btranslate\b`)
	reToolExec   = regexp.MustCompile(`(?i)\b(run|execute|use) (the |a )?tool\b`)
	reReasoning  = regexp.MustCompile(`(?i)\b(why|prove|derive|step by step|reason about)\b`)
	reVision     = regexp.MustCompile(`(?i)\b(image|photo|picture|screenshot|diagram)\b`)
)

// rawTaskMatchers holds each keyword category's unguarded predicate,
// in the same order as the taskType enum (minus "chat", which has no
// keyword of its own — see chat-default below). Several of these can
// be true on the very same input at once: "run the tool to search for
// pricing" matches both search and tool-exec, and tool-exec's HasTools
// clause fires independently of the text entirely. pravrittiSignals
// below only counts a category if it's the first one in this list to
// match, so one input always contributes exactly one weight instead of
// summing unrelated categories into an unintended tier.
var rawTaskMatchers = []func(Input) bool{
	func(in Input) bool { return reHeartbeat.MatchString(in.Text) },
	func(in Input) bool { return reSmalltalk.MatchString(in.Text) && in.WordCount <= 8 },
	func(in Input) bool { return reSearch.MatchString(in.Text) },
	func(in Input) bool { return reMemory.MatchString(in.Text) },
	func(in Input) bool { return reFileOp.MatchString(in.Text) },
	func(in Input) bool { return reAPICall.MatchString(in.Text) },
	func(in Input) bool { return reCompaction.MatchString(in.Text) },
	func(in Input) bool { return reEmbedding.MatchString(in.Text) },
	func(in Input) bool { return reCodeGen.MatchString(in.Text) },
	func(in Input) bool { return reSummarize.MatchString(in.Text) },
	func(in Input) bool { return reTranslate.MatchString(in.Text) },
	func(in Input) bool { return reToolExec.MatchString(in.Text) || in.HasTools },
	func(in Input) bool { return reReasoning.MatchString(in.Text) },
	func(in Input) bool { return reVision.MatchString(in.Text) },
}

func anyTaskPatternMatches(in Input) bool {
	for _, m := range rawTaskMatchers {
		if m(in) {
			return true
		}
	}
	return false
}

// firstTaskMatch reports whether rawTaskMatchers[idx] matches in and no
// earlier entry in rawTaskMatchers also matches — see rawTaskMatchers'
// doc comment.
func firstTaskMatch(idx int, in Input) bool {
	if !rawTaskMatchers[idx](in) {
		return false
	}
	for i := 0; i < idx; i++ {
		if rawTaskMatchers[i](in) {
			return false
		}
	}
	return true
}

// pravrittiSignals orders tiers exactly as the closed taskType set is
// listed in the routing contract; each tier is one unit wide, and
// firstTaskMatch guarantees at most one category signal fires per
// input (ties broken in favor of the earlier-listed category).
var pravrittiSignals = []Signal{
	{Label: "heartbeat-keyword", Weight: 0.5, Predicate: func(in Input) bool { return firstTaskMatch(0, in) }},
	{Label: "smalltalk-keyword", Weight: 1.5, Predicate: func(in Input) bool { return firstTaskMatch(1, in) }},
	{Label: "search-keyword", Weight: 2.5, Predicate: func(in Input) bool { return firstTaskMatch(2, in) }},
	{Label: "memory-keyword", Weight: 3.5, Predicate: func(in Input) bool { return firstTaskMatch(3, in) }},
	{Label: "file-op-keyword", Weight: 4.5, Predicate: func(in Input) bool { return firstTaskMatch(4, in) }},
	{Label: "api-call-keyword", Weight: 5.5, Predicate: func(in Input) bool { return firstTaskMatch(5, in) }},
	{Label: "compaction-keyword", Weight: 6.5, Predicate: func(in Input) bool { return firstTaskMatch(6, in) }},
	{Label: "embedding-keyword", Weight: 7.5, Predicate: func(in Input) bool { return firstTaskMatch(7, in) }},
	{Label: "code-gen-keyword", Weight: 8.5, Predicate: func(in Input) bool { return firstTaskMatch(8, in) }},
	{Label: "chat-default", Weight: 9.5, Predicate: func(in Input) bool { return !anyTaskPatternMatches(in) && !in.HasTools }},
	{Label: "summarize-keyword", Weight: 10.5, Predicate: func(in Input) bool { return firstTaskMatch(9, in) }},
	{Label: "translate-keyword", Weight: 11.5, Predicate: func(in Input) bool { return firstTaskMatch(10, in) }},
	{Label: "tool-exec-keyword", Weight: 12.5, Predicate: func(in Input) bool { return firstTaskMatch(11, in) }},
	{Label: "reasoning-keyword", Weight: 13.5, Predicate: func(in Input) bool { return firstTaskMatch(12, in) }},
	{Label: "vision-keyword", Weight: 14.5, Predicate: func(in Input) bool { return firstTaskMatch(13, in) }},
}

var pravrittiTiers = []Tier{
	{Label: string(TaskHeartbeat), Min: 0, Max: 1},
	{Label: string(TaskSmalltalk), Min: 1, Max: 2},
	{Label: string(TaskSearch), Min: 2, Max: 3},
	{Label: string(TaskMemory), Min: 3, Max: 4},
	{Label: string(TaskFileOp), Min: 4, Max: 5},
	{Label: string(TaskAPICall), Min: 5, Max: 6},
	{Label: string(TaskCompaction), Min: 6, Max: 7},
	{Label: string(TaskEmbedding), Min: 7, Max: 8},
	{Label: string(TaskCodeGen), Min: 8, Max: 9},
	{Label: string(TaskChat), Min: 9, Max: 10},
	{Label: string(TaskSummarize), Min: 10, Max: 11},
	{Label: string(TaskTranslate), Min: 11, Max: 12},
	{Label: string(TaskToolExec), Min: 12, Max: 13},
	{Label: string(TaskReasoning), Min: 13, Max: 14},
	{Label: string(TaskVision), Min: 14, Max: 1000},
}

// PravrittiTable is the task-type classifier.
var PravrittiTable = Table{Signals: pravrittiSignals, Tiers: pravrittiTiers}

// Pravritti classifies text (and whether tools are registered) into a
// TaskType with a confidence in [0.5, 1.0].
func Pravritti(text string, hasTools bool) (TaskType, Result) {
	r := PravrittiTable.Classify(NewInput(text, hasTools))
	return TaskType(r.Label), r
}
