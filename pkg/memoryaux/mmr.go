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

import "math"

// Document is a single re-ranking candidate: its relevance score (as
// blended by a Scorer), its raw component values (the similarity
// fallback when no embedding is available), and an optional
// embedding.
type Document struct {
	ID         string
	Score      float64
	Components ComponentValues
	Embedding  []float64
}

func cosineSim(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// sim compares two documents by embedding cosine similarity if both
// carry one, falling back to cosine similarity over their raw
// component vectors otherwise.
func sim(a, b Document) float64 {
	if len(a.Embedding) > 0 && len(b.Embedding) > 0 {
		return cosineSim(a.Embedding, b.Embedding)
	}
	av, bv := a.Components.vector(), b.Components.vector()
	return cosineSim(av[:], bv[:])
}

// MMRRerank greedily selects up to k documents maximizing
// MMR(d) = lambda*score(d) - (1-lambda)*max_{d' in S} sim(d, d'),
// where S is the set already selected. lambda=1 reduces to pure
// relevance ranking; lambda=0 to pure diversity.
func MMRRerank(candidates []Document, lambda float64, k int) []Document {
	if k <= 0 || k > len(candidates) {
		k = len(candidates)
	}
	remaining := make([]Document, len(candidates))
	copy(remaining, candidates)
	var selected []Document

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := -1
		bestMMR := math.Inf(-1)
		for i, d := range remaining {
			maxSim := 0.0
			for _, s := range selected {
				if v := sim(d, s); v > maxSim {
					maxSim = v
				}
			}
			mmr := lambda*d.Score - (1-lambda)*maxSim
			if mmr > bestMMR {
				bestMMR = mmr
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}
