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

// Package memoryaux implements the small, algorithmically dense
// auxiliaries a memory collaborator leans on to assemble context: an
// adaptive Beta-posterior scorer with MMR re-ranking, a Sinkhorn-Knopp
// token budget allocator, and a pattern/vector fact extractor.
package memoryaux
