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

package hub

import "sync"

// Region is an ACL-guarded key/value map shared between agents. Reads
// and writes both require the caller to be in the ACL.
type Region struct {
	mu      sync.RWMutex
	name    string
	ownerID string
	acl     map[string]bool
	data    map[string]any
}

func (r *Region) inACL(agentID string) bool {
	return r.acl[agentID]
}

// CreateRegion creates a named shared region owned by owner, readable
// and writable only by agents in acl (owner is added implicitly).
func (h *Hub) CreateRegion(name, owner string, acl []string) (*Region, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.regions[name]; exists {
		return nil, newError("CreateRegion", "region already exists: "+name)
	}
	aclSet := make(map[string]bool, len(acl)+1)
	aclSet[owner] = true
	for _, id := range acl {
		aclSet[id] = true
	}
	region := &Region{name: name, ownerID: owner, acl: aclSet, data: make(map[string]any)}
	h.regions[name] = region
	return region, nil
}

// Read returns a region's value for key; ok is false if the region
// doesn't exist, the reader isn't in its ACL, or the key isn't set.
func (h *Hub) Read(name, key, readerID string) (value any, ok bool) {
	h.mu.RLock()
	region, exists := h.regions[name]
	h.mu.RUnlock()
	if !exists {
		return nil, false
	}
	region.mu.RLock()
	defer region.mu.RUnlock()
	if !region.inACL(readerID) {
		return nil, false
	}
	v, ok := region.data[key]
	return v, ok
}

// Write sets key in region name to value, if writerID is in the
// region's ACL.
func (h *Hub) Write(name, key string, value any, writerID string) error {
	h.mu.RLock()
	region, exists := h.regions[name]
	h.mu.RUnlock()
	if !exists {
		return newError("Write", "no such region: "+name)
	}
	region.mu.Lock()
	defer region.mu.Unlock()
	if !region.inACL(writerID) {
		return newError("Write", "writer not in region acl")
	}
	region.data[key] = value
	return nil
}
