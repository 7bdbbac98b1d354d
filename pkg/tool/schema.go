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

package tool

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	jsv6 "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/chitragupta/runtime/pkg/logger"
)

// GenerateSchema reflects a Go struct type into a JSON schema suitable
// for a Definition's InputSchema. Use `jsonschema:"required,description=..."`
// struct tags the same way the builtin handlers below do.
func GenerateSchema[T any]() json.RawMessage {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(new(T))
	raw, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("tool: schema reflection failed: %v", err))
	}
	return raw
}

// Validator checks tool-call arguments against a compiled schema before
// a handler ever sees them.
type Validator struct {
	schemas map[string]*jsv6.Schema
}

// NewValidator compiles one schema per definition. A handler with an
// empty, unparsable, or otherwise malformed schema is skipped — its
// arguments pass through unvalidated, matching the wire contract's
// "inputSchema optional" shape — rather than failing every other
// definition's validator construction over one bad schema.
func NewValidator(defs []Definition) (*Validator, error) {
	v := &Validator{schemas: make(map[string]*jsv6.Schema, len(defs))}
	compiler := jsv6.NewCompiler()
	for _, d := range defs {
		if len(d.InputSchema) == 0 {
			continue
		}
		var doc any
		if err := json.Unmarshal(d.InputSchema, &doc); err != nil {
			logger.GetLogger().Warn("tool: invalid schema json, skipping validation", "tool", d.Name, "error", err)
			continue
		}
		url := "mem://" + d.Name
		if err := compiler.AddResource(url, doc); err != nil {
			logger.GetLogger().Warn("tool: schema rejected, skipping validation", "tool", d.Name, "error", err)
			continue
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			logger.GetLogger().Warn("tool: schema failed to compile, skipping validation", "tool", d.Name, "error", err)
			continue
		}
		v.schemas[d.Name] = schema
	}
	return v, nil
}

// Validate checks args for toolName, a no-op if no schema was compiled
// for that name.
func (v *Validator) Validate(toolName string, args json.RawMessage) error {
	schema, ok := v.schemas[toolName]
	if !ok {
		return nil
	}
	var doc any
	if err := json.NewDecoder(bytes.NewReader(args)).Decode(&doc); err != nil {
		return fmt.Errorf("invalid arguments json: %w", err)
	}
	return schema.Validate(doc)
}
