// Copyright 2025 Google LLC
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

// Package replay reconstructs the retrieval context of an agent turn by
// re-executing the tool calls the agent made.
//
// Tools are registered once at startup into a [Registry] and must be pure
// given their arguments: reconstruction is a replay, not a re-action, and a
// tool with observable side effects would perform them twice. Arguments are
// validated against a JSON schema derived from the tool's typed argument
// struct before the tool runs, so a malformed argument map fails at the
// boundary with [ErrInvalidArguments] instead of deep inside the tool.
//
// Every tool result is normalized to a single canonical JSON string so that
// downstream metrics can treat all context entries uniformly.
package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

var (
	// ErrUnknownTool indicates no tool is registered under the given name.
	ErrUnknownTool = errors.New("replay: unknown tool")

	// ErrInvalidArguments indicates the argument map does not satisfy the
	// tool's input schema.
	ErrInvalidArguments = errors.New("replay: invalid arguments")

	// ErrExecutionFailed indicates the tool itself returned an error.
	ErrExecutionFailed = errors.New("replay: execution failed")
)

// executor is a registered tool: a resolved input schema plus the function
// that runs it against an already-validated argument map.
type executor struct {
	schema *jsonschema.Resolved
	run    func(ctx context.Context, args map[string]any) (string, error)
}

// Registry maps stable tool names to deterministic, side-effect-free
// callables. Registration happens at startup; Execute is reentrant and safe
// for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]executor
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]executor)}
}

// Register registers fn under name. The input schema is derived from TArgs
// by reflection and used to validate argument maps before invocation.
//
// fn must be pure: same arguments, same output, no writes to external state.
func Register[TArgs, TResult any](r *Registry, name string, fn func(ctx context.Context, args TArgs) (TResult, error)) error {
	if name == "" {
		return fmt.Errorf("replay: tool name must not be empty")
	}

	schema, err := jsonschema.For[TArgs](nil)
	if err != nil {
		return fmt.Errorf("replay: schema for tool %q: %w", name, err)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("replay: resolving schema for tool %q: %w", name, err)
	}

	run := func(ctx context.Context, args map[string]any) (string, error) {
		typed, err := unmarshalArgs[TArgs](args)
		if err != nil {
			return "", fmt.Errorf("%w: tool %q: %v", ErrInvalidArguments, name, err)
		}
		result, err := fn(ctx, typed)
		if err != nil {
			return "", fmt.Errorf("%w: tool %q: %v", ErrExecutionFailed, name, err)
		}
		return serialize(result)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("replay: tool %q already registered", name)
	}
	r.tools[name] = executor{schema: resolved, run: run}
	return nil
}

// Execute re-invokes the named tool with the recorded arguments and returns
// its serialized output.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	r.mu.RLock()
	ex, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}

	if args == nil {
		args = map[string]any{}
	}
	if err := ex.schema.Validate(args); err != nil {
		return "", fmt.Errorf("%w: tool %q: %v", ErrInvalidArguments, name, err)
	}

	return ex.run(ctx, args)
}

// Names returns the registered tool names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// ValidateArgs checks an argument map against the named tool's input schema
// without running the tool. Used by deterministic parameter-correctness
// scoring.
func (r *Registry) ValidateArgs(name string, args map[string]any) error {
	r.mu.RLock()
	ex, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	if args == nil {
		args = map[string]any{}
	}
	if err := ex.schema.Validate(args); err != nil {
		return fmt.Errorf("%w: tool %q: %v", ErrInvalidArguments, name, err)
	}
	return nil
}

// unmarshalArgs converts a validated argument map into the tool's typed
// argument struct. Unknown fields are rejected so the schema and the struct
// never silently drift apart.
func unmarshalArgs[TArgs any](args map[string]any) (TArgs, error) {
	var typed TArgs
	data, err := json.Marshal(args)
	if err != nil {
		return typed, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&typed); err != nil {
		return typed, err
	}
	return typed, nil
}

// serialize normalizes a tool result to its canonical JSON encoding. Flat
// records become JSON objects; tabular results (slices of records) become
// JSON arrays of objects.
func serialize(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: serializing result: %v", ErrExecutionFailed, err)
	}
	return string(data), nil
}
