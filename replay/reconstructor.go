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

package replay

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"

	"github.com/loanwise/agenteval/evaluation"
)

// Reconstructor rebuilds the retrieval context an agent reply was grounded
// in by replaying the recorded tool calls, in order, against a registry.
//
// It never consults cached or previously stored context: each call re-derives
// the output from the arguments actually used, so the context can not go
// stale relative to the transcript.
type Reconstructor struct {
	registry *Registry
}

// NewReconstructor creates a reconstructor over the given registry.
func NewReconstructor(registry *Registry) *Reconstructor {
	return &Reconstructor{registry: registry}
}

// Reconstruct replays toolCalls and returns one serialized output per call,
// in input order. A failing call contributes a placeholder entry describing
// the failure instead of aborting the remaining calls: one bad tool call
// must not block evaluation of the rest of the turn's grounding.
//
// An empty input yields an empty (non-nil) slice.
func (r *Reconstructor) Reconstruct(ctx context.Context, toolCalls []evaluation.ToolCall) []string {
	contextEntries := make([]string, 0, len(toolCalls))

	for _, call := range toolCalls {
		out, err := r.registry.Execute(ctx, call.Name, call.Args)
		if err != nil {
			clog.FromContext(ctx).Warnf("reconstruction of tool %q failed: %v", call.Name, err)
			contextEntries = append(contextEntries, placeholder(call.Name, err))
			continue
		}
		contextEntries = append(contextEntries, out)
	}

	return contextEntries
}

// placeholder encodes a per-tool reconstruction failure as a context entry.
func placeholder(tool string, err error) string {
	return fmt.Sprintf("[error reconstructing %s: %v]", tool, err)
}
