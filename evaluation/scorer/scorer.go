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

// Package scorer implements the metric engine: a set of independently
// pluggable scorers plus an [Engine] that runs them concurrently over a
// normalized evaluation input and aggregates the outcome.
//
// Two scorer families exist. Judged scorers (relevancy, faithfulness,
// hallucination, bias) delegate to the LLM judge in evaluation/llmjudge.
// Deterministic scorers (tool-selection accuracy, parameter correctness,
// response latency, token ceiling) compute locally from the recorded tool
// calls and operational metadata.
//
// A scorer's internal failure never crashes the batch: the engine converts
// it into an error-marked result excluded from the overall verdict.
package scorer

import (
	"context"
	"errors"

	"github.com/loanwise/agenteval/evaluation"
)

// ErrNotApplicable is returned by a scorer that cannot score the given
// input at all, for example a tool-accuracy scorer on a turn without
// expected tools. The engine records the metric as NOT_EVALUATED.
var ErrNotApplicable = errors.New("scorer: not applicable to this input")

// Input is the normalized evaluation input every scorer consumes.
type Input struct {
	// Question is the user's input for the turn.
	Question string

	// Answer is the agent output being evaluated.
	Answer string

	// Context is the reconstructed (or pre-supplied) retrieval context.
	// Empty for turns without tool calls.
	Context []string

	// ToolCalls are the tool invocations recorded during the turn.
	ToolCalls []evaluation.ToolCall

	// Metadata carries operational fields such as latency_ms,
	// total_tokens, and expected_tools.
	Metadata map[string]any
}

// Scorer scores one metric of an evaluation input.
type Scorer interface {
	// Name is the stable metric name used in results and statistics.
	Name() string

	// Config returns the metric's threshold, directionality, and verdict
	// participation.
	Config() Config

	// RequiresContext reports whether the metric is meaningless without
	// retrieval context. The engine skips such metrics on context-free
	// turns rather than scoring them as failing.
	RequiresContext() bool

	// Score computes the metric. It returns the numeric score and an
	// optional rationale. ErrNotApplicable marks the metric skipped; any
	// other error marks it errored.
	Score(ctx context.Context, in Input) (float64, string, error)
}

// Config holds one metric's verdict configuration.
type Config struct {
	// Threshold the score is judged against, using Direction.
	Threshold float64

	// Direction selects the passing rule: score >= threshold for
	// HigherIsBetter, score <= threshold for LowerIsBetter.
	Direction evaluation.Direction

	// Required metrics participate in the overall verdict. Informational
	// metrics are scored and recorded but never fail an evaluation.
	Required bool

	// Critical marks a zero-tolerance metric: its failure is surfaced as
	// a critical issue and forces overall failure regardless of other
	// metrics.
	Critical bool
}
