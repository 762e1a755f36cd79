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

package evaluation

import "time"

// Status represents the lifecycle state of an evaluation record.
//
// Transitions are monotonic: PENDING -> IN_PROGRESS -> {COMPLETED | FAILED}.
// COMPLETED and FAILED are terminal.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Terminal reports whether the status is a terminal state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether the transition s -> next is legal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusInProgress
	case StatusInProgress:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// Direction is the passing directionality of a metric.
type Direction string

const (
	// HigherIsBetter passes when score >= threshold (relevancy, faithfulness,
	// tool accuracy).
	HigherIsBetter Direction = "HIGHER_IS_BETTER"

	// LowerIsBetter passes when score <= threshold (hallucination, bias,
	// latency, token counts).
	LowerIsBetter Direction = "LOWER_IS_BETTER"
)

// Passes applies the directionality rule to a score.
func (d Direction) Passes(score, threshold float64) bool {
	if d == LowerIsBetter {
		return score <= threshold
	}
	return score >= threshold
}

// ScoreStatus is the per-metric outcome marker.
type ScoreStatus string

const (
	// ScorePassed and ScoreFailed are definitive verdicts that count toward
	// the overall result.
	ScorePassed ScoreStatus = "PASSED"
	ScoreFailed ScoreStatus = "FAILED"

	// ScoreNotEvaluated marks a metric that was skipped, for example a
	// context-dependent metric on a turn that produced no context. Skipped
	// metrics are excluded from the overall verdict.
	ScoreNotEvaluated ScoreStatus = "NOT_EVALUATED"

	// ScoreError marks a metric whose computation failed (judge unavailable,
	// timeout, malformed response). Errored metrics are excluded from the
	// overall verdict but surfaced for visibility.
	ScoreError ScoreStatus = "ERROR"
)

// ToolCall records one tool invocation made by the agent during a turn.
// The reconstructor replays the same tool with the same arguments.
type ToolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Request is the input to the evaluation pipeline. It is immutable once
// submitted; the manager copies its fields into the record it owns.
type Request struct {
	// SessionID is the correlation id linking evaluations of the same
	// conversation.
	SessionID string `json:"session_id"`

	// UserID identifies the end user the conversation belongs to.
	UserID string `json:"user_id"`

	// InvocationID optionally identifies the agent turn. Two submissions
	// with the same SessionID and InvocationID are duplicates: the second
	// returns the id of the first.
	InvocationID string `json:"invocation_id,omitempty"`

	// UserInput is the user's message for this turn.
	UserInput string `json:"user_input"`

	// AgentOutput is the agent's reply being evaluated.
	AgentOutput string `json:"agent_output"`

	// ToolCalls are the tool invocations the agent made while producing
	// AgentOutput, in execution order.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// Context, when non-empty, is pre-supplied retrieval context and
	// bypasses reconstruction.
	Context []string `json:"context,omitempty"`

	// Metadata carries free-form operational fields (model name, streaming
	// flag, latency_ms, total_tokens, expected_tools).
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ScoreResult is one metric's outcome for one evaluation.
type ScoreResult struct {
	Metric    string      `json:"metric"`
	Score     float64     `json:"score"`
	Threshold float64     `json:"threshold"`
	Direction Direction   `json:"direction"`
	Passed    bool        `json:"passed"`
	Status    ScoreStatus `json:"status"`

	// Rationale is the judge's free-text reasoning, when available.
	Rationale string `json:"rationale,omitempty"`

	// Error describes why the metric was error-marked or skipped.
	Error string `json:"error,omitempty"`

	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Counted reports whether the result participates in the overall verdict.
func (r ScoreResult) Counted() bool {
	return r.Status == ScorePassed || r.Status == ScoreFailed
}

// Record is the persisted, queryable unit of evaluation work. The manager is
// the sole writer of a record throughout its lifetime; readers obtained from
// query methods must treat it as immutable.
type Record struct {
	// ID is derived from the session id and a per-session sequence number,
	// e.g. "eval_s1_0001", so adjacent evaluations diff cleanly.
	ID string `json:"evaluation_id"`

	SessionID    string `json:"session_id"`
	UserID       string `json:"user_id"`
	InvocationID string `json:"invocation_id,omitempty"`

	UserInput   string         `json:"user_input"`
	AgentOutput string         `json:"agent_output"`
	ToolCalls   []ToolCall     `json:"tool_calls,omitempty"`
	Context     []string       `json:"context,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`

	Status Status `json:"status"`

	Scores []ScoreResult `json:"scores,omitempty"`

	// OverallPassed is true iff every required metric that produced a
	// definitive verdict passed.
	OverallPassed bool `json:"overall_passed"`

	// CriticalIssues names the zero-tolerance metrics that failed, with
	// severity annotations.
	CriticalIssues []string `json:"critical_issues,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error holds the failure reason when Status is FAILED.
	Error string `json:"error,omitempty"`
}

// Score returns the result for the named metric, if present.
func (rec *Record) Score(metric string) (ScoreResult, bool) {
	for _, s := range rec.Scores {
		if s.Metric == metric {
			return s, true
		}
	}
	return ScoreResult{}, false
}
