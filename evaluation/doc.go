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

// Package evaluation defines the data model for asynchronous evaluation of
// conversational agent turns.
//
// An agent turn is submitted as a [Request] carrying the user input, the
// agent output, and the tool calls the agent made while producing it. The
// pipeline turns each accepted request into a [Record] that moves through a
// one-directional lifecycle:
//
//	PENDING -> IN_PROGRESS -> {COMPLETED | FAILED}
//
// # Scoring
//
// Each configured metric produces one [ScoreResult]. A metric either passes
// or fails against its threshold and directionality, or it is excluded from
// the overall verdict: NOT_EVALUATED when the metric was skipped (for
// example a context-dependent metric on a turn with no tool calls), ERROR
// when the metric itself failed (judge unavailable, timeout). Excluded
// metrics never count as failures.
//
// # Storage
//
// The [Storage] interface is the narrow boundary to the result store. Each
// record is a self-contained document; no multi-document transactional
// guarantees are required. Implementations live in evaluation/storage.
//
// The concurrency core that drives the lifecycle lives in
// evaluation/manager; the metric implementations live in evaluation/scorer.
package evaluation
