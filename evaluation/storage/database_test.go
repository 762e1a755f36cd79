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

package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/loanwise/agenteval/evaluation"
)

func newDatabaseStorage(t *testing.T) *DatabaseStorage {
	t.Helper()
	s, err := NewDatabaseStorage(filepath.Join(t.TempDir(), "evals.db"))
	if err != nil {
		t.Fatalf("NewDatabaseStorage failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDatabaseRoundTrip(t *testing.T) {
	s := newDatabaseStorage(t)
	ctx := context.Background()

	started := time.Now().Truncate(time.Millisecond)
	rec := &evaluation.Record{
		ID:           "eval_s1_0001",
		SessionID:    "s1",
		UserID:       "u1",
		InvocationID: "t1",
		UserInput:    "What is my payment?",
		AgentOutput:  "About $1,498.54.",
		ToolCalls: []evaluation.ToolCall{{
			Name: "calculate_loan_payment",
			Args: map[string]any{"loan_amount": 50000.0},
		}},
		Context:  []string{`{"monthly_payment":1498.54}`},
		Metadata: map[string]any{"latency_ms": 2300.0},
		Status:   evaluation.StatusCompleted,
		Scores: []evaluation.ScoreResult{{
			Metric:    "answer_relevancy",
			Score:     0.9,
			Threshold: 0.7,
			Direction: evaluation.HigherIsBetter,
			Passed:    true,
			Status:    evaluation.ScorePassed,
			Rationale: "directly answers",
		}},
		OverallPassed: true,
		CreatedAt:     started,
		StartedAt:     &started,
	}

	if err := s.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := s.FindByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	// Timestamps survive with driver-dependent precision; compare them
	// loosely and everything else exactly.
	opts := cmp.Options{
		cmpopts.EquateApproxTime(time.Second),
		cmpopts.IgnoreFields(evaluation.ScoreResult{}, "EvaluatedAt"),
	}
	if diff := cmp.Diff(rec, got, opts); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDatabaseInsertDuplicate(t *testing.T) {
	s := newDatabaseStorage(t)
	ctx := context.Background()

	rec := &evaluation.Record{ID: "eval_s1_0001", SessionID: "s1", Status: evaluation.StatusPending, CreatedAt: time.Now()}
	if err := s.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := s.Insert(ctx, rec); !errors.Is(err, evaluation.ErrAlreadyExists) {
		t.Errorf("second Insert error = %v, want ErrAlreadyExists", err)
	}
}

func TestDatabaseUpdate(t *testing.T) {
	s := newDatabaseStorage(t)
	ctx := context.Background()

	rec := &evaluation.Record{ID: "eval_s1_0001", SessionID: "s1", Status: evaluation.StatusPending, CreatedAt: time.Now()}
	if err := s.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	rec.Status = evaluation.StatusFailed
	rec.Error = "judge unavailable"
	if err := s.Update(ctx, rec); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := s.FindByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got.Status != evaluation.StatusFailed || got.Error != "judge unavailable" {
		t.Errorf("updated record = %+v, want FAILED with error", got)
	}
}

func TestDatabaseUpdateMissing(t *testing.T) {
	s := newDatabaseStorage(t)
	err := s.Update(context.Background(), &evaluation.Record{ID: "ghost", Status: evaluation.StatusFailed})
	if !errors.Is(err, evaluation.ErrNotFound) {
		t.Errorf("Update of missing record error = %v, want ErrNotFound", err)
	}
}

func TestDatabaseFindByIDMissing(t *testing.T) {
	s := newDatabaseStorage(t)
	if _, err := s.FindByID(context.Background(), "nope"); !errors.Is(err, evaluation.ErrNotFound) {
		t.Errorf("FindByID(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDatabaseFindBySessionNewestFirst(t *testing.T) {
	s := newDatabaseStorage(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 1; i <= 3; i++ {
		rec := &evaluation.Record{
			ID:        fmt.Sprintf("eval_s1_%04d", i),
			SessionID: "s1",
			UserID:    "u1",
			Status:    evaluation.StatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
	}

	got, err := s.FindBySession(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("FindBySession failed: %v", err)
	}
	var ids []string
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	want := []string{"eval_s1_0003", "eval_s1_0002", "eval_s1_0001"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("FindBySession order mismatch (-want +got):\n%s", diff)
	}

	limited, err := s.FindBySession(ctx, "s1", 1)
	if err != nil {
		t.Fatalf("FindBySession with limit failed: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "eval_s1_0003" {
		t.Errorf("FindBySession(limit=1) = %v, want only the newest", limited)
	}
}

func TestDatabaseFindByUser(t *testing.T) {
	s := newDatabaseStorage(t)
	ctx := context.Background()

	now := time.Now()
	for i, userID := range []string{"u1", "u1", "u2"} {
		rec := &evaluation.Record{
			ID:        fmt.Sprintf("eval_s%d_0001", i+1),
			SessionID: fmt.Sprintf("s%d", i+1),
			UserID:    userID,
			Status:    evaluation.StatusPending,
			CreatedAt: now,
		}
		if err := s.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
	}

	got, err := s.FindByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("FindByUser failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("FindByUser(u1) returned %d records, want 2", len(got))
	}
}
