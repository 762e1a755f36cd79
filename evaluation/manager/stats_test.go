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

package manager

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/loanwise/agenteval/evaluation"
	"github.com/loanwise/agenteval/evaluation/scorer"
)

func TestSessionStatistics(t *testing.T) {
	model := goodJudgeModel()
	env := newTestEnv(t, model, Config{Workers: 2})
	ctx := context.Background()

	// Two passing evaluations and one hallucinating failure.
	var ids []string
	for i := range 2 {
		id, err := env.mgr.Submit(ctx, paymentRequest("stats", fmt.Sprintf("good%d", i)))
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		ids = append(ids, id)
	}
	for _, id := range ids {
		waitForTerminal(t, env.mgr, id)
	}

	model.byKeyword["hallucinations"] = "Score: 0.9\nRationale: fabricated figures"
	bad, err := env.mgr.Submit(ctx, paymentRequest("stats", "bad"))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	waitForTerminal(t, env.mgr, bad)

	stats, err := env.mgr.SessionStatistics(ctx, "stats")
	if err != nil {
		t.Fatalf("SessionStatistics failed: %v", err)
	}

	if stats.TotalEvaluations != 3 {
		t.Errorf("TotalEvaluations = %d, want 3", stats.TotalEvaluations)
	}
	if stats.Completed != 3 {
		t.Errorf("Completed = %d, want 3", stats.Completed)
	}
	if stats.Failed != 0 || stats.Pending != 0 || stats.InProgress != 0 {
		t.Errorf("Failed/Pending/InProgress = %d/%d/%d, want all zero",
			stats.Failed, stats.Pending, stats.InProgress)
	}
	if want := 2.0 / 3.0; math.Abs(stats.PassRate-want) > 1e-9 {
		t.Errorf("PassRate = %v, want %v", stats.PassRate, want)
	}
	if stats.CriticalIssueCount != 1 {
		t.Errorf("CriticalIssueCount = %d, want 1", stats.CriticalIssueCount)
	}

	avg, ok := stats.AverageScores[scorer.MetricAnswerRelevancy]
	if !ok {
		t.Fatalf("AverageScores %v missing relevancy", stats.AverageScores)
	}
	if math.Abs(avg-0.9) > 1e-9 {
		t.Errorf("average relevancy = %v, want 0.9", avg)
	}
}

func TestSessionStatisticsEmptySession(t *testing.T) {
	env := newTestEnv(t, goodJudgeModel(), Config{})

	stats, err := env.mgr.SessionStatistics(context.Background(), "nothing-here")
	if err != nil {
		t.Fatalf("SessionStatistics failed: %v", err)
	}
	if stats.TotalEvaluations != 0 || stats.PassRate != 0 {
		t.Errorf("stats for empty session = %+v, want zeros", stats)
	}
}

func TestUserStatistics(t *testing.T) {
	env := newTestEnv(t, goodJudgeModel(), Config{Workers: 2})
	ctx := context.Background()

	// Same user across two sessions.
	var ids []string
	for _, session := range []string{"sess_a", "sess_a", "sess_b"} {
		id, err := env.mgr.Submit(ctx, paymentRequest(session, fmt.Sprintf("t%d", len(ids))))
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		ids = append(ids, id)
	}
	for _, id := range ids {
		waitForTerminal(t, env.mgr, id)
	}

	stats, err := env.mgr.UserStatistics(ctx, "user1")
	if err != nil {
		t.Fatalf("UserStatistics failed: %v", err)
	}
	if stats.TotalEvaluations != 3 {
		t.Errorf("TotalEvaluations = %d, want 3", stats.TotalEvaluations)
	}
	if stats.SessionCount != 2 {
		t.Errorf("SessionCount = %d, want 2", stats.SessionCount)
	}
	if stats.Completed != 3 {
		t.Errorf("Completed = %d, want 3", stats.Completed)
	}
	if stats.PassRate != 1 {
		t.Errorf("PassRate = %v, want 1", stats.PassRate)
	}

	empty, err := env.mgr.UserStatistics(ctx, "nobody")
	if err != nil {
		t.Fatalf("UserStatistics(nobody) failed: %v", err)
	}
	if empty.TotalEvaluations != 0 || empty.SessionCount != 0 {
		t.Errorf("stats for unknown user = %+v, want zeros", empty)
	}
}

// Records enter IN_PROGRESS only from PENDING and terminal states only from
// IN_PROGRESS: observed statuses over a record's lifetime never regress.
func TestStatusMonotonicity(t *testing.T) {
	env := newTestEnv(t, goodJudgeModel(), Config{Workers: 1})
	ctx := context.Background()

	id, err := env.mgr.Submit(ctx, paymentRequest("mono", "t1"))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	rank := map[evaluation.Status]int{
		evaluation.StatusPending:    0,
		evaluation.StatusInProgress: 1,
		evaluation.StatusCompleted:  2,
		evaluation.StatusFailed:     2,
	}
	last := -1
	for {
		rec, err := env.mgr.GetResult(ctx, id)
		if err != nil {
			t.Fatalf("GetResult failed: %v", err)
		}
		r := rank[rec.Status]
		if r < last {
			t.Fatalf("status regressed to %v", rec.Status)
		}
		last = r
		if rec.Status.Terminal() {
			break
		}
		time.Sleep(time.Millisecond)
	}
}
