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

	"github.com/loanwise/agenteval/evaluation"
)

// SessionStatistics aggregates one session's evaluations. Average scores
// and the pass rate consider only metrics that produced a pass/fail
// verdict; NOT_EVALUATED and ERROR scores are excluded from the math.
type SessionStatistics struct {
	SessionID          string
	TotalEvaluations   int
	Completed          int
	InProgress         int
	Pending            int
	Failed             int
	PassRate           float64 // fraction of completed evaluations that passed overall
	AverageScores      map[string]float64
	CriticalIssueCount int
}

// UserStatistics aggregates all evaluations for a user across sessions.
type UserStatistics struct {
	UserID           string
	TotalEvaluations int
	SessionCount     int
	Completed        int
	Failed           int
	PassRate         float64
	AverageScores    map[string]float64
}

// SessionStatistics reduces the session's records into aggregate counts.
func (m *Manager) SessionStatistics(ctx context.Context, sessionID string) (*SessionStatistics, error) {
	records, err := m.store.FindBySession(ctx, sessionID, 0)
	if err != nil {
		return nil, fmt.Errorf("manager: loading session %q: %w", sessionID, err)
	}

	stats := &SessionStatistics{
		SessionID:     sessionID,
		AverageScores: make(map[string]float64),
	}
	agg := newScoreAggregator()
	var passed int
	for i := range records {
		rec := &records[i]
		stats.TotalEvaluations++
		switch rec.Status {
		case evaluation.StatusCompleted:
			stats.Completed++
			if rec.OverallPassed {
				passed++
			}
			stats.CriticalIssueCount += len(rec.CriticalIssues)
			agg.add(rec.Scores)
		case evaluation.StatusInProgress:
			stats.InProgress++
		case evaluation.StatusPending:
			stats.Pending++
		case evaluation.StatusFailed:
			stats.Failed++
		}
	}
	if stats.Completed > 0 {
		stats.PassRate = float64(passed) / float64(stats.Completed)
	}
	stats.AverageScores = agg.averages()
	return stats, nil
}

// UserStatistics reduces every record for the user, across sessions.
func (m *Manager) UserStatistics(ctx context.Context, userID string) (*UserStatistics, error) {
	records, err := m.store.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("manager: loading user %q: %w", userID, err)
	}

	stats := &UserStatistics{
		UserID:        userID,
		AverageScores: make(map[string]float64),
	}
	agg := newScoreAggregator()
	sessions := make(map[string]struct{})
	var passed int
	for i := range records {
		rec := &records[i]
		stats.TotalEvaluations++
		sessions[rec.SessionID] = struct{}{}
		switch rec.Status {
		case evaluation.StatusCompleted:
			stats.Completed++
			if rec.OverallPassed {
				passed++
			}
			agg.add(rec.Scores)
		case evaluation.StatusFailed:
			stats.Failed++
		}
	}
	stats.SessionCount = len(sessions)
	if stats.Completed > 0 {
		stats.PassRate = float64(passed) / float64(stats.Completed)
	}
	stats.AverageScores = agg.averages()
	return stats, nil
}

type scoreAggregator struct {
	sums   map[string]float64
	counts map[string]int
}

func newScoreAggregator() *scoreAggregator {
	return &scoreAggregator{
		sums:   make(map[string]float64),
		counts: make(map[string]int),
	}
}

func (a *scoreAggregator) add(scores []evaluation.ScoreResult) {
	for _, s := range scores {
		if !s.Counted() {
			continue
		}
		a.sums[s.Metric] += s.Score
		a.counts[s.Metric]++
	}
}

func (a *scoreAggregator) averages() map[string]float64 {
	out := make(map[string]float64, len(a.sums))
	for metric, sum := range a.sums {
		out[metric] = sum / float64(a.counts[metric])
	}
	return out
}
