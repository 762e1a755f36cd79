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

package scorer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/loanwise/agenteval/evaluation"
)

// EngineConfig bounds the engine's per-job behavior.
type EngineConfig struct {
	// MetricTimeout caps each metric invocation independently. Zero
	// defaults to 30 seconds.
	MetricTimeout time.Duration

	// Concurrency caps how many metrics run at once within one job, so a
	// single evaluation cannot exhaust the judge API's rate limits. Zero
	// defaults to 4.
	Concurrency int
}

func (c *EngineConfig) applyDefaults() {
	if c.MetricTimeout <= 0 {
		c.MetricTimeout = 30 * time.Second
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
}

// Engine runs a fixed set of scorers over evaluation inputs.
type Engine struct {
	scorers []Scorer
	cfg     EngineConfig
}

// NewEngine creates an engine over the given scorers.
func NewEngine(cfg EngineConfig, scorers ...Scorer) *Engine {
	cfg.applyDefaults()
	return &Engine{scorers: scorers, cfg: cfg}
}

// Metrics returns the names of the configured scorers.
func (e *Engine) Metrics() []string {
	names := make([]string, len(e.scorers))
	for i, s := range e.scorers {
		names[i] = s.Name()
	}
	return names
}

// Run scores the input with every configured scorer. Metrics fan out
// concurrently under the per-job concurrency cap; each carries its own
// timeout. The returned slice is in scorer registration order and always
// has one entry per scorer: a scorer failure or timeout produces an
// error-marked result, a context-requiring scorer on a context-free input
// produces a skipped result. Run fails only if ctx itself is done.
func (e *Engine) Run(ctx context.Context, in Input) ([]evaluation.ScoreResult, error) {
	results := make([]evaluation.ScoreResult, len(e.scorers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)

	for i, s := range e.scorers {
		g.Go(func() error {
			results[i] = e.runOne(gctx, s, in)
			return nil
		})
	}
	// Workers never return errors; Wait only propagates ctx cancellation
	// observed before dispatch.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Engine) runOne(ctx context.Context, s Scorer, in Input) evaluation.ScoreResult {
	cfg := s.Config()
	result := evaluation.ScoreResult{
		Metric:      s.Name(),
		Threshold:   cfg.Threshold,
		Direction:   cfg.Direction,
		EvaluatedAt: time.Now(),
	}

	// Absence of grounding information is not evidence of low quality:
	// a context-dependent metric on a turn that produced no context is
	// skipped, not failed.
	if s.RequiresContext() && len(in.Context) == 0 {
		result.Status = evaluation.ScoreNotEvaluated
		result.Error = "no retrieval context available for this turn"
		return result
	}

	mctx, cancel := context.WithTimeout(ctx, e.cfg.MetricTimeout)
	defer cancel()

	score, rationale, err := s.Score(mctx, in)
	result.EvaluatedAt = time.Now()
	switch {
	case errors.Is(err, ErrNotApplicable):
		result.Status = evaluation.ScoreNotEvaluated
		result.Error = err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		result.Status = evaluation.ScoreError
		result.Error = fmt.Sprintf("metric timed out after %s", e.cfg.MetricTimeout)
	case err != nil:
		result.Status = evaluation.ScoreError
		result.Error = err.Error()
	default:
		result.Score = score
		result.Rationale = rationale
		result.Passed = cfg.Direction.Passes(score, cfg.Threshold)
		if result.Passed {
			result.Status = evaluation.ScorePassed
		} else {
			result.Status = evaluation.ScoreFailed
		}
	}
	return result
}

// Verdict reduces a result set to the overall pass/fail and the critical
// issues. OverallPassed is true iff every required metric with a definitive
// verdict passed; skipped and errored metrics are excluded. A failed
// critical metric forces overall failure and contributes a critical issue.
func (e *Engine) Verdict(results []evaluation.ScoreResult) (overallPassed bool, criticalIssues []string) {
	overallPassed = true
	byName := make(map[string]Config, len(e.scorers))
	for _, s := range e.scorers {
		byName[s.Name()] = s.Config()
	}

	for _, r := range results {
		if !r.Counted() {
			continue
		}
		cfg := byName[r.Metric]
		if r.Status == evaluation.ScoreFailed {
			if cfg.Critical {
				criticalIssues = append(criticalIssues,
					fmt.Sprintf("CRITICAL: %s failed (score %.2f, threshold %.2f)", r.Metric, r.Score, r.Threshold))
				overallPassed = false
			}
			if cfg.Required {
				overallPassed = false
			}
		}
	}
	return overallPassed, criticalIssues
}
