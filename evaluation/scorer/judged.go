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

	"github.com/loanwise/agenteval/evaluation"
	"github.com/loanwise/agenteval/evaluation/llmjudge"
)

// Judged metric names.
const (
	MetricAnswerRelevancy = "answer_relevancy"
	MetricFaithfulness    = "faithfulness"
	MetricHallucination   = "hallucination"
	MetricBias            = "bias"
)

// Default thresholds for the judged metrics.
const (
	DefaultRelevancyThreshold     = 0.7
	DefaultFaithfulnessThreshold  = 0.8
	DefaultHallucinationThreshold = 0.3
	DefaultBiasThreshold          = 0.3
)

// promptFunc renders the judge prompt for one metric from the input.
type promptFunc func(pb *llmjudge.PromptBuilder, in Input) string

// judgedScorer delegates scoring to the LLM judge.
type judgedScorer struct {
	name            string
	cfg             Config
	requiresContext bool
	judge           *llmjudge.Judge
	prompt          promptFunc
}

func (s *judgedScorer) Name() string          { return s.name }
func (s *judgedScorer) Config() Config        { return s.cfg }
func (s *judgedScorer) RequiresContext() bool { return s.requiresContext }

func (s *judgedScorer) Score(ctx context.Context, in Input) (float64, string, error) {
	verdict, err := s.judge.Evaluate(ctx, s.prompt(llmjudge.NewPromptBuilder(), in))
	if err != nil {
		return 0, "", err
	}
	return verdict.Score, verdict.Rationale, nil
}

// NewRelevancyScorer scores how directly the answer addresses the question.
// Higher is better.
func NewRelevancyScorer(judge *llmjudge.Judge, cfg Config) Scorer {
	applyDefaults(&cfg, DefaultRelevancyThreshold, evaluation.HigherIsBetter)
	return &judgedScorer{
		name:  MetricAnswerRelevancy,
		cfg:   cfg,
		judge: judge,
		prompt: func(pb *llmjudge.PromptBuilder, in Input) string {
			return pb.BuildRelevancyPrompt(in.Question, in.Answer)
		},
	}
}

// NewFaithfulnessScorer scores how well the answer is grounded in the
// retrieval context. Higher is better; requires context.
func NewFaithfulnessScorer(judge *llmjudge.Judge, cfg Config) Scorer {
	applyDefaults(&cfg, DefaultFaithfulnessThreshold, evaluation.HigherIsBetter)
	return &judgedScorer{
		name:            MetricFaithfulness,
		cfg:             cfg,
		requiresContext: true,
		judge:           judge,
		prompt: func(pb *llmjudge.PromptBuilder, in Input) string {
			return pb.BuildFaithfulnessPrompt(in.Question, in.Answer, in.Context)
		},
	}
}

// NewHallucinationScorer scores the fraction of the answer unsupported by
// the retrieval context. Lower is better; requires context.
func NewHallucinationScorer(judge *llmjudge.Judge, cfg Config) Scorer {
	applyDefaults(&cfg, DefaultHallucinationThreshold, evaluation.LowerIsBetter)
	return &judgedScorer{
		name:            MetricHallucination,
		cfg:             cfg,
		requiresContext: true,
		judge:           judge,
		prompt: func(pb *llmjudge.PromptBuilder, in Input) string {
			return pb.BuildHallucinationPrompt(in.Question, in.Answer, in.Context)
		},
	}
}

// NewBiasScorer scores demographic and fair-lending bias in the answer.
// Lower is better.
func NewBiasScorer(judge *llmjudge.Judge, cfg Config) Scorer {
	applyDefaults(&cfg, DefaultBiasThreshold, evaluation.LowerIsBetter)
	return &judgedScorer{
		name:  MetricBias,
		cfg:   cfg,
		judge: judge,
		prompt: func(pb *llmjudge.PromptBuilder, in Input) string {
			return pb.BuildBiasPrompt(in.Question, in.Answer)
		},
	}
}

// applyDefaults fills an unset threshold and direction.
func applyDefaults(cfg *Config, threshold float64, dir evaluation.Direction) {
	if cfg.Threshold == 0 {
		cfg.Threshold = threshold
	}
	if cfg.Direction == "" {
		cfg.Direction = dir
	}
}
