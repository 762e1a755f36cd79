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
	"testing"

	"google.golang.org/genai"

	"github.com/loanwise/agenteval/evaluation"
	"github.com/loanwise/agenteval/evaluation/llmjudge"
	"github.com/loanwise/agenteval/llm"
)

// cannedModel always answers with the same judge response.
type cannedModel struct {
	response string
}

func (m *cannedModel) Name() string { return "canned" }

func (m *cannedModel) Generate(_ context.Context, _ *llm.Request) (*llm.Response, error) {
	return &llm.Response{
		Content: &genai.Content{
			Role:  "model",
			Parts: []*genai.Part{genai.NewPartFromText(m.response)},
		},
	}, nil
}

func newCannedJudge(response string) *llmjudge.Judge {
	return llmjudge.NewJudge(llmjudge.Config{Model: &cannedModel{response: response}})
}

func TestJudgedScorerDefaults(t *testing.T) {
	judge := newCannedJudge("Score: 0.5")

	tests := []struct {
		scorer        Scorer
		wantName      string
		wantThreshold float64
		wantDirection evaluation.Direction
		wantContext   bool
	}{
		{NewRelevancyScorer(judge, Config{}), MetricAnswerRelevancy, DefaultRelevancyThreshold, evaluation.HigherIsBetter, false},
		{NewFaithfulnessScorer(judge, Config{}), MetricFaithfulness, DefaultFaithfulnessThreshold, evaluation.HigherIsBetter, true},
		{NewHallucinationScorer(judge, Config{}), MetricHallucination, DefaultHallucinationThreshold, evaluation.LowerIsBetter, true},
		{NewBiasScorer(judge, Config{}), MetricBias, DefaultBiasThreshold, evaluation.LowerIsBetter, false},
	}
	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			if got := tt.scorer.Name(); got != tt.wantName {
				t.Errorf("Name = %q, want %q", got, tt.wantName)
			}
			cfg := tt.scorer.Config()
			if cfg.Threshold != tt.wantThreshold {
				t.Errorf("Threshold = %v, want %v", cfg.Threshold, tt.wantThreshold)
			}
			if cfg.Direction != tt.wantDirection {
				t.Errorf("Direction = %v, want %v", cfg.Direction, tt.wantDirection)
			}
			if got := tt.scorer.RequiresContext(); got != tt.wantContext {
				t.Errorf("RequiresContext = %v, want %v", got, tt.wantContext)
			}
		})
	}
}

func TestJudgedScorerOverrides(t *testing.T) {
	s := NewRelevancyScorer(newCannedJudge("Score: 0.5"), Config{
		Threshold: 0.9,
		Required:  true,
		Critical:  true,
	})
	cfg := s.Config()
	if cfg.Threshold != 0.9 {
		t.Errorf("Threshold = %v, want override 0.9", cfg.Threshold)
	}
	if !cfg.Required || !cfg.Critical {
		t.Errorf("Required/Critical = %v/%v, want true/true", cfg.Required, cfg.Critical)
	}
	if cfg.Direction != evaluation.HigherIsBetter {
		t.Errorf("Direction = %v, want default preserved", cfg.Direction)
	}
}

func TestJudgedScorerScore(t *testing.T) {
	s := NewFaithfulnessScorer(newCannedJudge("Score: 0.85\nRationale: well grounded"), Config{})

	score, rationale, err := s.Score(context.Background(), Input{
		Question: "What is the payment?",
		Answer:   "About $1,498.54",
		Context:  []string{`{"monthly_payment":1498.54}`},
	})
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score != 0.85 {
		t.Errorf("score = %v, want 0.85", score)
	}
	if rationale != "well grounded" {
		t.Errorf("rationale = %q, want %q", rationale, "well grounded")
	}
}
