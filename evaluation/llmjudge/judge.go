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

// Package llmjudge implements the LLM-as-Judge boundary for judged metrics.
//
// A judged metric hands the judge a question, the agent's answer, and
// optionally the reconstructed retrieval context; the judge returns a score
// in [0, 1] plus a free-text rationale. Transport failures and unparseable
// responses surface as [ErrUnavailable] and [ErrMalformedResponse] so
// callers can error-mark the metric instead of failing the evaluation.
package llmjudge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/loanwise/agenteval/llm"
)

var (
	// ErrUnavailable indicates the judge model could not be reached or
	// returned a transport-level failure.
	ErrUnavailable = errors.New("llmjudge: judge unavailable")

	// ErrMalformedResponse indicates the judge replied but no score could
	// be extracted from the reply.
	ErrMalformedResponse = errors.New("llmjudge: malformed judge response")
)

// Verdict is the judge's outcome for one metric invocation.
type Verdict struct {
	// Score is in [0, 1]; its meaning depends on the metric prompt.
	Score float64

	// Rationale is the judge's reasoning, verbatim.
	Rationale string
}

// Judge scores evaluation prompts with an LLM.
type Judge struct {
	model  llm.Model
	config *genai.GenerateContentConfig
	parser *ResponseParser
}

// Config configures a Judge.
type Config struct {
	Model llm.Model

	// Temperature defaults to 0 to keep verdicts as repeatable as the
	// model allows.
	Temperature *float32
}

// NewJudge creates a judge over the given model.
func NewJudge(cfg Config) *Judge {
	genCfg := &genai.GenerateContentConfig{}
	if cfg.Temperature != nil {
		genCfg.Temperature = cfg.Temperature
	}
	return &Judge{
		model:  cfg.Model,
		config: genCfg,
		parser: NewResponseParser(),
	}
}

// Evaluate sends the prompt to the judge model and parses the verdict.
func (j *Judge) Evaluate(ctx context.Context, prompt string) (*Verdict, error) {
	req := &llm.Request{
		Contents: []*genai.Content{
			{
				Role:  "user",
				Parts: []*genai.Part{genai.NewPartFromText(prompt)},
			},
		},
		GenerateConfig: j.config,
	}

	start := time.Now()
	resp, err := j.model.Generate(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: empty response after %s", ErrMalformedResponse, time.Since(start))
	}

	score, err := j.parser.ParseScore(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return &Verdict{
		Score:     score,
		Rationale: j.parser.ParseRationale(text),
	}, nil
}
