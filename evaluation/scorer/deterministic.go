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
	"fmt"

	"github.com/loanwise/agenteval/evaluation"
	"github.com/loanwise/agenteval/replay"
)

// Deterministic metric names.
const (
	MetricToolAccuracy         = "tool_accuracy"
	MetricParameterCorrectness = "parameter_correctness"
	MetricResponseLatency      = "response_latency"
	MetricTokenCount           = "token_count"
)

// Metadata keys consumed by the deterministic scorers.
const (
	MetadataExpectedTools = "expected_tools"
	MetadataLatencyMS     = "latency_ms"
	MetadataTotalTokens   = "total_tokens"
)

// toolAccuracyScorer compares the recorded tool calls against the expected
// tool names supplied in metadata. Higher is better.
type toolAccuracyScorer struct {
	cfg Config
}

// NewToolAccuracyScorer scores the fraction of expected tools the agent
// actually invoked. The expectation comes from the "expected_tools"
// metadata entry; without it the metric is not applicable.
func NewToolAccuracyScorer(cfg Config) Scorer {
	applyDefaults(&cfg, 1.0, evaluation.HigherIsBetter)
	return &toolAccuracyScorer{cfg: cfg}
}

func (s *toolAccuracyScorer) Name() string          { return MetricToolAccuracy }
func (s *toolAccuracyScorer) Config() Config        { return s.cfg }
func (s *toolAccuracyScorer) RequiresContext() bool { return false }

func (s *toolAccuracyScorer) Score(_ context.Context, in Input) (float64, string, error) {
	expected, err := stringSlice(in.Metadata[MetadataExpectedTools])
	if err != nil {
		return 0, "", fmt.Errorf("expected_tools metadata: %w", err)
	}
	if len(expected) == 0 {
		return 0, "", ErrNotApplicable
	}

	called := make(map[string]bool, len(in.ToolCalls))
	for _, tc := range in.ToolCalls {
		called[tc.Name] = true
	}

	hits := 0
	var missing []string
	for _, name := range expected {
		if called[name] {
			hits++
		} else {
			missing = append(missing, name)
		}
	}

	score := float64(hits) / float64(len(expected))
	rationale := fmt.Sprintf("%d of %d expected tools called", hits, len(expected))
	if len(missing) > 0 {
		rationale += fmt.Sprintf("; missing: %v", missing)
	}
	return score, rationale, nil
}

// parameterCorrectnessScorer validates recorded tool arguments against the
// registry's input schemas. Higher is better.
type parameterCorrectnessScorer struct {
	cfg      Config
	registry *replay.Registry
}

// NewParameterCorrectnessScorer scores the fraction of recorded tool calls
// whose arguments satisfy the registered tool's input schema. Turns without
// tool calls are not applicable.
func NewParameterCorrectnessScorer(registry *replay.Registry, cfg Config) Scorer {
	applyDefaults(&cfg, 1.0, evaluation.HigherIsBetter)
	return &parameterCorrectnessScorer{cfg: cfg, registry: registry}
}

func (s *parameterCorrectnessScorer) Name() string          { return MetricParameterCorrectness }
func (s *parameterCorrectnessScorer) Config() Config        { return s.cfg }
func (s *parameterCorrectnessScorer) RequiresContext() bool { return false }

func (s *parameterCorrectnessScorer) Score(_ context.Context, in Input) (float64, string, error) {
	if len(in.ToolCalls) == 0 {
		return 0, "", ErrNotApplicable
	}

	valid := 0
	var bad []string
	for _, tc := range in.ToolCalls {
		if err := s.registry.ValidateArgs(tc.Name, tc.Args); err != nil {
			bad = append(bad, fmt.Sprintf("%s (%v)", tc.Name, err))
			continue
		}
		valid++
	}

	score := float64(valid) / float64(len(in.ToolCalls))
	rationale := fmt.Sprintf("%d of %d tool calls had valid arguments", valid, len(in.ToolCalls))
	if len(bad) > 0 {
		rationale += fmt.Sprintf("; invalid: %v", bad)
	}
	return score, rationale, nil
}

// metadataCeilingScorer scores a numeric metadata field against a hard
// ceiling. Lower is better.
type metadataCeilingScorer struct {
	name  string
	key   string
	unit  string
	scale float64
	cfg   Config
}

// NewLatencyScorer scores the turn's response latency in seconds against a
// ceiling. The measurement comes from the "latency_ms" metadata entry.
func NewLatencyScorer(cfg Config) Scorer {
	applyDefaults(&cfg, 10.0, evaluation.LowerIsBetter)
	return &metadataCeilingScorer{
		name:  MetricResponseLatency,
		key:   MetadataLatencyMS,
		unit:  "s",
		scale: 1.0 / 1000,
		cfg:   cfg,
	}
}

// NewTokenCountScorer scores the turn's total token usage against a
// ceiling. The measurement comes from the "total_tokens" metadata entry.
func NewTokenCountScorer(cfg Config) Scorer {
	applyDefaults(&cfg, 4096, evaluation.LowerIsBetter)
	return &metadataCeilingScorer{
		name:  MetricTokenCount,
		key:   MetadataTotalTokens,
		unit:  " tokens",
		scale: 1,
		cfg:   cfg,
	}
}

func (s *metadataCeilingScorer) Name() string          { return s.name }
func (s *metadataCeilingScorer) Config() Config        { return s.cfg }
func (s *metadataCeilingScorer) RequiresContext() bool { return false }

func (s *metadataCeilingScorer) Score(_ context.Context, in Input) (float64, string, error) {
	raw, ok := in.Metadata[s.key]
	if !ok {
		return 0, "", ErrNotApplicable
	}
	value, err := toFloat(raw)
	if err != nil {
		return 0, "", fmt.Errorf("%s metadata: %w", s.key, err)
	}

	score := value * s.scale
	return score, fmt.Sprintf("measured %.4g%s against ceiling %.4g%s", score, s.unit, s.cfg.Threshold, s.unit), nil
}

// stringSlice coerces []string or []any-of-string metadata values. Metadata
// that crossed a JSON round trip arrives as []any.
func stringSlice(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return t, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("expected string element, got %T", e)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected string list, got %T", v)
	}
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}
