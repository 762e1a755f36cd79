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

package llmjudge

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ResponseParser extracts structured data from judge responses.
type ResponseParser struct {
	scorePattern     *regexp.Regexp
	rationaleMarkers []string
}

// NewResponseParser creates a new response parser.
func NewResponseParser() *ResponseParser {
	return &ResponseParser{
		// Matches "Score: 0.85", "score = 0.3", "Rating: 1", "Score: .85"
		scorePattern:     regexp.MustCompile(`(?i)(?:score|rating)[:=\s]+(\d*\.?\d+)`),
		rationaleMarkers: []string{"Rationale:", "Reasoning:", "Explanation:", "Justification:"},
	}
}

// ParseScore extracts a numeric score from the judge response and clamps it
// to [0, 1]. Scores on a 0-10 scale are normalized down.
func (p *ResponseParser) ParseScore(response string) (float64, error) {
	matches := p.scorePattern.FindStringSubmatch(response)
	if len(matches) < 2 {
		return 0, fmt.Errorf("no score found in response %q", truncate(response, 120))
	}

	score, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("parsing score %q: %w", matches[1], err)
	}

	// Some judges answer on a 0-10 scale despite instructions.
	if score > 1 && score <= 10 {
		score /= 10
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}

// ParseRationale extracts the judge's reasoning, falling back to the full
// response when no marker is present.
func (p *ResponseParser) ParseRationale(response string) string {
	for _, marker := range p.rationaleMarkers {
		if idx := strings.Index(response, marker); idx != -1 {
			return strings.TrimSpace(response[idx+len(marker):])
		}
	}
	return strings.TrimSpace(response)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
