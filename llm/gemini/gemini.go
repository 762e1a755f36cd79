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

// Package gemini provides a Gemini-backed llm.Model.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/loanwise/agenteval/llm"
)

var _ llm.Model = (*Model)(nil)

type Model struct {
	client *genai.Client
	name   string
}

// NewModel creates a Gemini model client for the given model name.
func NewModel(ctx context.Context, model string, cfg *genai.ClientConfig) (*Model, error) {
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Model{name: model, client: client}, nil
}

func (m *Model) Name() string {
	return m.name
}

func (m *Model) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if m.client == nil {
		return nil, fmt.Errorf("model uninitialized")
	}
	resp, err := m.client.Models.GenerateContent(ctx, m.name, req.Contents, req.GenerateConfig)
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("empty response")
	}
	return &llm.Response{Content: resp.Candidates[0].Content}, nil
}
