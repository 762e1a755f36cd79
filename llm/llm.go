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

// Package llm defines the model boundary used by the LLM judge.
package llm

import (
	"context"

	"google.golang.org/genai"
)

// Model is a text generation model. The judge only needs unary generation.
type Model interface {
	Name() string
	Generate(ctx context.Context, req *Request) (*Response, error)
}

type Request struct {
	Contents       []*genai.Content
	GenerateConfig *genai.GenerateContentConfig
}

type Response struct {
	Content *genai.Content
}

// Text returns the concatenated text parts of the response content.
func (r *Response) Text() string {
	if r == nil || r.Content == nil {
		return ""
	}
	var out string
	for _, part := range r.Content.Parts {
		out += part.Text
	}
	return out
}
