// Copyright 2025 Kadir Pekel
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

package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/kadirpekel/docagent/pkg/model"
	"github.com/kadirpekel/docagent/pkg/tool"
)

// ScriptedLLM replays Responses in order, one per GenerateContent call.
// Once the script runs out it answers with FinalText and no tool calls.
type ScriptedLLM struct {
	ModelName string
	Responses []*model.Response
	FinalText string

	// Err, when set, is returned by every call.
	Err error

	mu       sync.Mutex
	requests []model.Request
	closed   bool
}

// NewScriptedLLM returns a ScriptedLLM replaying responses.
func NewScriptedLLM(responses ...*model.Response) *ScriptedLLM {
	return &ScriptedLLM{ModelName: "scripted", Responses: responses, FinalText: "done"}
}

// TextResponse is a final answer.
func TextResponse(text string) *model.Response {
	return &model.Response{
		Text:         text,
		FinishReason: model.FinishReasonStop,
		Usage:        &model.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

// ToolCallResponse requests the given calls.
func ToolCallResponse(calls ...tool.ToolCall) *model.Response {
	return &model.Response{
		ToolCalls:    calls,
		FinishReason: model.FinishReasonToolCalls,
		Usage:        &model.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

func (s *ScriptedLLM) Name() string             { return s.ModelName }
func (s *ScriptedLLM) Provider() model.Provider { return model.ProviderUnknown }

func (s *ScriptedLLM) GenerateContent(ctx context.Context, req *model.Request) (*model.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("scripted llm is closed")
	}

	snapshot := *req
	snapshot.Messages = append([]model.Message(nil), req.Messages...)
	s.requests = append(s.requests, snapshot)

	if s.Err != nil {
		return nil, s.Err
	}

	idx := len(s.requests) - 1
	if idx < len(s.Responses) {
		return s.Responses[idx], nil
	}
	return TextResponse(s.FinalText), nil
}

func (s *ScriptedLLM) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Requests returns the requests received so far.
func (s *ScriptedLLM) Requests() []model.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Request(nil), s.requests...)
}

var _ model.LLM = (*ScriptedLLM)(nil)
