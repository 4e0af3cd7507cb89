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

package llmagent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kadirpekel/docagent/pkg/instruction"
	"github.com/kadirpekel/docagent/pkg/model"
	"github.com/kadirpekel/docagent/pkg/task"
	"github.com/kadirpekel/docagent/pkg/tool"
)

// Metadata keys of a task.Output produced by the executor.
const (
	MetaTaskID     = "task_id"
	MetaModel      = "model"
	MetaProvider   = "provider"
	MetaIterations = "iterations"
	MetaToolCalls  = "tool_calls"
	MetaUsage      = "usage"
	MetaStartedAt  = "started_at"
	MetaFinishedAt = "finished_at"
	MetaTruncated  = "truncated"
)

// flowState accumulates what one task run has done so far.
type flowState struct {
	messages   []model.Message
	iterations int
	toolCalls  []string
	usage      model.Usage
	lastText   string
}

// ProcessTask runs the tool-calling loop for t and returns the final answer.
func (a *Agent) ProcessTask(ctx context.Context, t *task.Task) (*task.Output, error) {
	if t == nil {
		return nil, fmt.Errorf("task is required")
	}

	system, err := instruction.Inject(instruction.TaskState(t), a.instruction)
	if err != nil {
		return nil, fmt.Errorf("failed to render instruction: %w", err)
	}

	started := time.Now().UTC()
	state := &flowState{
		messages: []model.Message{model.UserMessage(a.buildPrompt(t))},
	}

	log := slog.With("task", t.Name, "task_id", t.ID, "model", a.model.Name())
	log.Info("Executing task")

	defs := a.tools.Definitions()
	truncated := true
	for state.iterations < a.maxIterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := a.model.GenerateContent(ctx, &model.Request{
			SystemInstruction: system,
			Messages:          state.messages,
			Tools:             defs,
			Config:            a.genConfig.Clone(),
		})
		if err != nil {
			return nil, fmt.Errorf("model turn %d failed: %w", state.iterations+1, err)
		}
		if resp == nil {
			return nil, fmt.Errorf("model turn %d returned no response", state.iterations+1)
		}
		state.iterations++
		a.recordUsage(state, resp.Usage)

		if resp.Text != "" {
			state.lastText = resp.Text
		}
		state.messages = append(state.messages, resp.ToMessage())

		if !resp.HasToolCalls() {
			truncated = false
			break
		}

		log.Debug("Model requested tools", "iteration", state.iterations, "count", len(resp.ToolCalls))
		results, err := a.executeTools(ctx, resp.ToolCalls)
		if err != nil {
			return nil, err
		}
		for _, tc := range resp.ToolCalls {
			state.toolCalls = append(state.toolCalls, tc.Name)
		}
		state.messages = append(state.messages, model.ToolMessage(results...))
	}

	if truncated {
		log.Warn("Iteration limit reached", "max_iterations", a.maxIterations)
	}
	log.Info("Task executed", "iterations", state.iterations, "tool_calls", len(state.toolCalls))

	return &task.Output{
		Output:   state.lastText,
		Metadata: a.metadata(t, state, started, truncated),
	}, nil
}

func (a *Agent) recordUsage(state *flowState, usage *model.Usage) {
	if usage == nil {
		return
	}
	state.usage.Add(usage)
	if a.observer != nil {
		a.observer.ObserveUsage(*usage)
	}
}

// executeTools runs the calls of one turn concurrently. Results keep the
// order of calls. A failing tool becomes an error result for the model;
// only cancellation aborts the turn.
func (a *Agent) executeTools(ctx context.Context, calls []tool.ToolCall) ([]tool.ToolResult, error) {
	results := make([]tool.ToolResult, len(calls))

	var g errgroup.Group
	g.SetLimit(a.maxConcurrent)
	for i, tc := range calls {
		g.Go(func() error {
			results[i] = a.callTool(ctx, tc)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (a *Agent) callTool(ctx context.Context, tc tool.ToolCall) tool.ToolResult {
	res := tool.ToolResult{ToolCallID: tc.ID, Name: tc.Name}

	start := time.Now()
	out, err := a.tools.Call(ctx, tc.Name, tc.Args)
	if err != nil {
		slog.Warn("Tool call failed", "tool", tc.Name, "call_id", tc.ID, "error", err)
		res.Content = fmt.Sprintf("Error: %v", err)
		res.IsError = true
		return res
	}
	slog.Debug("Tool call completed", "tool", tc.Name, "call_id", tc.ID, "duration", time.Since(start))

	res.Content = formatToolResult(out)
	if _, failed := out["error"]; failed {
		res.IsError = true
	}
	return res
}

// formatToolResult encodes a tool result as JSON for the model.
func formatToolResult(result map[string]any) string {
	if result == nil {
		return "{}"
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(data)
}

func (a *Agent) metadata(t *task.Task, state *flowState, started time.Time, truncated bool) map[string]any {
	toolCalls := state.toolCalls
	if toolCalls == nil {
		toolCalls = []string{}
	}
	return map[string]any{
		MetaTaskID:     t.ID,
		MetaModel:      a.model.Name(),
		MetaProvider:   string(a.model.Provider()),
		MetaIterations: state.iterations,
		MetaToolCalls:  toolCalls,
		MetaUsage: map[string]any{
			"prompt_tokens":     state.usage.PromptTokens,
			"completion_tokens": state.usage.CompletionTokens,
			"total_tokens":      state.usage.TotalTokens,
		},
		MetaStartedAt:  started.Format(time.RFC3339),
		MetaFinishedAt: time.Now().UTC().Format(time.RFC3339),
		MetaTruncated:  truncated,
	}
}
