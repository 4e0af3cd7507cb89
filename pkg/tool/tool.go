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

// Package tool defines the tools a task executor can offer to a model.
//
// A tool is registered once, by name, into a Registry. The executor reads
// the registry's definitions to advertise tools and dispatches each model
// tool call back through Registry.Call.
//
//	reg := tool.NewRegistry()
//	t, _ := functiontool.New(functiontool.Config{...}, handler)
//	_ = reg.Register(t)
package tool

import (
	"context"
)

// Tool is the base interface for a named tool.
type Tool interface {
	// Name returns the unique name of the tool.
	Name() string

	// Description tells the model when to use the tool.
	Description() string
}

// CallableTool is a tool that executes synchronously.
type CallableTool interface {
	Tool

	// Call executes the tool. args are the decoded JSON arguments produced
	// by the model.
	Call(ctx context.Context, args map[string]any) (map[string]any, error)

	// Schema returns the JSON schema of the tool parameters, or nil.
	Schema() map[string]any
}

// Definition is a tool as advertised to a model.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToDefinition converts a tool to a Definition.
func ToDefinition(t Tool) Definition {
	def := Definition{
		Name:        t.Name(),
		Description: t.Description(),
	}
	if ct, ok := t.(CallableTool); ok {
		def.Parameters = ct.Schema()
	}
	if def.Parameters == nil {
		def.Parameters = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return def
}

// ToolCall is a model's request to invoke a tool.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any

	// Signature is an opaque provider token that must be echoed back with
	// the call on the next turn. Only Gemini sets it.
	Signature []byte
}

// ToolResult is the outcome of a ToolCall, fed back to the model.
type ToolResult struct {
	ToolCallID string
	Name       string
	Content    string
	IsError    bool
}
