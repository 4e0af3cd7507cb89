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

// Package task defines the unit of work processed by the agent and the
// store that persists its result.
//
// Lifecycle:
//
//	created -> (enriched) -> executed -> persisted
//
// A Task is owned by a single goroutine. Its Context may gain records
// before execution; nothing mutates it afterwards.
package task

import (
	"github.com/google/uuid"
)

// ContextTypeAWSDocumentation tags records prefetched from the
// documentation server.
const ContextTypeAWSDocumentation = "aws_documentation"

// Task is a named unit of work with free-form parameters.
type Task struct {
	// ID correlates log lines for a single run.
	ID string `json:"id"`

	// Name identifies the task and names its result file.
	Name string `json:"name"`

	// Description is shown to the model.
	Description string `json:"description"`

	// Parameters are the caller-supplied task inputs.
	Parameters map[string]any `json:"parameters"`

	// Context holds background records attached before execution.
	Context []ContextRecord `json:"context,omitempty"`
}

// ContextRecord is a tagged piece of background content.
type ContextRecord struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

// Output is the executor's result for one task.
type Output struct {
	Output   any            `json:"output"`
	Metadata map[string]any `json:"metadata"`
}

// New creates a task with a fresh ID. A nil params map is replaced by an
// empty one.
func New(name, description string, params map[string]any) *Task {
	if params == nil {
		params = map[string]any{}
	}
	return &Task{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Parameters:  params,
	}
}

// AddContext appends a context record.
func (t *Task) AddContext(rec ContextRecord) {
	t.Context = append(t.Context, rec)
}

// StringParam returns a non-empty string parameter.
func (t *Task) StringParam(key string) (string, bool) {
	v, ok := t.Parameters[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
