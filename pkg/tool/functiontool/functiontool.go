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

// Package functiontool builds tools from typed Go functions. The parameter
// schema is generated from the Args struct tags.
//
//	type SearchArgs struct {
//	    Phrase string `json:"search_phrase" jsonschema:"required,description=Search phrase"`
//	    Limit  int    `json:"limit,omitempty" jsonschema:"description=Max results,default=10"`
//	}
//
//	t, err := functiontool.New(
//	    functiontool.Config{Name: "search", Description: "Search documents"},
//	    func(ctx context.Context, args SearchArgs) (map[string]any, error) {
//	        ...
//	    },
//	)
//
// Defaults in the jsonschema tag are advertised to the model only. The
// handler must apply them to zero values itself.
package functiontool

import (
	"context"
	"fmt"

	"github.com/kadirpekel/docagent/pkg/tool"
)

// Config names and describes a function tool. Both fields are required.
type Config struct {
	Name        string
	Description string
}

// Func is the handler signature of a function tool.
type Func[Args any] func(context.Context, Args) (map[string]any, error)

// New creates a CallableTool from a typed function.
func New[Args any](cfg Config, fn Func[Args]) (tool.CallableTool, error) {
	return NewWithValidation(cfg, fn, nil)
}

// NewWithValidation is New with a validation step that runs on the decoded
// arguments before fn. A nil validate skips the step.
func NewWithValidation[Args any](cfg Config, fn Func[Args], validate func(Args) error) (tool.CallableTool, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("tool name is required")
	}
	if cfg.Description == "" {
		return nil, fmt.Errorf("tool description is required")
	}
	if fn == nil {
		return nil, fmt.Errorf("tool %s: handler is required", cfg.Name)
	}

	schema, err := generateSchema[Args]()
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema for %s: %w", cfg.Name, err)
	}

	return &functionTool[Args]{
		config:   cfg,
		fn:       fn,
		validate: validate,
		schema:   schema,
	}, nil
}

type functionTool[Args any] struct {
	config   Config
	fn       Func[Args]
	validate func(Args) error
	schema   map[string]any
}

func (t *functionTool[Args]) Name() string {
	return t.config.Name
}

func (t *functionTool[Args]) Description() string {
	return t.config.Description
}

func (t *functionTool[Args]) Schema() map[string]any {
	return t.schema
}

// Call decodes args into Args, validates them and runs the handler.
func (t *functionTool[Args]) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	var typed Args
	if err := decodeArgs(args, &typed); err != nil {
		return nil, fmt.Errorf("invalid arguments for %s: %w", t.config.Name, err)
	}

	if t.validate != nil {
		if err := t.validate(typed); err != nil {
			return nil, fmt.Errorf("validation failed for %s: %w", t.config.Name, err)
		}
	}

	return t.fn(ctx, typed)
}

var _ tool.CallableTool = (*functionTool[struct{}])(nil)
