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

// Package docstool exposes the documentation proxies as model tools.
package docstool

import (
	"context"
	"errors"
	"strings"

	"github.com/kadirpekel/docagent/pkg/docs"
	"github.com/kadirpekel/docagent/pkg/tool"
	"github.com/kadirpekel/docagent/pkg/tool/functiontool"
)

// Tool names advertised to the model.
const (
	SearchToolName    = "search_aws_documentation"
	ReadToolName      = "read_aws_documentation"
	RecommendToolName = "get_aws_documentation_recommendations"
)

// Proxy is the subset of docs.Client used by the tools.
type Proxy interface {
	SearchDocumentation(ctx context.Context, phrase string, limit int) ([]docs.Document, error)
	ReadDocumentation(ctx context.Context, url string, maxLength, startIndex int) (string, error)
	GetRecommendations(ctx context.Context, url string) ([]docs.Document, error)
}

// SearchArgs are the arguments of search_aws_documentation.
type SearchArgs struct {
	SearchPhrase string `json:"search_phrase" jsonschema:"required,description=The search phrase to use"`
	Limit        int    `json:"limit,omitempty" jsonschema:"description=Maximum number of results to return,default=10,minimum=1"`
}

// ReadArgs are the arguments of read_aws_documentation.
type ReadArgs struct {
	URL        string `json:"url" jsonschema:"required,description=URL of the AWS documentation page"`
	MaxLength  int    `json:"max_length,omitempty" jsonschema:"description=Maximum content length to return,default=5000,minimum=1"`
	StartIndex int    `json:"start_index,omitempty" jsonschema:"description=Starting character index for pagination,default=0,minimum=0"`
}

// RecommendArgs are the arguments of get_aws_documentation_recommendations.
type RecommendArgs struct {
	URL string `json:"url" jsonschema:"required,description=URL of the AWS documentation page"`
}

// Tools builds the three documentation tools over p.
func Tools(p Proxy) ([]tool.CallableTool, error) {
	search, err := functiontool.NewWithValidation(
		functiontool.Config{
			Name:        SearchToolName,
			Description: "Search AWS documentation. Returns a list of results, each with a url and title.",
		},
		func(ctx context.Context, args SearchArgs) (map[string]any, error) {
			results, err := p.SearchDocumentation(ctx, args.SearchPhrase, args.Limit)
			return withError(map[string]any{"results": results}, err), nil
		},
		func(args SearchArgs) error {
			return requireNonEmpty("search_phrase", args.SearchPhrase)
		},
	)
	if err != nil {
		return nil, err
	}

	read, err := functiontool.NewWithValidation(
		functiontool.Config{
			Name:        ReadToolName,
			Description: "Read an AWS documentation page and return its content as markdown. Use start_index to page through long documents.",
		},
		func(ctx context.Context, args ReadArgs) (map[string]any, error) {
			content, err := p.ReadDocumentation(ctx, args.URL, args.MaxLength, args.StartIndex)
			return withError(map[string]any{"content": content}, err), nil
		},
		func(args ReadArgs) error {
			return requireNonEmpty("url", args.URL)
		},
	)
	if err != nil {
		return nil, err
	}

	recommend, err := functiontool.NewWithValidation(
		functiontool.Config{
			Name:        RecommendToolName,
			Description: "Get recommendations for AWS documentation pages related to the given page.",
		},
		func(ctx context.Context, args RecommendArgs) (map[string]any, error) {
			recs, err := p.GetRecommendations(ctx, args.URL)
			return withError(map[string]any{"recommendations": recs}, err), nil
		},
		func(args RecommendArgs) error {
			return requireNonEmpty("url", args.URL)
		},
	)
	if err != nil {
		return nil, err
	}

	return []tool.CallableTool{search, read, recommend}, nil
}

// Register adds the documentation tools to reg.
func Register(reg *tool.Registry, p Proxy) error {
	tools, err := Tools(p)
	if err != nil {
		return err
	}
	return reg.Register(tools...)
}

// withError keeps the placeholder result and tells the model the call failed.
func withError(result map[string]any, err error) map[string]any {
	if err != nil {
		result["error"] = err.Error()
	}
	return result
}

func requireNonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(field + " is required")
	}
	return nil
}
