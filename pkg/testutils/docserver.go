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

// Package testutils provides fakes shared by package tests: an in-process
// documentation MCP server and a scripted language model.
package testutils

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DefaultToolPrefix matches config.DefaultToolPrefix.
const DefaultToolPrefix = "awslabsaws_documentation_mcp_server___"

// DocCall records one request received by a DocServer.
type DocCall struct {
	Tool string
	Args map[string]any
}

// DocServer fakes the AWS documentation MCP server. Nil handlers answer
// with empty results. A handler error becomes an isError tool result.
type DocServer struct {
	Prefix string

	// Structured makes list tools answer with structuredContent
	// {"result": [...]} in addition to the text fallback.
	Structured bool

	Search    func(phrase string, limit int) ([]map[string]any, error)
	Read      func(url string, maxLength, startIndex int) (string, error)
	Recommend func(url string) ([]map[string]any, error)

	mu    sync.Mutex
	calls []DocCall
}

// Calls returns the recorded requests in arrival order.
func (d *DocServer) Calls() []DocCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]DocCall(nil), d.calls...)
}

// CallsTo returns the recorded requests for one operation, e.g. "read_documentation".
func (d *DocServer) CallsTo(op string) []DocCall {
	var out []DocCall
	for _, c := range d.Calls() {
		if c.Tool == d.prefix()+op {
			out = append(out, c)
		}
	}
	return out
}

func (d *DocServer) prefix() string {
	if d.Prefix == "" {
		return DefaultToolPrefix
	}
	return d.Prefix
}

func (d *DocServer) record(req mcp.CallToolRequest) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, DocCall{Tool: req.Params.Name, Args: req.GetArguments()})
}

// MCPServer builds the mcp-go server exposing the three operations.
func (d *DocServer) MCPServer() *server.MCPServer {
	s := server.NewMCPServer("aws-documentation-fake", "0.0.1",
		server.WithToolCapabilities(false),
	)

	s.AddTool(mcp.NewTool(d.prefix()+"search_documentation",
		mcp.WithDescription("Search AWS documentation"),
		mcp.WithString("search_phrase", mcp.Required()),
		mcp.WithNumber("limit", mcp.DefaultNumber(10)),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		d.record(req)
		var results []map[string]any
		if d.Search != nil {
			var err error
			results, err = d.Search(req.GetString("search_phrase", ""), req.GetInt("limit", 10))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}
		return d.listResult(results)
	})

	s.AddTool(mcp.NewTool(d.prefix()+"read_documentation",
		mcp.WithDescription("Read an AWS documentation page"),
		mcp.WithString("url", mcp.Required()),
		mcp.WithNumber("max_length", mcp.DefaultNumber(5000)),
		mcp.WithNumber("start_index", mcp.DefaultNumber(0)),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		d.record(req)
		content := ""
		if d.Read != nil {
			var err error
			content, err = d.Read(req.GetString("url", ""), req.GetInt("max_length", 5000), req.GetInt("start_index", 0))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}
		return mcp.NewToolResultText(content), nil
	})

	s.AddTool(mcp.NewTool(d.prefix()+"recommend",
		mcp.WithDescription("Recommend related AWS documentation pages"),
		mcp.WithString("url", mcp.Required()),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		d.record(req)
		var results []map[string]any
		if d.Recommend != nil {
			var err error
			results, err = d.Recommend(req.GetString("url", ""))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}
		return d.listResult(results)
	})

	return s
}

func (d *DocServer) listResult(results []map[string]any) (*mcp.CallToolResult, error) {
	if results == nil {
		results = []map[string]any{}
	}
	text, err := json.Marshal(results)
	if err != nil {
		return nil, err
	}
	if d.Structured {
		return mcp.NewToolResultStructured(map[string]any{"result": results}, string(text)), nil
	}
	return mcp.NewToolResultText(string(text)), nil
}
