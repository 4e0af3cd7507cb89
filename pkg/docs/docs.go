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

// Package docs proxies the AWS documentation MCP server.
//
// Each proxy forwards one request to a fixed remote operation and returns
// the remote payload unchanged. On failure the proxy logs the error and
// returns a placeholder together with the error: an empty slice for the
// list operations and "Error: <message>" for ReadDocumentation. Callers
// that only want the placeholder may ignore the error.
package docs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
)

// Remote operation names, without the server prefix.
const (
	OpSearch    = "search_documentation"
	OpRead      = "read_documentation"
	OpRecommend = "recommend"
)

// Request defaults.
const (
	DefaultSearchLimit = 10
	DefaultMaxLength   = 5000
	DefaultStartIndex  = 0
)

// ErrUnexpectedPayload marks a remote response that cannot be decoded into
// the expected shape.
var ErrUnexpectedPayload = errors.New("unexpected payload from documentation server")

// Caller invokes a named remote operation.
type Caller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)
}

// Document is one search or recommendation record.
type Document map[string]any

// URL returns the record's url, or "".
func (d Document) URL() string {
	s, _ := d["url"].(string)
	return s
}

// Title returns the record's title, or "".
func (d Document) Title() string {
	s, _ := d["title"].(string)
	return s
}

// Observer is notified after every remote call.
type Observer interface {
	ObserveCall(op string, err error, seconds float64)
}

// Client proxies the documentation server's operations.
type Client struct {
	caller   Caller
	prefix   string
	observer Observer
}

// Option configures a Client.
type Option func(*Client)

// WithObserver reports call outcomes to o.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient creates a Client. prefix is prepended to every operation name.
func NewClient(caller Caller, prefix string, opts ...Option) *Client {
	c := &Client{caller: caller, prefix: prefix}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ToolName returns the remote name of op.
func (c *Client) ToolName(op string) string {
	return c.prefix + op
}

// SearchDocumentation searches the documentation. A limit <= 0 means
// DefaultSearchLimit.
func (c *Client) SearchDocumentation(ctx context.Context, phrase string, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	res, err := c.call(ctx, OpSearch, map[string]any{
		"search_phrase": phrase,
		"limit":         limit,
	})
	if err != nil {
		slog.Error("Error searching AWS documentation", "phrase", phrase, "error", err)
		return []Document{}, err
	}

	docs, err := decodeDocuments(res)
	if err != nil {
		slog.Error("Error searching AWS documentation", "phrase", phrase, "error", err)
		return []Document{}, err
	}
	return docs, nil
}

// ReadDocumentation reads a documentation page as markdown. A maxLength <= 0
// means DefaultMaxLength; a negative startIndex means 0.
func (c *Client) ReadDocumentation(ctx context.Context, url string, maxLength, startIndex int) (string, error) {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	if startIndex < 0 {
		startIndex = DefaultStartIndex
	}
	res, err := c.call(ctx, OpRead, map[string]any{
		"url":         url,
		"max_length":  maxLength,
		"start_index": startIndex,
	})
	if err != nil {
		slog.Error("Error reading AWS documentation", "url", url, "error", err)
		return "Error: " + err.Error(), err
	}

	content, err := decodeText(res)
	if err != nil {
		slog.Error("Error reading AWS documentation", "url", url, "error", err)
		return "Error: " + err.Error(), err
	}
	return content, nil
}

// GetRecommendations returns pages related to url.
func (c *Client) GetRecommendations(ctx context.Context, url string) ([]Document, error) {
	res, err := c.call(ctx, OpRecommend, map[string]any{"url": url})
	if err != nil {
		slog.Error("Error getting AWS documentation recommendations", "url", url, "error", err)
		return []Document{}, err
	}

	docs, err := decodeDocuments(res)
	if err != nil {
		slog.Error("Error getting AWS documentation recommendations", "url", url, "error", err)
		return []Document{}, err
	}
	return docs, nil
}

// RemoteError is a tool result the server flagged with isError.
type RemoteError struct {
	Tool    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Tool, e.Message)
}

// call invokes op and converts panics and isError results into errors.
func (c *Client) call(ctx context.Context, op string, args map[string]any) (res *mcp.CallToolResult, err error) {
	name := c.ToolName(op)
	if c.observer != nil {
		start := timeNow()
		defer func() {
			c.observer.ObserveCall(op, err, timeNow().Sub(start).Seconds())
		}()
	}

	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("call %s panicked: %v", name, r)
		}
	}()

	if c.caller == nil {
		return nil, fmt.Errorf("no documentation client configured")
	}

	res, err = c.caller.CallTool(ctx, name, args)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("%w: empty response from %s", ErrUnexpectedPayload, name)
	}
	if res.IsError {
		msg := joinText(res)
		if msg == "" {
			msg = "unknown error"
		}
		return nil, &RemoteError{Tool: name, Message: msg}
	}
	return res, nil
}
