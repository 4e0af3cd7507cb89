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

package docs

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prefix = "awslabsaws_documentation_mcp_server___"

// fakeCaller returns a canned result or error and records the request.
type fakeCaller struct {
	res   *mcp.CallToolResult
	err   error
	panic any

	name string
	args map[string]any
}

func (f *fakeCaller) CallTool(_ context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	f.name = name
	f.args = args
	if f.panic != nil {
		panic(f.panic)
	}
	return f.res, f.err
}

func TestSearchDocumentation_Request(t *testing.T) {
	fc := &fakeCaller{res: mcp.NewToolResultText(`[]`)}
	c := NewClient(fc, prefix)

	_, err := c.SearchDocumentation(context.Background(), "s3 getting started", 5)
	require.NoError(t, err)
	assert.Equal(t, prefix+"search_documentation", fc.name)
	assert.Equal(t, map[string]any{"search_phrase": "s3 getting started", "limit": 5}, fc.args)

	_, err = c.SearchDocumentation(context.Background(), "x", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultSearchLimit, fc.args["limit"])
}

func TestSearchDocumentation_Payloads(t *testing.T) {
	want := []Document{
		{"url": "https://docs.aws.amazon.com/s3/a", "title": "A", "rank_order": float64(1)},
		{"url": "https://docs.aws.amazon.com/s3/b", "title": "B", "rank_order": float64(2)},
	}

	tests := []struct {
		name string
		res  *mcp.CallToolResult
	}{
		{
			name: "json array text",
			res:  mcp.NewToolResultText(`[{"url":"https://docs.aws.amazon.com/s3/a","title":"A","rank_order":1},{"url":"https://docs.aws.amazon.com/s3/b","title":"B","rank_order":2}]`),
		},
		{
			name: "one object per text item",
			res: &mcp.CallToolResult{Content: []mcp.Content{
				mcp.NewTextContent(`{"url":"https://docs.aws.amazon.com/s3/a","title":"A","rank_order":1}`),
				mcp.NewTextContent(`{"url":"https://docs.aws.amazon.com/s3/b","title":"B","rank_order":2}`),
			}},
		},
		{
			name: "wrapped structured content",
			res: mcp.NewToolResultStructured(map[string]any{"result": []any{
				map[string]any{"url": "https://docs.aws.amazon.com/s3/a", "title": "A", "rank_order": float64(1)},
				map[string]any{"url": "https://docs.aws.amazon.com/s3/b", "title": "B", "rank_order": float64(2)},
			}}, "ignored"),
		},
		{
			name: "typed structured content",
			res: mcp.NewToolResultStructured([]struct {
				URL       string `json:"url"`
				Title     string `json:"title"`
				RankOrder int    `json:"rank_order"`
			}{
				{"https://docs.aws.amazon.com/s3/a", "A", 1},
				{"https://docs.aws.amazon.com/s3/b", "B", 2},
			}, "ignored"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(&fakeCaller{res: tt.res}, prefix)
			got, err := c.SearchDocumentation(context.Background(), "s3", 10)
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.Equal(t, "https://docs.aws.amazon.com/s3/a", got[0].URL())
			assert.Equal(t, "A", got[0].Title())
		})
	}
}

func TestSearchDocumentation_Failures(t *testing.T) {
	tests := []struct {
		name   string
		caller *fakeCaller
		is     error
	}{
		{"transport error", &fakeCaller{err: errors.New("connection refused")}, nil},
		{"remote error", &fakeCaller{res: mcp.NewToolResultError("rate limited")}, nil},
		{"not json", &fakeCaller{res: mcp.NewToolResultText("no results")}, ErrUnexpectedPayload},
		{"scalar", &fakeCaller{res: mcp.NewToolResultText(`42`)}, ErrUnexpectedPayload},
		{"nil result", &fakeCaller{}, ErrUnexpectedPayload},
		{"panic", &fakeCaller{panic: "boom"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.caller, prefix)
			got, err := c.SearchDocumentation(context.Background(), "s3", 10)
			require.Error(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestSearchDocumentation_RemoteErrorMessage(t *testing.T) {
	c := NewClient(&fakeCaller{res: mcp.NewToolResultError("rate limited")}, prefix)
	_, err := c.SearchDocumentation(context.Background(), "s3", 10)

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, prefix+"search_documentation", remote.Tool)
	assert.Equal(t, "rate limited", remote.Message)
}

func TestReadDocumentation(t *testing.T) {
	fc := &fakeCaller{res: mcp.NewToolResultText("# Getting started with Amazon S3")}
	c := NewClient(fc, prefix)

	got, err := c.ReadDocumentation(context.Background(), "https://docs.aws.amazon.com/s3/", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, "# Getting started with Amazon S3", got)
	assert.Equal(t, prefix+"read_documentation", fc.name)
	assert.Equal(t, map[string]any{
		"url":         "https://docs.aws.amazon.com/s3/",
		"max_length":  5000,
		"start_index": 0,
	}, fc.args)
}

func TestReadDocumentation_StructuredString(t *testing.T) {
	res := &mcp.CallToolResult{StructuredContent: map[string]any{"result": "page body"}}
	got, err := NewClient(&fakeCaller{res: res}, prefix).ReadDocumentation(context.Background(), "u", 100, 10)
	require.NoError(t, err)
	assert.Equal(t, "page body", got)
}

func TestReadDocumentation_Failure(t *testing.T) {
	c := NewClient(&fakeCaller{err: errors.New("timeout")}, prefix)

	got, err := c.ReadDocumentation(context.Background(), "u", 0, 0)
	require.Error(t, err)
	assert.Equal(t, "Error: timeout", got)
}

func TestGetRecommendations(t *testing.T) {
	fc := &fakeCaller{res: mcp.NewToolResultText(`[{"url":"https://docs.aws.amazon.com/s3/related","title":"Related","context":"Also read"}]`)}
	c := NewClient(fc, prefix)

	got, err := c.GetRecommendations(context.Background(), "https://docs.aws.amazon.com/s3/")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://docs.aws.amazon.com/s3/related", got[0].URL())
	assert.Equal(t, prefix+"recommend", fc.name)
	assert.Equal(t, map[string]any{"url": "https://docs.aws.amazon.com/s3/"}, fc.args)

	c = NewClient(&fakeCaller{err: errors.New("down")}, prefix)
	got, err = c.GetRecommendations(context.Background(), "u")
	assert.Error(t, err)
	assert.Equal(t, []Document{}, got)
}

func TestNilCaller(t *testing.T) {
	got, err := NewClient(nil, prefix).SearchDocumentation(context.Background(), "x", 1)
	assert.Error(t, err)
	assert.Empty(t, got)
}

type recordingObserver struct {
	ops  []string
	errs []error
}

func (r *recordingObserver) ObserveCall(op string, err error, _ float64) {
	r.ops = append(r.ops, op)
	r.errs = append(r.errs, err)
}

func TestObserver(t *testing.T) {
	obs := &recordingObserver{}
	fc := &fakeCaller{res: mcp.NewToolResultText(`[]`)}
	c := NewClient(fc, prefix, WithObserver(obs))

	_, _ = c.SearchDocumentation(context.Background(), "x", 1)
	fc.res, fc.err = nil, errors.New("down")
	_, _ = c.GetRecommendations(context.Background(), "u")

	assert.Equal(t, []string{OpSearch, OpRecommend}, obs.ops)
	assert.NoError(t, obs.errs[0])
	assert.Error(t, obs.errs[1])
}
