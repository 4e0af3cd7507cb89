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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/docagent/pkg/agent"
	"github.com/kadirpekel/docagent/pkg/docs"
	"github.com/kadirpekel/docagent/pkg/testutils"
	"github.com/kadirpekel/docagent/pkg/tool/mcptoolset"
)

type harness struct {
	srv    *testutils.DocServer
	llm    *testutils.ScriptedLLM
	stdout bytes.Buffer
	stderr bytes.Buffer
}

// newHarness switches to a temporary working directory and wires an
// in-process documentation server and a scripted model.
func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("LOG_FILE", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	return &harness{
		srv: &testutils.DocServer{},
		llm: testutils.NewScriptedLLM(),
	}
}

func (h *harness) run(t *testing.T, args ...string) int {
	t.Helper()
	ts := mcptoolset.NewInProcess("docs", h.srv.MCPServer())
	t.Cleanup(func() { _ = ts.Close() })
	return run(context.Background(), args, &h.stdout, &h.stderr,
		agent.WithCaller(ts), agent.WithLLM(h.llm))
}

func readResult(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var res map[string]any
	require.NoError(t, json.Unmarshal(data, &res))
	return res
}

func TestRun_DefaultTask(t *testing.T) {
	h := newHarness(t)
	h.llm.FinalText = "Use change sets."

	require.Equal(t, 0, h.run(t))

	res := readResult(t, filepath.Join("output", "aws_documentation_search_result.json"))
	assert.Equal(t, "aws_documentation_search", res["task"])
	assert.Equal(t, "Use change sets.", res["output"])
	assert.Contains(t, res, "metadata")

	assert.JSONEq(t, `{"output": "Use change sets."}`, h.stdout.String())

	reqs := h.llm.Requests()
	require.NotEmpty(t, reqs)
	prompt := reqs[0].Messages[0].Text
	assert.Contains(t, prompt, "Task: aws_documentation_search")
	assert.Contains(t, prompt, "Description: Search AWS documentation for CloudFormation")
	assert.Contains(t, prompt, `"search_phrase": "CloudFormation best practices"`)
	assert.Empty(t, h.srv.Calls(), "no enrichment without aws_service")
}

func TestRun_TaskWithService(t *testing.T) {
	h := newHarness(t)
	h.srv.Search = func(string, int) ([]map[string]any, error) {
		return []map[string]any{{"url": "http://x/s3"}}, nil
	}
	h.srv.Read = func(string, int, int) (string, error) {
		return "Amazon S3 getting started", nil
	}

	require.Equal(t, 0, h.run(t, "--task", "foo", "--params", `{"aws_service": "s3"}`))

	read := h.srv.CallsTo(docs.OpRead)
	require.Len(t, read, 1)
	assert.Equal(t, "http://x/s3", read[0].Args["url"])

	// The record is part of the first prompt, so it was attached before execution.
	prompt := h.llm.Requests()[0].Messages[0].Text
	assert.Contains(t, prompt, "Description: Running task foo")
	assert.Contains(t, prompt, "[1] aws_documentation (source: http://x/s3)")
	assert.Contains(t, prompt, "Amazon S3 getting started")

	res := readResult(t, filepath.Join("output", "foo_result.json"))
	assert.Equal(t, "foo", res["task"])
}

func TestRun_InvalidParams(t *testing.T) {
	for _, params := range []string{"not-json", `["s3"]`, "null", `"s3"`, "42"} {
		t.Run(params, func(t *testing.T) {
			h := newHarness(t)

			assert.Equal(t, 1, h.run(t, "--params", params))
			assert.Contains(t, h.stderr.String(), "Invalid JSON in task parameters")
			assert.Empty(t, h.stdout.String())
			assert.Empty(t, h.llm.Requests())

			_, err := os.Stat("output")
			assert.True(t, os.IsNotExist(err), "no output written")
		})
	}
}

func TestRun_DefaultTaskKeepsFixedParams(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, h.run(t, "--params", `{"aws_service": "s3"}`))

	assert.Empty(t, h.srv.Calls(), "default task is never enriched")
	prompt := h.llm.Requests()[0].Messages[0].Text
	assert.Contains(t, prompt, `"search_phrase": "CloudFormation best practices"`)
	assert.NotContains(t, prompt, "aws_service")

	_, err := os.Stat(filepath.Join("output", "aws_documentation_search_result.json"))
	assert.NoError(t, err)
}

func TestParseParams(t *testing.T) {
	params, err := parseParams("")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, params)

	params, err = parseParams(`{"aws_service": "s3", "limit": 3}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"aws_service": "s3", "limit": 3.0}, params)

	_, err = parseParams("null")
	assert.ErrorContains(t, err, "must be a JSON object, got null")

	_, err = parseParams(`[1]`)
	assert.ErrorContains(t, err, "got array")
}

func TestRun_ConfigFile(t *testing.T) {
	h := newHarness(t)
	cfg := "output_dir: results\nmetrics_file: docagent.prom\n"
	require.NoError(t, os.WriteFile("config.yaml", []byte(cfg), 0o644))

	require.Equal(t, 0, h.run(t, "-c", "config.yaml", "--task", "bar"))

	res := readResult(t, filepath.Join("results", "bar_result.json"))
	assert.Equal(t, "bar", res["task"])

	metrics, err := os.ReadFile("docagent.prom")
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `docagent_tasks_total{status="success"} 1`)
}

func TestRun_BadConfigFallsBackToDefaults(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile("config.yaml", []byte("output_dir: [unterminated"), 0o644))

	require.Equal(t, 0, h.run(t, "--config", "config.yaml"))

	_, err := os.Stat(filepath.Join("output", "aws_documentation_search_result.json"))
	assert.NoError(t, err)
}

func TestRun_TaskFailure(t *testing.T) {
	h := newHarness(t)
	h.llm.Err = errors.New("rate limited")

	assert.Equal(t, 1, h.run(t, "--task", "foo"))
	assert.Contains(t, h.stderr.String(), "rate limited")

	_, err := os.Stat(filepath.Join("output", "foo_result.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_LogFile(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 1, h.run(t, "--params", "{", "--log-file", "docagent.log"))

	data, err := os.ReadFile("docagent.log")
	require.NoError(t, err)
	assert.Contains(t, string(data), "Invalid JSON in task parameters")
}

func TestRun_Version(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 0, h.run(t, "--version"))
	assert.Contains(t, h.stdout.String(), "docagent ")
}

func TestRun_UnknownFlag(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 1, h.run(t, "--no-such-flag"))
	assert.NotEmpty(t, h.stderr.String())
}
