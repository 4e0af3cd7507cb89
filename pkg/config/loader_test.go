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

package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/docagent/pkg/logger"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
model: claude-sonnet-4-5
provider: anthropic
output_dir: results
tasks:
  - name: s3_lookup
    description: Look up S3 docs
    parameters:
      aws_service: string
mcp:
  timeout: 15s
agent:
  max_iterations: 3
  temperature: 0.2
`)

	cfg, err := LoadFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "claude-sonnet-4-5", cfg.Model)
	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "results", cfg.OutputDir)
	require.Len(t, cfg.Tasks, 1)
	assert.Equal(t, "s3_lookup", cfg.Tasks[0].Name)
	assert.Equal(t, map[string]string{"aws_service": "string"}, cfg.Tasks[0].Parameters)

	assert.Equal(t, 15*time.Second, cfg.MCP.Timeout)
	assert.Equal(t, TransportStdio, cfg.MCP.Transport)
	assert.Equal(t, DefaultMCPCommand, cfg.MCP.Command)
	assert.Equal(t, DefaultToolPrefix, cfg.MCP.ToolPrefix)

	assert.Equal(t, 3, cfg.Agent.MaxIterations)
	assert.Equal(t, DefaultMaxTokens, cfg.Agent.MaxTokens)
	require.NotNil(t, cfg.Agent.Temperature)
	assert.InDelta(t, 0.2, *cfg.Agent.Temperature, 1e-9)
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeConfig(t, `{"model": "gpt-4o-mini", "output_dir": "out"}`)

	cfg, err := LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "out", cfg.OutputDir)
}

func TestLoadFile_TasksNotMerged(t *testing.T) {
	path := writeConfig(t, "model: gpt-4o\n")

	cfg, err := LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Tasks)
	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
}

func TestLoadFile_ExpandsEnv(t *testing.T) {
	t.Setenv("DOCAGENT_TEST_KEY", "sk-from-env")
	t.Setenv("DOCAGENT_TEST_DIR", "")
	path := writeConfig(t, `
api_key: ${DOCAGENT_TEST_KEY}
output_dir: ${DOCAGENT_TEST_DIR:-fallback}
`)

	cfg, err := LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.APIKey)
	assert.Equal(t, "fallback", cfg.OutputDir)
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"scalar", "just a string"},
		{"invalid yaml", "model: [unclosed"},
		{"wrong type", "tasks: 42"},
		{"unknown provider", "provider: mistral"},
		{"http without url", "mcp:\n  transport: sse"},
		{"task without name", "tasks:\n  - description: x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(context.Background(), writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_FallsBackToDefault(t *testing.T) {
	ctx := context.Background()

	t.Run("no path", func(t *testing.T) {
		assert.Equal(t, Default(), Load(ctx, ""))
	})

	t.Run("missing file", func(t *testing.T) {
		assert.Equal(t, Default(), Load(ctx, filepath.Join(t.TempDir(), "nope.yaml")))
	})

	t.Run("invalid syntax", func(t *testing.T) {
		assert.Equal(t, Default(), Load(ctx, writeConfig(t, "model: [unclosed")))
	})

	t.Run("empty document", func(t *testing.T) {
		assert.Equal(t, Default(), Load(ctx, writeConfig(t, "")))
	})
}

func TestLoad_OutputDirFromFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "custom")
	cfg := Load(context.Background(), writeConfig(t, "output_dir: "+dir+"\n"))
	assert.Equal(t, dir, cfg.OutputDir)
}

func TestLoad_LogsSource(t *testing.T) {
	var buf bytes.Buffer
	logger.Init(slog.LevelInfo, &buf, "simple")
	t.Cleanup(func() { logger.Init(slog.LevelInfo, os.Stderr, "simple") })
	ctx := context.Background()

	Load(ctx, "")
	assert.Contains(t, buf.String(), "INFO No config file provided, using defaults")

	path := writeConfig(t, "model: gpt-4o-mini\n")
	Load(ctx, path)
	assert.Contains(t, buf.String(), "INFO Loaded configuration from "+path)
}
