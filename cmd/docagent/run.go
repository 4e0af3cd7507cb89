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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/kadirpekel/docagent"
	"github.com/kadirpekel/docagent/pkg/agent"
	"github.com/kadirpekel/docagent/pkg/config"
	"github.com/kadirpekel/docagent/pkg/observability"
	"github.com/kadirpekel/docagent/pkg/task"
)

// Default task run when --task is omitted.
const (
	defaultTaskDescription = "Search AWS documentation for CloudFormation"
	defaultSearchPhrase    = "CloudFormation best practices"
)

// CLI defines the command-line interface.
type CLI struct {
	Config string `short:"c" help:"Path to config file." type:"path"`
	Task   string `help:"Task to run. Runs the default documentation search when empty."`
	Params string `help:"Task parameters as a JSON object." placeholder:"JSON"`

	LogLevel  string `help:"Log level (debug, info, warn, error)." env:"LOG_LEVEL" default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)." env:"LOG_FILE"`
	LogFormat string `help:"Log format (simple or verbose)." env:"LOG_FORMAT" default:"simple"`

	Version bool `help:"Show version information."`
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, opts ...agent.Option) int {
	var cli CLI
	exitCode := -1
	parser, err := kong.New(&cli,
		kong.Name("docagent"),
		kong.Description("Run an AWS documentation task."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exitCode = code }),
	)
	if err != nil {
		fmt.Fprintf(stderr, "docagent: %v\n", err)
		return 1
	}
	if _, err := parser.Parse(args); exitCode >= 0 || err != nil {
		if exitCode >= 0 {
			return exitCode
		}
		fmt.Fprintf(stderr, "docagent: error: %v\n", err)
		return 1
	}

	if cli.Version {
		fmt.Fprintln(stdout, docagent.GetVersion().String())
		return 0
	}

	cleanup, err := initLogger(cli.LogLevel, cli.LogFile, cli.LogFormat, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	if cleanup != nil {
		defer cleanup()
	}

	t, err := cli.buildTask()
	if err != nil {
		slog.Error("Invalid JSON in task parameters", "error", err)
		return 1
	}

	cfg := config.Load(ctx, cli.Config)
	out, err := process(ctx, cfg, t, opts...)
	if err != nil {
		slog.Error("Task failed", "task", t.Name, "error", err)
		return 1
	}

	data, err := json.MarshalIndent(map[string]any{"output": out.Output}, "", "  ")
	if err != nil {
		slog.Error("Failed to encode output", "error", err)
		return 1
	}
	fmt.Fprintln(stdout, string(data))
	return 0
}

// buildTask validates --params on every run; without --task the default
// task runs with its fixed parameters.
func (c *CLI) buildTask() (*task.Task, error) {
	params, err := parseParams(c.Params)
	if err != nil {
		return nil, err
	}

	if c.Task == "" {
		return task.New(config.DefaultTaskName, defaultTaskDescription, map[string]any{
			"search_phrase": defaultSearchPhrase,
		}), nil
	}
	return task.New(c.Task, "Running task "+c.Task, params), nil
}

func parseParams(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	params, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("task parameters must be a JSON object, got %s", jsonKind(v))
	}
	return params, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// process builds the agent, runs t and writes the metrics file.
func process(ctx context.Context, cfg *config.Config, t *task.Task, opts ...agent.Option) (*task.Output, error) {
	metrics := observability.NewMetrics()
	defer func() {
		if err := metrics.WriteToTextfile(cfg.MetricsFile); err != nil {
			slog.Warn("Failed to write metrics file", "path", cfg.MetricsFile, "error", err)
		}
	}()

	a, err := agent.New(cfg, append([]agent.Option{agent.WithMetrics(metrics)}, opts...)...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("Failed to close agent", "error", err)
		}
	}()

	return a.ProcessTask(ctx, t)
}
