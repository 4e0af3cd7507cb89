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

// Package agent runs documentation tasks end to end.
//
// An Agent owns the documentation client, the task executor and the
// result store. ProcessTask takes one task through its lifecycle:
//
//	created -> (enriched) -> executed -> persisted
//
// Enrichment prefetches a getting-started page when the task names an AWS
// service. Execution is delegated to an Executor, by default an LLM
// tool-calling loop. The executor's output is written to
// <output_dir>/<task>_result.json.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/kadirpekel/docagent/pkg/agent/llmagent"
	"github.com/kadirpekel/docagent/pkg/config"
	"github.com/kadirpekel/docagent/pkg/docs"
	"github.com/kadirpekel/docagent/pkg/model"
	"github.com/kadirpekel/docagent/pkg/observability"
	"github.com/kadirpekel/docagent/pkg/runtime"
	"github.com/kadirpekel/docagent/pkg/task"
	"github.com/kadirpekel/docagent/pkg/tool"
	"github.com/kadirpekel/docagent/pkg/tool/docstool"
)

// Executor performs a task and returns its output.
type Executor interface {
	ProcessTask(ctx context.Context, t *task.Task) (*task.Output, error)
}

// Agent processes tasks against the AWS documentation server.
type Agent struct {
	cfg      *config.Config
	docs     *docs.Client
	tools    *tool.Registry
	executor Executor
	store    *task.Store
	metrics  *observability.Metrics

	// closers are released by Close in reverse order.
	closers []io.Closer
}

// Option configures an Agent.
type Option func(*options)

type options struct {
	caller   docs.Caller
	executor Executor
	llm      model.LLM
	metrics  *observability.Metrics
}

// WithCaller replaces the MCP toolset built from config.MCP.
func WithCaller(c docs.Caller) Option {
	return func(o *options) {
		o.caller = c
	}
}

// WithExecutor replaces the default LLM executor.
func WithExecutor(e Executor) Option {
	return func(o *options) {
		o.executor = e
	}
}

// WithLLM replaces the LLM built from config.Provider. Ignored when an
// executor is supplied.
func WithLLM(llm model.LLM) Option {
	return func(o *options) {
		o.llm = llm
	}
}

// WithMetrics records documentation calls, token usage and task outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// New creates an Agent from cfg. The output directory is created here.
func New(cfg *config.Config, opts ...Option) (*Agent, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	store, err := task.NewStore(cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	a := &Agent{
		cfg:     cfg,
		store:   store,
		metrics: o.metrics,
		tools:   tool.NewRegistry(),
	}

	caller := o.caller
	if caller == nil {
		ts, err := runtime.NewToolset(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create documentation toolset: %w", err)
		}
		a.closers = append(a.closers, ts)
		caller = ts
	}

	var docOpts []docs.Option
	if o.metrics != nil {
		docOpts = append(docOpts, docs.WithObserver(o.metrics))
	}
	a.docs = docs.NewClient(caller, cfg.MCP.ToolPrefix, docOpts...)

	if err := docstool.Register(a.tools, a.docs); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to register documentation tools: %w", err)
	}

	a.executor = o.executor
	if a.executor == nil {
		exec, err := a.newLLMExecutor(o.llm)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.executor = exec
	}

	return a, nil
}

func (a *Agent) newLLMExecutor(llm model.LLM) (Executor, error) {
	if llm == nil {
		var err error
		llm, err = runtime.NewLLM(a.cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s model: %w", a.cfg.Provider, err)
		}
		a.closers = append(a.closers, llm)
	}

	exec, err := llmagent.FromConfig(a.cfg, llm, a.tools)
	if err != nil {
		return nil, err
	}
	if a.metrics != nil {
		exec.WithUsageObserver(a.metrics)
	}
	return exec, nil
}

// Docs returns the documentation client.
func (a *Agent) Docs() *docs.Client {
	return a.docs
}

// Tools returns the tools offered to the executor.
func (a *Agent) Tools() *tool.Registry {
	return a.tools
}

// Store returns the result store.
func (a *Agent) Store() *task.Store {
	return a.store
}

// ProcessTask enriches, executes and persists t.
func (a *Agent) ProcessTask(ctx context.Context, t *task.Task) (*task.Output, error) {
	if t == nil {
		return nil, fmt.Errorf("task is required")
	}
	log := slog.With("task", t.Name, "task_id", t.ID)

	a.enrich(ctx, t)

	out, err := a.executor.ProcessTask(ctx, t)
	if err != nil {
		a.metrics.ObserveTask(err)
		return nil, fmt.Errorf("task %s failed: %w", t.Name, err)
	}
	if out == nil {
		out = &task.Output{}
	}

	if _, err := a.store.Save(t.Name, out); err != nil {
		a.metrics.ObserveTask(err)
		return nil, err
	}

	a.metrics.ObserveTask(nil)
	log.Debug("Task processed")
	return out, nil
}

// Close releases the resources the Agent created.
func (a *Agent) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
