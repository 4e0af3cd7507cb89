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

// Package llmagent executes tasks with a tool-calling language model.
//
// The executor turns a task into a system instruction and a user prompt,
// then alternates model turns and tool calls until the model answers
// without calling a tool or the iteration limit is reached.
//
// # Usage
//
//	exec, err := llmagent.New(llmagent.Config{
//	    Model: myModel,
//	    Tools: registry,
//	})
//	out, err := exec.ProcessTask(ctx, t)
package llmagent

import (
	"fmt"

	"github.com/kadirpekel/docagent/pkg/config"
	"github.com/kadirpekel/docagent/pkg/model"
	"github.com/kadirpekel/docagent/pkg/tool"
)

// DefaultInstruction is the system instruction used when none is configured.
const DefaultInstruction = `You are an AWS documentation assistant.
Use the documentation tools to search and read the official AWS documentation before answering.
Prefer the background documentation attached to the task when it is relevant.
Answer the task concisely and cite the documentation URLs you relied on.`

// DefaultMaxConcurrentTools bounds the tool calls of one turn that run at once.
const DefaultMaxConcurrentTools = 4

// UsageObserver is notified of the token usage of every model turn.
type UsageObserver interface {
	ObserveUsage(usage model.Usage)
}

// Config contains the configuration for an LLM executor.
type Config struct {
	// Model is the LLM to use for generation.
	Model model.LLM

	// Tools are offered to the model on every turn. May be nil.
	Tools *tool.Registry

	// Instruction overrides DefaultInstruction.
	Instruction string

	// MaxIterations caps the number of model turns (default 10).
	MaxIterations int

	// MaxConcurrentTools caps parallel tool calls within a turn (default 4).
	MaxConcurrentTools int

	// GenerateConfig contains LLM generation settings.
	GenerateConfig *model.GenerateConfig

	// Templates describe known tasks. A matching template's parameter
	// types are shown to the model.
	Templates []config.TaskTemplate

	// UsageObserver receives per-turn token usage. Optional.
	UsageObserver UsageObserver
}

// Agent is a task executor backed by a language model.
type Agent struct {
	model         model.LLM
	tools         *tool.Registry
	instruction   string
	maxIterations int
	maxConcurrent int
	genConfig     *model.GenerateConfig
	templates     []config.TaskTemplate
	observer      UsageObserver
}

// New creates an LLM executor.
func New(cfg Config) (*Agent, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("model is required")
	}

	tools := cfg.Tools
	if tools == nil {
		tools = tool.NewRegistry()
	}
	instruction := cfg.Instruction
	if instruction == "" {
		instruction = DefaultInstruction
	}
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = config.DefaultMaxIterations
	}
	maxConcurrent := cfg.MaxConcurrentTools
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentTools
	}

	return &Agent{
		model:         cfg.Model,
		tools:         tools,
		instruction:   instruction,
		maxIterations: maxIterations,
		maxConcurrent: maxConcurrent,
		genConfig:     cfg.GenerateConfig.Clone(),
		templates:     cfg.Templates,
		observer:      cfg.UsageObserver,
	}, nil
}

// FromConfig creates an executor tuned by the agent section of cfg.
func FromConfig(cfg *config.Config, llm model.LLM, tools *tool.Registry) (*Agent, error) {
	gen := &model.GenerateConfig{Temperature: cfg.Agent.Temperature}
	if cfg.Agent.MaxTokens > 0 {
		maxTokens := cfg.Agent.MaxTokens
		gen.MaxTokens = &maxTokens
	}
	return New(Config{
		Model:          llm,
		Tools:          tools,
		Instruction:    cfg.Agent.Instruction,
		MaxIterations:  cfg.Agent.MaxIterations,
		GenerateConfig: gen,
		Templates:      cfg.Tasks,
	})
}

// WithUsageObserver sets the usage observer and returns a.
func (a *Agent) WithUsageObserver(o UsageObserver) *Agent {
	a.observer = o
	return a
}

// Model returns the underlying LLM.
func (a *Agent) Model() model.LLM {
	return a.model
}

func (a *Agent) findTemplate(name string) (config.TaskTemplate, bool) {
	for _, t := range a.templates {
		if t.Name == name {
			return t, true
		}
	}
	return config.TaskTemplate{}, false
}
