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

// Package config provides configuration types and loading for docagent.
//
// A config file is optional. When it is missing or cannot be parsed the
// built-in defaults are used:
//
//	model: gpt-4o
//	output_dir: output
//	tasks:
//	  - name: aws_documentation_search
//	    description: Search AWS documentation for specific topics
//	    parameters:
//	      search_phrase: string
//	      limit: integer
package config

import (
	"fmt"
	"time"
)

// Supported LLM providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Supported MCP transports.
const (
	TransportStdio          = "stdio"
	TransportSSE            = "sse"
	TransportStreamableHTTP = "streamable-http"
)

// Built-in default values.
const (
	DefaultProvider       = ProviderOpenAI
	DefaultModel          = "gpt-4o"
	DefaultAnthropicModel = "claude-sonnet-4-5"
	DefaultGeminiModel    = "gemini-2.0-flash"
	DefaultOutputDir      = "output"
	DefaultToolPrefix     = "awslabsaws_documentation_mcp_server___"
	DefaultMCPCommand     = "uvx"
	DefaultMCPTimeout     = 60 * time.Second
	DefaultMaxIterations  = 10
	DefaultMaxTokens      = 4096

	DefaultTaskName = "aws_documentation_search"
)

// DefaultMCPArgs are the arguments passed to DefaultMCPCommand.
var DefaultMCPArgs = []string{"awslabs.aws-documentation-mcp-server@latest"}

// Config is the root configuration.
type Config struct {
	// APIKey for the LLM provider. Falls back to the provider's env var.
	APIKey string `yaml:"api_key,omitempty"`

	// Provider selects the LLM backend: openai, anthropic or gemini.
	Provider string `yaml:"provider,omitempty"`

	// Model name passed to the provider.
	Model string `yaml:"model,omitempty"`

	// OutputDir receives one <task>_result.json per task run.
	OutputDir string `yaml:"output_dir,omitempty"`

	// Tasks are the known task templates.
	Tasks []TaskTemplate `yaml:"tasks,omitempty"`

	// MCP configures the documentation server connection.
	MCP MCPConfig `yaml:"mcp,omitempty"`

	// Agent tunes the task executor.
	Agent AgentConfig `yaml:"agent,omitempty"`

	// MetricsFile, when set, receives Prometheus text-format metrics at exit.
	MetricsFile string `yaml:"metrics_file,omitempty"`
}

// TaskTemplate describes a task and the type hints of its parameters.
type TaskTemplate struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Parameters  map[string]string `yaml:"parameters,omitempty"`
}

// MCPConfig configures the documentation MCP server.
type MCPConfig struct {
	// Transport is stdio, sse or streamable-http.
	Transport string `yaml:"transport,omitempty"`

	// Command and Args launch the server for the stdio transport.
	Command string            `yaml:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`

	// URL and Headers address the server for the HTTP transports.
	URL     string            `yaml:"url,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`

	// ToolPrefix is prepended to every remote operation name.
	ToolPrefix string `yaml:"tool_prefix,omitempty"`

	// Timeout bounds a single remote call.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// AgentConfig tunes the tool-calling loop.
type AgentConfig struct {
	Instruction   string   `yaml:"instruction,omitempty"`
	MaxIterations int      `yaml:"max_iterations,omitempty"`
	MaxTokens     int      `yaml:"max_tokens,omitempty"`
	Temperature   *float64 `yaml:"temperature,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		Tasks: []TaskTemplate{
			{
				Name:        DefaultTaskName,
				Description: "Search AWS documentation for specific topics",
				Parameters: map[string]string{
					"search_phrase": "string",
					"limit":         "integer",
				},
			},
		},
	}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills empty scalar fields. The task list is left as is.
func (c *Config) SetDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Model == "" {
		c.Model = defaultModelFor(c.Provider)
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	c.MCP.SetDefaults()
	c.Agent.SetDefaults()
}

func defaultModelFor(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return DefaultAnthropicModel
	case ProviderGemini:
		return DefaultGeminiModel
	default:
		return DefaultModel
	}
}

// SetDefaults fills empty MCP fields.
func (m *MCPConfig) SetDefaults() {
	if m.Transport == "" {
		m.Transport = TransportStdio
	}
	if m.Transport == TransportStdio && m.Command == "" {
		m.Command = DefaultMCPCommand
		if len(m.Args) == 0 {
			m.Args = append([]string(nil), DefaultMCPArgs...)
		}
	}
	if m.ToolPrefix == "" {
		m.ToolPrefix = DefaultToolPrefix
	}
	if m.Timeout <= 0 {
		m.Timeout = DefaultMCPTimeout
	}
}

// SetDefaults fills empty agent fields.
func (a *AgentConfig) SetDefaults() {
	if a.MaxIterations <= 0 {
		a.MaxIterations = DefaultMaxIterations
	}
	if a.MaxTokens <= 0 {
		a.MaxTokens = DefaultMaxTokens
	}
}

// Validate checks the fields that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	switch c.MCP.Transport {
	case TransportStdio:
		if c.MCP.Command == "" {
			return fmt.Errorf("mcp.command is required for %s transport", c.MCP.Transport)
		}
	case TransportSSE, TransportStreamableHTTP:
		if c.MCP.URL == "" {
			return fmt.Errorf("mcp.url is required for %s transport", c.MCP.Transport)
		}
	default:
		return fmt.Errorf("unknown mcp transport %q", c.MCP.Transport)
	}

	for i, t := range c.Tasks {
		if t.Name == "" {
			return fmt.Errorf("tasks[%d]: name is required", i)
		}
	}
	return nil
}

// ResolveAPIKey returns api_key, or the provider's env var when it is empty.
func (c *Config) ResolveAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	return GetProviderAPIKey(c.Provider)
}

// FindTask returns the template named name.
func (c *Config) FindTask(name string) (TaskTemplate, bool) {
	for _, t := range c.Tasks {
		if t.Name == name {
			return t, true
		}
	}
	return TaskTemplate{}, false
}
