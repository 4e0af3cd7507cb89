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

// Package runtime builds the configured backends: the LLM and the MCP
// toolset that reaches the documentation server.
package runtime

import (
	"fmt"

	"github.com/kadirpekel/docagent"
	"github.com/kadirpekel/docagent/pkg/config"
	"github.com/kadirpekel/docagent/pkg/model"
	"github.com/kadirpekel/docagent/pkg/model/anthropic"
	"github.com/kadirpekel/docagent/pkg/model/gemini"
	"github.com/kadirpekel/docagent/pkg/model/openai"
	"github.com/kadirpekel/docagent/pkg/tool/mcptoolset"
)

// ClientName is sent to MCP servers in the initialize handshake.
const ClientName = "docagent"

// Version returns the version reported to MCP servers.
func Version() string {
	return docagent.GetVersion().Version
}

// NewLLM creates the LLM selected by cfg.Provider.
func NewLLM(cfg *config.Config) (model.LLM, error) {
	apiKey := cfg.ResolveAPIKey()

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.New(openai.Config{
			APIKey:      apiKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.Agent.MaxTokens,
			Temperature: cfg.Agent.Temperature,
		})

	case config.ProviderAnthropic:
		return anthropic.New(anthropic.Config{
			APIKey:      apiKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.Agent.MaxTokens,
			Temperature: cfg.Agent.Temperature,
		})

	case config.ProviderGemini:
		return gemini.New(gemini.Config{
			APIKey:      apiKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.Agent.MaxTokens,
			Temperature: cfg.Agent.Temperature,
		})

	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// NewToolset creates the MCP toolset described by cfg.MCP. The connection
// is opened lazily on the first call.
func NewToolset(cfg *config.Config) (*mcptoolset.Toolset, error) {
	return mcptoolset.New(mcptoolset.Config{
		Name:          "aws-documentation",
		Transport:     cfg.MCP.Transport,
		Command:       cfg.MCP.Command,
		Args:          cfg.MCP.Args,
		Env:           cfg.MCP.Env,
		URL:           cfg.MCP.URL,
		Headers:       cfg.MCP.Headers,
		Timeout:       cfg.MCP.Timeout,
		ClientName:    ClientName,
		ClientVersion: Version(),
	})
}
