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

// Package model defines the provider-neutral LLM interface.
//
// Backends live in subpackages (openai, anthropic, gemini) and translate
// Request and Response to their SDK's wire types. A conversation is a flat
// list of Messages: user text, assistant text with optional tool calls, and
// tool results answering those calls.
package model

import (
	"context"

	"github.com/kadirpekel/docagent/pkg/tool"
)

// LLM is the interface for language models.
type LLM interface {
	// Name returns the model identifier.
	Name() string

	// Provider returns the provider type.
	Provider() Provider

	// GenerateContent runs one model turn over the request.
	GenerateContent(ctx context.Context, req *Request) (*Response, error)

	// Close releases any resources held by the LLM.
	Close() error
}

// Provider identifies the LLM provider.
type Provider string

const (
	// ProviderOpenAI represents OpenAI models.
	// Tool results are separate messages keyed by call ID.
	ProviderOpenAI Provider = "openai"

	// ProviderAnthropic represents Anthropic models.
	// Tool results must be paired with tool_use in the next user message.
	ProviderAnthropic Provider = "anthropic"

	// ProviderGemini represents Google Gemini models.
	ProviderGemini Provider = "gemini"

	// ProviderUnknown for unrecognized providers.
	ProviderUnknown Provider = "unknown"
)

// Role is the author of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of the conversation history.
type Message struct {
	Role Role

	// Text is the message body. Empty for pure tool-call or tool-result turns.
	Text string

	// ToolCalls requested by the assistant.
	ToolCalls []tool.ToolCall

	// ToolResults answering the previous assistant's ToolCalls.
	ToolResults []tool.ToolResult
}

// UserMessage returns a user message with the given text.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// ToolMessage returns a tool message carrying results.
func ToolMessage(results ...tool.ToolResult) Message {
	return Message{Role: RoleTool, ToolResults: results}
}

// Request contains the input for an LLM call.
type Request struct {
	// Messages is the conversation history.
	Messages []Message

	// Tools available for the model to call.
	Tools []tool.Definition

	// Config contains generation configuration.
	Config *GenerateConfig

	// SystemInstruction is prepended to the conversation.
	SystemInstruction string
}

// GenerateConfig contains configuration for generation.
type GenerateConfig struct {
	// Temperature controls randomness (0-2).
	Temperature *float64

	// MaxTokens limits the response length.
	MaxTokens *int
}

// Clone creates a deep copy of the GenerateConfig.
func (c *GenerateConfig) Clone() *GenerateConfig {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Temperature != nil {
		temp := *c.Temperature
		clone.Temperature = &temp
	}
	if c.MaxTokens != nil {
		maxTok := *c.MaxTokens
		clone.MaxTokens = &maxTok
	}
	return &clone
}

// MaxTokensOr returns MaxTokens when set, otherwise def.
func (c *GenerateConfig) MaxTokensOr(def int) int {
	if c == nil || c.MaxTokens == nil || *c.MaxTokens <= 0 {
		return def
	}
	return *c.MaxTokens
}

// Response contains the result of an LLM call.
type Response struct {
	// Text is the generated text, concatenated across parts.
	Text string

	// ToolCalls requested by the model.
	ToolCalls []tool.ToolCall

	// Usage statistics.
	Usage *Usage

	// FinishReason indicates why generation stopped.
	FinishReason FinishReason
}

// Usage contains token usage statistics.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Add accumulates other into u.
func (u *Usage) Add(other *Usage) {
	if u == nil || other == nil {
		return
	}
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// FinishReason indicates why generation stopped.
type FinishReason string

const (
	FinishReasonStop      FinishReason = "stop"
	FinishReasonLength    FinishReason = "length"
	FinishReasonToolCalls FinishReason = "tool_calls"
	FinishReasonContent   FinishReason = "content_filter"
	FinishReasonError     FinishReason = "error"
)

// HasToolCalls returns whether the response contains tool calls.
func (r *Response) HasToolCalls() bool {
	return r != nil && len(r.ToolCalls) > 0
}

// ToMessage converts a Response to an assistant Message.
func (r *Response) ToMessage() Message {
	if r == nil {
		return Message{Role: RoleAssistant}
	}
	return Message{Role: RoleAssistant, Text: r.Text, ToolCalls: r.ToolCalls}
}
