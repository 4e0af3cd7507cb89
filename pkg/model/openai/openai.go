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

// Package openai provides an OpenAI LLM implementation using the Chat
// Completions API with function tools.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/kadirpekel/docagent/pkg/model"
	"github.com/kadirpekel/docagent/pkg/tool"
)

const (
	defaultModel     = "gpt-4o"
	defaultMaxTokens = 4096
)

// Config configures the OpenAI client.
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature *float64
	BaseURL     string

	// MaxRetries overrides the SDK's retry count when positive.
	MaxRetries int

	// HTTPClient replaces the SDK's default client.
	HTTPClient *http.Client
}

// Client is an OpenAI LLM implementation.
type Client struct {
	client      oai.Client
	modelName   string
	maxTokens   int
	temperature *float64
}

var _ model.LLM = (*Client)(nil)

// New creates a new OpenAI client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Client{
		client:      oai.NewClient(opts...),
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// Name returns the model identifier.
func (c *Client) Name() string {
	return c.modelName
}

// Provider returns the provider type.
func (c *Client) Provider() model.Provider {
	return model.ProviderOpenAI
}

// GenerateContent runs one chat completion.
func (c *Client) GenerateContent(ctx context.Context, req *model.Request) (*model.Response, error) {
	params, err := c.buildParams(req)
	if err != nil {
		return nil, err
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("OpenAI chat completion failed: %w", err)
	}

	resp, err := parseCompletion(completion)
	if err != nil {
		return nil, err
	}
	slog.Debug("OpenAI completion",
		"model", c.modelName,
		"finish_reason", resp.FinishReason,
		"tool_calls", len(resp.ToolCalls))
	return resp, nil
}

// Close releases resources.
func (c *Client) Close() error {
	return nil
}

func (c *Client) buildParams(req *model.Request) (oai.ChatCompletionNewParams, error) {
	params := oai.ChatCompletionNewParams{
		Model:               oai.ChatModel(c.modelName),
		MaxCompletionTokens: oai.Int(int64(req.Config.MaxTokensOr(c.maxTokens))),
	}

	temperature := c.temperature
	if req.Config != nil && req.Config.Temperature != nil {
		temperature = req.Config.Temperature
	}
	if temperature != nil {
		params.Temperature = oai.Float(*temperature)
	}

	if req.SystemInstruction != "" {
		params.Messages = append(params.Messages, oai.SystemMessage(req.SystemInstruction))
	}
	for _, msg := range req.Messages {
		converted, err := convertMessage(msg)
		if err != nil {
			return params, err
		}
		params.Messages = append(params.Messages, converted...)
	}

	for _, def := range req.Tools {
		params.Tools = append(params.Tools, convertTool(def))
	}
	return params, nil
}

// convertMessage maps one conversation entry to OpenAI messages. Tool
// results fan out to one tool message per call.
func convertMessage(msg model.Message) ([]oai.ChatCompletionMessageParamUnion, error) {
	switch msg.Role {
	case model.RoleUser:
		return []oai.ChatCompletionMessageParamUnion{oai.UserMessage(msg.Text)}, nil

	case model.RoleAssistant:
		asst := oai.ChatCompletionAssistantMessageParam{}
		if msg.Text != "" {
			asst.Content.OfString = oai.String(msg.Text)
		}
		for _, tc := range msg.ToolCalls {
			args, err := json.Marshal(argsOrEmpty(tc.Args))
			if err != nil {
				return nil, fmt.Errorf("failed to encode arguments of %s: %w", tc.Name, err)
			}
			asst.ToolCalls = append(asst.ToolCalls, oai.ChatCompletionMessageToolCallParam{
				ID: tc.ID,
				Function: oai.ChatCompletionMessageToolCallFunctionParam{
					Name:      tc.Name,
					Arguments: string(args),
				},
			})
		}
		return []oai.ChatCompletionMessageParamUnion{{OfAssistant: &asst}}, nil

	case model.RoleTool:
		out := make([]oai.ChatCompletionMessageParamUnion, 0, len(msg.ToolResults))
		for _, res := range msg.ToolResults {
			out = append(out, oai.ToolMessage(res.Content, res.ToolCallID))
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported message role %q", msg.Role)
	}
}

func convertTool(def tool.Definition) oai.ChatCompletionToolParam {
	fn := oai.FunctionDefinitionParam{
		Name:       def.Name,
		Parameters: oai.FunctionParameters(def.Parameters),
	}
	if def.Description != "" {
		fn.Description = oai.String(def.Description)
	}
	return oai.ChatCompletionToolParam{Function: fn}
}

func parseCompletion(completion *oai.ChatCompletion) (*model.Response, error) {
	if completion == nil || len(completion.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}
	choice := completion.Choices[0]

	resp := &model.Response{
		Text:         choice.Message.Content,
		FinishReason: mapFinishReason(choice.FinishReason),
		Usage: &model.Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}

	for _, tc := range choice.Message.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("invalid arguments for tool call %s: %w", tc.Function.Name, err)
			}
		}
		resp.ToolCalls = append(resp.ToolCalls, tool.ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: args,
		})
	}
	return resp, nil
}

func mapFinishReason(reason string) model.FinishReason {
	switch reason {
	case "length":
		return model.FinishReasonLength
	case "tool_calls", "function_call":
		return model.FinishReasonToolCalls
	case "content_filter":
		return model.FinishReasonContent
	default:
		return model.FinishReasonStop
	}
}

func argsOrEmpty(args map[string]any) map[string]any {
	if args == nil {
		return map[string]any{}
	}
	return args
}
