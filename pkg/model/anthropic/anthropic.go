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

// Package anthropic provides an Anthropic Claude LLM implementation using
// the Messages API with tool use.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kadirpekel/docagent/pkg/model"
	"github.com/kadirpekel/docagent/pkg/tool"
)

const (
	defaultModel     = string(sdk.ModelClaudeSonnet4_5)
	defaultMaxTokens = 4096
)

// Config configures the Anthropic client.
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature *float64
	BaseURL     string
	MaxRetries  int
	HTTPClient  *http.Client
}

// Client is an Anthropic LLM implementation.
type Client struct {
	client      sdk.Client
	model       string
	maxTokens   int
	temperature *float64
}

var _ model.LLM = (*Client)(nil)

// New creates a new Anthropic client.
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
		client:      sdk.NewClient(opts...),
		model:       modelName,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// Name returns the model identifier.
func (c *Client) Name() string {
	return c.model
}

// Provider returns the provider type.
func (c *Client) Provider() model.Provider {
	return model.ProviderAnthropic
}

// GenerateContent sends one Messages request.
func (c *Client) GenerateContent(ctx context.Context, req *model.Request) (*model.Response, error) {
	params, err := c.buildParams(req)
	if err != nil {
		return nil, err
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("Anthropic messages request failed: %w", err)
	}

	resp, err := parseMessage(msg)
	if err != nil {
		return nil, err
	}
	slog.Debug("Anthropic response",
		"model", c.model,
		"stop_reason", msg.StopReason,
		"tool_calls", len(resp.ToolCalls))
	return resp, nil
}

// Close releases resources.
func (c *Client) Close() error {
	return nil
}

func (c *Client) buildParams(req *model.Request) (sdk.MessageNewParams, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: int64(req.Config.MaxTokensOr(c.maxTokens)),
	}

	temperature := c.temperature
	if req.Config != nil && req.Config.Temperature != nil {
		temperature = req.Config.Temperature
	}
	if temperature != nil {
		params.Temperature = sdk.Float(*temperature)
	}

	if req.SystemInstruction != "" {
		params.System = []sdk.TextBlockParam{{Text: req.SystemInstruction}}
	}

	for _, msg := range req.Messages {
		converted, err := convertMessage(msg)
		if err != nil {
			return params, err
		}
		params.Messages = append(params.Messages, converted)
	}

	for _, def := range req.Tools {
		params.Tools = append(params.Tools, convertTool(def))
	}
	return params, nil
}

// convertMessage maps a conversation entry to an Anthropic message. Tool
// results travel in a user message, paired to tool_use blocks by ID.
func convertMessage(msg model.Message) (sdk.MessageParam, error) {
	switch msg.Role {
	case model.RoleUser:
		return sdk.NewUserMessage(sdk.NewTextBlock(msg.Text)), nil

	case model.RoleAssistant:
		var blocks []sdk.ContentBlockParamUnion
		if msg.Text != "" {
			blocks = append(blocks, sdk.NewTextBlock(msg.Text))
		}
		for _, tc := range msg.ToolCalls {
			args := tc.Args
			if args == nil {
				args = map[string]any{}
			}
			blocks = append(blocks, sdk.NewToolUseBlock(tc.ID, args, tc.Name))
		}
		return sdk.NewAssistantMessage(blocks...), nil

	case model.RoleTool:
		blocks := make([]sdk.ContentBlockParamUnion, 0, len(msg.ToolResults))
		for _, res := range msg.ToolResults {
			blocks = append(blocks, sdk.NewToolResultBlock(res.ToolCallID, res.Content, res.IsError))
		}
		return sdk.NewUserMessage(blocks...), nil

	default:
		return sdk.MessageParam{}, fmt.Errorf("unsupported message role %q", msg.Role)
	}
}

func convertTool(def tool.Definition) sdk.ToolUnionParam {
	schema := sdk.ToolInputSchemaParam{
		Properties: def.Parameters["properties"],
		Required:   requiredFields(def.Parameters["required"]),
	}
	tp := &sdk.ToolParam{
		Name:        def.Name,
		InputSchema: schema,
	}
	if def.Description != "" {
		tp.Description = sdk.String(def.Description)
	}
	return sdk.ToolUnionParam{OfTool: tp}
}

func requiredFields(v any) []string {
	switch req := v.(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func parseMessage(msg *sdk.Message) (*model.Response, error) {
	if msg == nil {
		return nil, fmt.Errorf("empty response from Anthropic")
	}

	resp := &model.Response{
		FinishReason: mapStopReason(msg.StopReason),
		Usage: &model.Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}

	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case sdk.TextBlock:
			resp.Text += b.Text
		case sdk.ToolUseBlock:
			args := map[string]any{}
			if len(b.Input) > 0 {
				if err := json.Unmarshal(b.Input, &args); err != nil {
					return nil, fmt.Errorf("invalid input for tool call %s: %w", b.Name, err)
				}
			}
			resp.ToolCalls = append(resp.ToolCalls, tool.ToolCall{ID: b.ID, Name: b.Name, Args: args})
		}
	}
	return resp, nil
}

func mapStopReason(reason sdk.StopReason) model.FinishReason {
	switch reason {
	case sdk.StopReasonMaxTokens:
		return model.FinishReasonLength
	case sdk.StopReasonToolUse:
		return model.FinishReasonToolCalls
	case sdk.StopReasonRefusal:
		return model.FinishReasonContent
	default:
		return model.FinishReasonStop
	}
}
