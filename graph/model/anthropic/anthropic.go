// Package anthropic adapts the Anthropic Messages API to model.ChatModel.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/flowgraph/flowgraph/graph/model"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "claude-sonnet-4-20250514"

// Client implements model.ChatModel against the Anthropic API, including
// tool use in both directions: tool specs out, tool calls and tool results
// back through the conversation.
type Client struct {
	client    anthropic.Client
	modelName string
	maxTokens int64
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides the model name.
func WithModel(name string) Option {
	return func(c *Client) { c.modelName = name }
}

// WithMaxTokens overrides the completion token cap (default 4096).
func WithMaxTokens(n int64) Option {
	return func(c *Client) { c.maxTokens = n }
}

// New creates a client with the given API key.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		modelName: DefaultModel,
		maxTokens: 4096,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chat implements model.ChatModel.
func (c *Client) Chat(ctx context.Context, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.modelName),
		MaxTokens: c.maxTokens,
		Messages:  convertMessages(messages),
	}

	if sys := systemPrompt(messages); sys != "" {
		params.System = []anthropic.TextBlockParam{{Text: sys}}
	}

	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("anthropic message: %w", err)
	}

	return convertResponse(resp)
}

// systemPrompt concatenates any system messages; Anthropic takes the system
// prompt as a top-level parameter, not a message.
func systemPrompt(messages []model.Message) string {
	out := ""
	for _, msg := range messages {
		if msg.Role == model.RoleSystem {
			if out != "" {
				out += "\n\n"
			}
			out += msg.Content
		}
	}
	return out
}

func convertMessages(messages []model.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			// Handled via the System parameter.

		case model.RoleTool:
			out = append(out, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false),
			))

		case model.RoleAssistant:
			blocks := []anthropic.ContentBlockParamUnion{}
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, tc.Input, tc.Name))
			}
			out = append(out, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleAssistant,
				Content: blocks,
			})

		default: // RoleHuman
			out = append(out, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		}
	}
	return out
}

func convertTools(tools []model.ToolSpec) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, spec := range tools {
		toolParam := anthropic.ToolParam{
			Name:        spec.Name,
			Description: anthropic.String(spec.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: spec.Schema["properties"],
			},
		}
		if required, ok := spec.Schema["required"]; ok {
			toolParam.InputSchema.Required = toStringSlice(required)
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &toolParam})
	}
	return out
}

// toStringSlice accepts []string and the JSON-decoded []any form.
func toStringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func convertResponse(resp *anthropic.Message) (model.ChatOut, error) {
	out := model.ChatOut{}
	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			out.Text += b.Text
		case anthropic.ToolUseBlock:
			var input map[string]any
			if err := json.Unmarshal([]byte(b.JSON.Input.Raw()), &input); err != nil {
				return model.ChatOut{}, fmt.Errorf("parse tool input for %s: %w", b.Name, err)
			}
			out.ToolCalls = append(out.ToolCalls, model.ToolCall{
				ID:    b.ID,
				Name:  b.Name,
				Input: input,
			})
		}
	}
	return out, nil
}
