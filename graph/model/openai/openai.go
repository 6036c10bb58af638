// Package openai adapts the OpenAI chat completions API to model.ChatModel.
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/flowgraph/flowgraph/graph/model"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gpt-4o"

// Client implements model.ChatModel against OpenAI chat completions with
// function calling.
type Client struct {
	client    openai.Client
	modelName string
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides the model name.
func WithModel(name string) Option {
	return func(c *Client) { c.modelName = name }
}

// New creates a client with the given API key.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		client:    openai.NewClient(option.WithAPIKey(apiKey)),
		modelName: DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chat implements model.ChatModel.
func (c *Client) Chat(ctx context.Context, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error) {
	converted, err := convertMessages(messages)
	if err != nil {
		return model.ChatOut{}, err
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.modelName),
		Messages: converted,
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.ChatOut{}, fmt.Errorf("openai completion: no choices returned")
	}

	return convertResponse(resp.Choices[0])
}

func convertMessages(messages []model.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))

		case model.RoleHuman:
			out = append(out, openai.UserMessage(msg.Content))

		case model.RoleTool:
			out = append(out, openai.ToolMessage(msg.ToolCallID, msg.Content))

		case model.RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(msg.Content))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCall, 0, len(msg.ToolCalls))
			for _, tc := range msg.ToolCalls {
				args, err := json.Marshal(tc.Input)
				if err != nil {
					return nil, fmt.Errorf("marshal tool input for %s: %w", tc.Name, err)
				}
				toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCall{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunction{
						Name:      tc.Name,
						Arguments: string(args),
					},
				})
			}
			assistantMsg := openai.ChatCompletionMessage{
				Role:      "assistant",
				Content:   msg.Content,
				ToolCalls: toolCalls,
			}
			out = append(out, assistantMsg.ToParam())
		}
	}
	return out, nil
}

func convertTools(tools []model.ToolSpec) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, spec := range tools {
		out = append(out, openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        spec.Name,
				Description: openai.String(spec.Description),
				Parameters:  openai.FunctionParameters(spec.Schema),
			},
		})
	}
	return out
}

func convertResponse(choice openai.ChatCompletionChoice) (model.ChatOut, error) {
	out := model.ChatOut{Text: choice.Message.Content}
	for _, tc := range choice.Message.ToolCalls {
		var input map[string]any
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &input); err != nil {
			return model.ChatOut{}, fmt.Errorf("parse tool arguments for %s: %w", tc.Function.Name, err)
		}
		out.ToolCalls = append(out.ToolCalls, model.ToolCall{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: input,
		})
	}
	return out, nil
}
