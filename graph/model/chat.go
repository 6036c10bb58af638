// Package model defines the chat-model abstraction workflow nodes use to
// call LLMs, plus adapters for Anthropic, OpenAI, and Google in
// subpackages and a MockChatModel for tests.
package model

import "context"

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"

	// RoleTool marks a tool-result message. ToolCallID links it back to
	// the assistant tool call it answers.
	RoleTool Role = "tool"
)

// Message is one role-tagged unit of conversation. Assistant messages may
// carry pending tool calls; tool messages carry the result of one call.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// ToolCalls are the invocations an assistant message requests.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID is set on RoleTool messages: the id of the call this
	// message is the result of.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// ToolCall is a pending tool invocation requested by the model.
type ToolCall struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// ToolSpec describes a tool offered to the model. Schema is a JSON Schema
// object for the tool's input.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema"`
}

// ChatOut is the model's reply: text, tool calls, or both.
type ChatOut struct {
	Text      string
	ToolCalls []ToolCall
}

// ChatModel is the synchronous completion interface nodes call. The engine
// never sees it; model latency and failures are the calling node's concern.
type ChatModel interface {
	Chat(ctx context.Context, messages []Message, tools []ToolSpec) (ChatOut, error)
}
