// Package research builds the research-assistant workflow on the graph
// engine: an agent node that plans with an LLM, a tool-execution node, a
// human-approval gate that suspends the run, and a summarize node that
// finishes it.
package research

import (
	"encoding/json"

	"github.com/flowgraph/flowgraph/graph"
	"github.com/flowgraph/flowgraph/graph/model"
)

// State field names. Every field has exactly one reducer, registered by
// NewReducers.
const (
	FieldMessages         = "messages"
	FieldQuery            = "research_query"
	FieldProgress         = "research_progress"
	FieldSources          = "sources_found"
	FieldRequiresApproval = "requires_approval"
	FieldApprovedByHuman  = "approved_by_human"
	FieldSummary          = "summary"
)

const systemPrompt = "You are a research assistant. Use the available " +
	"tools to gather information, request human approval before acting on " +
	"sensitive topics, and summarize your findings when enough progress " +
	"has been made."

// NewReducers registers the merge semantics for every research state field:
// conversation, progress, and sources are append-only; the rest overwrite.
func NewReducers() graph.Reducers {
	return graph.Reducers{
		FieldMessages:         graph.AppendSequence,
		FieldQuery:            graph.Overwrite,
		FieldProgress:         graph.AppendSequence,
		FieldSources:          graph.AppendSequence,
		FieldRequiresApproval: graph.Overwrite,
		FieldApprovedByHuman:  graph.Overwrite,
		FieldSummary:          graph.Overwrite,
	}
}

// InitialState seeds a fresh thread with the system prompt, the user's
// query, and the first progress entry.
func InitialState(query string) graph.State {
	return graph.State{
		FieldQuery: query,
		FieldMessages: []model.Message{
			{Role: model.RoleSystem, Content: systemPrompt},
			{Role: model.RoleHuman, Content: query},
		},
		FieldProgress: []string{"Research started"},
	}
}

// Messages decodes the conversation from state. State values normalize to
// JSON shapes after checkpointing, so this re-decodes rather than type
// asserting.
func Messages(s graph.State) []model.Message {
	raw, err := json.Marshal(s[FieldMessages])
	if err != nil {
		return nil
	}
	var out []model.Message
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// Strings decodes a string-sequence field from state.
func Strings(s graph.State, field string) []string {
	raw, err := json.Marshal(s[field])
	if err != nil {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// Bool reads a boolean field; absent means false.
func Bool(s graph.State, field string) bool {
	b, _ := s[field].(bool)
	return b
}

// Text reads a string field; absent means "".
func Text(s graph.State, field string) string {
	t, _ := s[field].(string)
	return t
}

// lastMessage returns the final message in the conversation.
func lastMessage(s graph.State) (model.Message, bool) {
	msgs := Messages(s)
	if len(msgs) == 0 {
		return model.Message{}, false
	}
	return msgs[len(msgs)-1], true
}
