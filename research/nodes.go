package research

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/flowgraph/flowgraph/graph"
	"github.com/flowgraph/flowgraph/graph/model"
	"github.com/flowgraph/flowgraph/graph/tool"
)

// Agent is the planning node: it calls the chat model with the conversation
// and the tool specs, and appends the model's reply.
type Agent struct {
	model  model.ChatModel
	tools  *tool.Registry
	window int
}

// NewAgent creates the agent node. window caps how many trailing messages
// are sent to the model (the system message is always kept); <= 0 uses the
// default of 40.
func NewAgent(m model.ChatModel, reg *tool.Registry, window int) *Agent {
	if window <= 0 {
		window = 40
	}
	return &Agent{model: m, tools: reg, window: window}
}

// Run implements graph.Node.
func (a *Agent) Run(ctx context.Context, state graph.State) graph.NodeResult {
	msgs := windowHistory(Messages(state), a.window)

	out, err := a.model.Chat(ctx, msgs, a.tools.Specs())
	if err != nil {
		return graph.Fail(fmt.Errorf("chat model: %w", err))
	}

	reply := model.Message{
		Role:      model.RoleAssistant,
		Content:   out.Text,
		ToolCalls: out.ToolCalls,
	}

	delta := graph.State{
		FieldMessages: []model.Message{reply},
		FieldProgress: []string{"Agent response generated"},
	}
	if Text(state, FieldQuery) == "" {
		delta[FieldQuery] = "General research"
	}
	return graph.Update(delta)
}

// windowHistory keeps the leading system message plus the last n other
// messages, bounding what each model call pays for as the conversation
// grows.
func windowHistory(msgs []model.Message, n int) []model.Message {
	var system []model.Message
	rest := msgs
	if len(msgs) > 0 && msgs[0].Role == model.RoleSystem {
		system = msgs[:1]
		rest = msgs[1:]
	}
	if len(rest) > n {
		rest = rest[len(rest)-n:]
	}
	return append(append([]model.Message{}, system...), rest...)
}

// ToolExecutor runs the tool calls pending on the last assistant message
// and appends their results as tool messages, along with progress and
// source tracking.
type ToolExecutor struct {
	tools *tool.Registry
}

// NewToolExecutor creates the tool-execution node.
func NewToolExecutor(reg *tool.Registry) *ToolExecutor {
	return &ToolExecutor{tools: reg}
}

// Run implements graph.Node. Tool failures are converted into textual
// results so the conversation continues; they are never surfaced as node
// errors.
func (t *ToolExecutor) Run(ctx context.Context, state graph.State) graph.NodeResult {
	last, ok := lastMessage(state)
	if !ok || last.Role != model.RoleAssistant {
		return graph.Fail(errors.New("no assistant message with tool calls"))
	}

	var (
		results  []model.Message
		progress []string
		sources  []string
	)
	for _, call := range last.ToolCalls {
		if call.Name == ApprovalToolName {
			// Approval calls belong to the approval node.
			continue
		}

		out, err := t.tools.Invoke(ctx, call.Name, call.Input)
		if err != nil {
			out = fmt.Sprintf("Error executing %s: %v", call.Name, err)
		}
		results = append(results, model.Message{
			Role:       model.RoleTool,
			Content:    out,
			ToolCallID: call.ID,
		})
		progress = append(progress, "Executed "+call.Name)

		switch call.Name {
		case "web_search":
			if q, ok := call.Input["query"].(string); ok && q != "" {
				sources = append(sources, "web: "+q)
			}
		case "document_lookup":
			if id, ok := call.Input["document_id"].(string); ok && id != "" {
				sources = append(sources, "document: "+id)
			}
		}
	}

	if len(results) == 0 {
		// Model produced no runnable calls this turn; let the agent
		// reconsider rather than fail the run.
		results = append(results, model.Message{
			Role:    model.RoleTool,
			Content: "No tool calls to execute.",
		})
		progress = append(progress, "No tools executed")
	}

	delta := graph.State{
		FieldMessages: results,
		FieldProgress: progress,
	}
	if len(sources) > 0 {
		delta[FieldSources] = sources
	}
	return graph.Update(delta)
}

// Approval is the human-in-the-loop gate. On first entry it suspends the
// run with an approval-request payload; when the engine re-invokes it with
// the resume decision, it records the verdict as a tool result and lets the
// agent continue.
type Approval struct{}

// Run implements graph.Node.
func (*Approval) Run(ctx context.Context, state graph.State) graph.NodeResult {
	call, ok := pendingApprovalCall(state)
	if !ok {
		return graph.Fail(errors.New("approval node reached without a pending approval request"))
	}
	topic, _ := call.Input["topic"].(string)

	decision, resumed := graph.ResumeValue(ctx)
	if !resumed {
		return graph.Suspend(map[string]any{
			"type":    "approval_request",
			"topic":   topic,
			"message": fmt.Sprintf("The topic '%s' requires human approval before proceeding with research.", topic),
		})
	}

	approved := decisionApproved(decision)
	verdict := "denied"
	if approved {
		verdict = "granted"
	}

	return graph.Update(graph.State{
		FieldMessages: []model.Message{{
			Role:       model.RoleTool,
			Content:    fmt.Sprintf("Human approval %s for topic: %s", verdict, topic),
			ToolCallID: call.ID,
		}},
		FieldApprovedByHuman:  approved,
		FieldRequiresApproval: false,
		FieldProgress:         []string{"Approval " + verdict},
	})
}

// pendingApprovalCall finds the approval tool call on the last assistant
// message.
func pendingApprovalCall(state graph.State) (model.ToolCall, bool) {
	msgs := Messages(state)
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != model.RoleAssistant {
			continue
		}
		for _, call := range msgs[i].ToolCalls {
			if call.Name == ApprovalToolName {
				return call, true
			}
		}
		return model.ToolCall{}, false
	}
	return model.ToolCall{}, false
}

// decisionApproved interprets the resume decision: a bare bool, or a map
// with an "approved" key (the shape the CLI sends).
func decisionApproved(decision any) bool {
	switch d := decision.(type) {
	case bool:
		return d
	case map[string]any:
		b, _ := d["approved"].(bool)
		return b
	}
	return false
}

// Summarizer produces the final research summary and ends the run.
type Summarizer struct {
	model model.ChatModel
}

// NewSummarizer creates the summarize node. With a nil model the summary is
// assembled deterministically from progress and sources.
func NewSummarizer(m model.ChatModel) *Summarizer {
	return &Summarizer{model: m}
}

// Run implements graph.Node.
func (s *Summarizer) Run(ctx context.Context, state graph.State) graph.NodeResult {
	summary := s.compose(ctx, state)

	return graph.Update(graph.State{
		FieldSummary: summary,
		FieldMessages: []model.Message{{
			Role:    model.RoleAssistant,
			Content: summary,
		}},
		FieldProgress: []string{"Research summarized"},
	})
}

func (s *Summarizer) compose(ctx context.Context, state graph.State) string {
	if s.model != nil {
		prompt := fmt.Sprintf(
			"Based on the research conversation, provide a comprehensive summary.\n"+
				"Main research query: %s\nResearch progress: %v\nSources consulted: %v",
			Text(state, FieldQuery),
			Strings(state, FieldProgress),
			Strings(state, FieldSources),
		)
		msgs := append(Messages(state), model.Message{Role: model.RoleHuman, Content: prompt})
		if out, err := s.model.Chat(ctx, msgs, nil); err == nil && out.Text != "" {
			return out.Text
		}
		// Model unavailable; fall through to the deterministic summary.
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Research summary for: %s\n", Text(state, FieldQuery))
	if sources := Strings(state, FieldSources); len(sources) > 0 {
		b.WriteString("Sources consulted:\n")
		for _, src := range sources {
			fmt.Fprintf(&b, "  - %s\n", src)
		}
	}
	b.WriteString("Progress:\n")
	for _, p := range Strings(state, FieldProgress) {
		fmt.Fprintf(&b, "  - %s\n", p)
	}
	return b.String()
}
