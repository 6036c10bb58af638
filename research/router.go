package research

import "github.com/flowgraph/flowgraph/graph"

// Routing labels returned by the post-agent router. Each maps to a node in
// BuildGraph's conditional-edge table.
const (
	LabelTools     = "tools"
	LabelApproval  = "approval"
	LabelSummarize = "summarize"
)

// DefaultProgressThreshold is how many progress entries must accumulate
// before a toolless agent turn routes to summarize instead of looping.
const DefaultProgressThreshold = 3

// RouteAfterAgent returns the router applied to the post-merge state after
// each agent turn. It is a pure function of the state:
//
//   - the last message carries tool calls, one of them the approval tool:
//     route to approval, regardless of progress
//   - the last message carries other tool calls: route to tools
//   - no tool calls and progress exceeds the threshold: route to summarize
//   - otherwise: loop back through tools
func RouteAfterAgent(threshold int) graph.RouterFunc {
	if threshold <= 0 {
		threshold = DefaultProgressThreshold
	}
	return func(state graph.State) string {
		last, ok := lastMessage(state)
		if ok && len(last.ToolCalls) > 0 {
			for _, call := range last.ToolCalls {
				if call.Name == ApprovalToolName {
					return LabelApproval
				}
			}
			return LabelTools
		}

		if len(Strings(state, FieldProgress)) > threshold {
			return LabelSummarize
		}
		return LabelTools
	}
}
