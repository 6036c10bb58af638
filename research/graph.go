package research

import (
	"github.com/flowgraph/flowgraph/graph"
	"github.com/flowgraph/flowgraph/graph/model"
	"github.com/flowgraph/flowgraph/graph/tool"
)

// Node names in the research graph.
const (
	NodeAgent     = "agent"
	NodeTools     = "tools"
	NodeApproval  = "approval"
	NodeSummarize = "summarize"
)

// Config assembles the research graph's collaborators.
type Config struct {
	// Model is the chat model the agent and summarizer call.
	Model model.ChatModel

	// Tools is the tool registry; nil uses NewToolRegistry.
	Tools *tool.Registry

	// ProgressThreshold gates summarization; <= 0 uses
	// DefaultProgressThreshold.
	ProgressThreshold int

	// HistoryWindow caps messages per model call; <= 0 uses the agent
	// default.
	HistoryWindow int

	// SummarizeWithModel makes the summarize node ask the model for the
	// closing summary instead of composing it deterministically.
	SummarizeWithModel bool
}

// BuildGraph constructs the research-assistant graph:
//
//	agent -(router)-> tools | approval | summarize
//	tools -> agent
//	approval -> agent
//	summarize -> End
func BuildGraph(cfg Config) (*graph.Graph, error) {
	reg := cfg.Tools
	if reg == nil {
		var err error
		reg, err = NewToolRegistry()
		if err != nil {
			return nil, err
		}
	}

	var summaryModel model.ChatModel
	if cfg.SummarizeWithModel {
		summaryModel = cfg.Model
	}

	g := graph.NewGraph().
		AddNode(NodeAgent, NewAgent(cfg.Model, reg, cfg.HistoryWindow)).
		AddNode(NodeTools, NewToolExecutor(reg)).
		AddNode(NodeApproval, &Approval{}).
		AddNode(NodeSummarize, NewSummarizer(summaryModel)).
		SetEntry(NodeAgent).
		AddConditionalEdges(NodeAgent, RouteAfterAgent(cfg.ProgressThreshold), map[string]string{
			LabelTools:     NodeTools,
			LabelApproval:  NodeApproval,
			LabelSummarize: NodeSummarize,
		}).
		AddEdge(NodeTools, NodeAgent).
		AddEdge(NodeApproval, NodeAgent).
		AddEdge(NodeSummarize, graph.End)

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
