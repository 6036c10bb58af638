package research

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/flowgraph/flowgraph/graph/tool"
)

// ApprovalToolName is the tool the model calls to request human sign-off.
// The router diverts any message carrying this call to the approval node,
// which suspends the run; the tool body itself never executes.
const ApprovalToolName = "request_human_approval"

// searchCorpus holds the canned search results, keyed by a keyword matched
// against the query.
var searchCorpus = map[string]string{
	"climate change":    "Recent studies show global temperatures rising 1.1C since pre-industrial times...",
	"ai research":       "Latest breakthroughs in transformer models and multimodal AI systems...",
	"quantum computing": "IBM and Google achieve quantum supremacy with 1000+ qubit systems...",
	"space exploration": "NASA's Artemis program targets moon landing by 2026...",
}

var documents = map[string]string{
	"DOC-001": "Internal research on renewable energy shows 40% efficiency gains...",
	"DOC-002": "Market analysis indicates strong growth in AI sector...",
	"DOC-003": "Technical specifications for quantum encryption protocols...",
}

// NewToolRegistry registers the research tools: web search and document
// lookup over canned corpora, a statistics calculator, and the approval
// marker tool.
func NewToolRegistry() (*tool.Registry, error) {
	reg := tool.NewRegistry()
	for _, t := range []tool.Tool{
		&tool.Func{
			ToolName:        "web_search",
			ToolDescription: "Search the web for information",
			ToolSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string", "description": "Search query"},
				},
				"required": []string{"query"},
			},
			Fn: webSearch,
		},
		&tool.Func{
			ToolName:        "document_lookup",
			ToolDescription: "Look up information from internal documents",
			ToolSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"document_id": map[string]any{"type": "string", "description": "Document id, e.g. DOC-001"},
				},
				"required": []string{"document_id"},
			},
			Fn: documentLookup,
		},
		&tool.Func{
			ToolName:        "calculate_stats",
			ToolDescription: "Perform calculations and statistical analysis over a comma-separated list of numbers",
			ToolSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"numbers": map[string]any{"type": "string", "description": "Comma-separated numbers"},
				},
				"required": []string{"numbers"},
			},
			Fn: calculateStats,
		},
		&tool.Func{
			ToolName:        ApprovalToolName,
			ToolDescription: "Request human approval for sensitive research topics",
			ToolSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"topic": map[string]any{"type": "string", "description": "Topic needing approval"},
				},
				"required": []string{"topic"},
			},
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				// Never reached: the router sends approval calls to the
				// approval node before tool execution.
				topic, _ := args["topic"].(string)
				return fmt.Sprintf("Approval pending for topic: %s", topic), nil
			},
		},
	} {
		if err := reg.Register(t); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func webSearch(ctx context.Context, args map[string]any) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	query, _ := args["query"].(string)

	keywords := make([]string, 0, len(searchCorpus))
	for k := range searchCorpus {
		keywords = append(keywords, k)
	}
	sort.Strings(keywords)

	for _, keyword := range keywords {
		if strings.Contains(strings.ToLower(query), keyword) {
			return fmt.Sprintf("Search results for '%s':\n%s", query, searchCorpus[keyword]), nil
		}
	}
	return fmt.Sprintf("No specific results found for '%s'. General information available.", query), nil
}

func documentLookup(ctx context.Context, args map[string]any) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	id, _ := args["document_id"].(string)
	if doc, ok := documents[id]; ok {
		return doc, nil
	}
	return fmt.Sprintf("Document %s not found in database", id), nil
}

func calculateStats(ctx context.Context, args map[string]any) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	raw, _ := args["numbers"].(string)

	var values []float64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return fmt.Sprintf("Error in calculation: %q is not a number", part), nil
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return "Error in calculation: no numbers provided", nil
	}

	sum := 0.0
	minV, maxV := values[0], values[0]
	for _, v := range values {
		sum += v
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	return fmt.Sprintf("count=%d sum=%g mean=%g min=%g max=%g",
		len(values), sum, sum/float64(len(values)), minV, maxV), nil
}
