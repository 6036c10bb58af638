package graph

import (
	"fmt"
	"sort"
)

// Graph is an explicit workflow definition: named nodes, the edges between
// them, and the entry node. Build it once with the Add* methods, then hand
// it to New; the engine treats it as immutable from that point on.
//
//	g := graph.NewGraph().
//	    AddNode("agent", agentNode).
//	    AddNode("tools", toolsNode).
//	    SetEntry("agent").
//	    AddConditionalEdges("agent", route, map[string]string{
//	        "tools": "tools",
//	        "done":  graph.End,
//	    }).
//	    AddEdge("tools", "agent")
//
// Build-time mistakes (duplicate nodes, edges to unknown nodes, missing
// entry) are collected and reported by Validate, which New calls.
type Graph struct {
	entry       string
	nodes       map[string]Node
	edges       map[string]string
	conditional map[string]conditionalEdge
	errs        []error
}

// NewGraph creates an empty graph definition.
func NewGraph() *Graph {
	return &Graph{
		nodes:       make(map[string]Node),
		edges:       make(map[string]string),
		conditional: make(map[string]conditionalEdge),
	}
}

// AddNode registers a node under a unique name.
func (g *Graph) AddNode(id string, n Node) *Graph {
	if id == "" || id == End {
		g.errs = append(g.errs, fmt.Errorf("invalid node id %q", id))
		return g
	}
	if n == nil {
		g.errs = append(g.errs, fmt.Errorf("node %q is nil", id))
		return g
	}
	if _, dup := g.nodes[id]; dup {
		g.errs = append(g.errs, fmt.Errorf("node %q registered twice", id))
		return g
	}
	g.nodes[id] = n
	return g
}

// SetEntry names the node where a fresh run starts.
func (g *Graph) SetEntry(id string) *Graph {
	g.entry = id
	return g
}

// AddEdge declares an unconditional edge: after from completes, to runs
// next. Use End as to for a terminal edge.
func (g *Graph) AddEdge(from, to string) *Graph {
	if _, dup := g.edges[from]; dup {
		g.errs = append(g.errs, fmt.Errorf("node %q already has an outgoing edge", from))
		return g
	}
	g.edges[from] = to
	return g
}

// AddConditionalEdges declares a routed edge: after from completes, router
// is invoked with the post-merge state and its label is resolved through
// targets. Every label the router can return must appear in targets.
func (g *Graph) AddConditionalEdges(from string, router RouterFunc, targets map[string]string) *Graph {
	if router == nil {
		g.errs = append(g.errs, fmt.Errorf("conditional edge from %q has nil router", from))
		return g
	}
	if len(targets) == 0 {
		g.errs = append(g.errs, fmt.Errorf("conditional edge from %q has no targets", from))
		return g
	}
	if _, dup := g.conditional[from]; dup {
		g.errs = append(g.errs, fmt.Errorf("node %q already has conditional edges", from))
		return g
	}
	g.conditional[from] = conditionalEdge{router: router, targets: targets}
	return g
}

// Validate checks the definition for structural errors: a missing or unknown
// entry node, edges referencing unregistered nodes, or a node declaring both
// edge kinds. Returns an EngineError with ErrCodeInvalidGraph listing the
// first problem found.
func (g *Graph) Validate() error {
	problems := make([]string, 0, len(g.errs))
	for _, err := range g.errs {
		problems = append(problems, err.Error())
	}

	if g.entry == "" {
		problems = append(problems, "no entry node set")
	} else if _, ok := g.nodes[g.entry]; !ok {
		problems = append(problems, fmt.Sprintf("entry node %q not registered", g.entry))
	}

	for from, to := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			problems = append(problems, fmt.Sprintf("edge from unregistered node %q", from))
		}
		if _, cond := g.conditional[from]; cond {
			problems = append(problems, fmt.Sprintf("node %q has both an edge and conditional edges", from))
		}
		if to != End {
			if _, ok := g.nodes[to]; !ok {
				problems = append(problems, fmt.Sprintf("edge from %q to unregistered node %q", from, to))
			}
		}
	}

	for from, ce := range g.conditional {
		if _, ok := g.nodes[from]; !ok {
			problems = append(problems, fmt.Sprintf("conditional edges from unregistered node %q", from))
		}
		for label, to := range ce.targets {
			if to != End {
				if _, ok := g.nodes[to]; !ok {
					problems = append(problems,
						fmt.Sprintf("label %q on node %q maps to unregistered node %q", label, from, to))
				}
			}
		}
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return &EngineError{
		Message: "invalid graph: " + problems[0],
		Code:    ErrCodeInvalidGraph,
	}
}

// node returns the node registered under id.
func (g *Graph) node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// route picks the successor of node id from the post-merge state.
func (g *Graph) route(id string, state State) (string, error) {
	if ce, ok := g.conditional[id]; ok {
		label := ce.router(state)
		to, ok := ce.targets[label]
		if !ok {
			return "", &EngineError{
				Message: fmt.Sprintf("router for node %q returned unmapped label %q", id, label),
				Code:    ErrCodeUnknownRoutingLabel,
			}
		}
		return to, nil
	}

	if to, ok := g.edges[id]; ok {
		return to, nil
	}

	return "", &EngineError{
		Message: fmt.Sprintf("node %q has no outgoing edge", id),
		Code:    ErrCodeNoRoute,
	}
}
