package graph

import (
	"context"

	"github.com/flowgraph/flowgraph/graph/store"
)

// Interrupt is the payload a node produces when it suspends a run. The
// engine persists it with the checkpoint; a later Resume re-enters the
// suspending node with the caller's decision injected via context.
type Interrupt = store.Interrupt

// Node is a processing unit in the workflow graph, identified by the name it
// was registered under.
//
// A node receives a deep copy of the current session state, may call
// external collaborators (models, tools), and returns exactly one of:
//   - Delta: a partial state update merged via the reducer registry
//   - Interrupt: a suspension awaiting an external decision
//   - Err: a node-local failure
//
// Nodes are stateless across invocations; everything they need lives in the
// state. A node that suspends must be re-entrant: resume re-invokes it with
// the same state plus the decision (see ResumeValue), not a continuation of
// its previous call.
type Node interface {
	Run(ctx context.Context, state State) NodeResult
}

// NodeResult is the tagged outcome of a node invocation. Exactly one of
// Delta, Interrupt, or Err should be set; the engine checks Err first, then
// Interrupt, then treats Delta (possibly empty) as a normal update.
type NodeResult struct {
	// Delta is the partial state update produced by this node. May touch
	// any subset of registered fields. An empty Delta is a valid no-op.
	Delta State

	// Interrupt, when non-nil, suspends the run before any merge. The
	// engine fills in the suspending node's id.
	Interrupt *Interrupt

	// Route optionally overrides the graph's edges for this superstep.
	// Leave zero to follow the edges declared at build time.
	Route Next

	// Err is a node-local failure. The engine surfaces it without
	// retrying; nodes that want a failed external call to continue the
	// run must convert the failure into state (e.g. an error message)
	// instead of returning it here.
	Err error
}

// Next optionally redirects execution after a node completes, overriding the
// declared edges. Most nodes leave it zero and let the graph route.
type Next struct {
	// To names the next node to execute. Mutually exclusive with Terminal.
	To string

	// Terminal ends the run after this node's update is merged.
	Terminal bool
}

// Stop returns a Next that terminates the run.
func Stop() Next {
	return Next{Terminal: true}
}

// Goto returns a Next that routes to the named node.
func Goto(nodeID string) Next {
	return Next{To: nodeID}
}

// Update returns a NodeResult carrying a partial state update.
func Update(delta State) NodeResult {
	return NodeResult{Delta: delta}
}

// Suspend returns a NodeResult that suspends the run with the given payload.
// The payload should carry everything the external decision-maker needs
// (reason, topic, requested action).
func Suspend(payload map[string]any) NodeResult {
	return NodeResult{Interrupt: &Interrupt{Payload: payload}}
}

// Fail returns a NodeResult carrying a node-local error.
func Fail(err error) NodeResult {
	return NodeResult{Err: err}
}

// NodeFunc adapts a plain function to the Node interface.
//
//	g.AddNode("greet", graph.NodeFunc(func(ctx context.Context, s graph.State) graph.NodeResult {
//	    return graph.Update(graph.State{"greeting": "hello"})
//	}))
type NodeFunc func(ctx context.Context, state State) NodeResult

// Run implements the Node interface for NodeFunc.
func (f NodeFunc) Run(ctx context.Context, state State) NodeResult {
	return f(ctx, state)
}
