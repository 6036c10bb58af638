package graph

import "context"

// resumeKey is the context key carrying a resume decision into the node
// being re-entered. Unexported; nodes read it through ResumeValue.
type resumeKey struct{}

// withResumeValue attaches the caller's resume decision to the context for
// the first node invocation of a Resume call.
func withResumeValue(ctx context.Context, decision any) context.Context {
	return context.WithValue(ctx, resumeKey{}, decision)
}

// ResumeValue returns the decision passed to Engine.Resume, if this node
// invocation is the re-entry of a suspended node. A node that previously
// suspended checks this first: present means complete the work that paused,
// absent means suspend (or start the work that may pause).
//
//	if decision, ok := graph.ResumeValue(ctx); ok {
//	    return finishWithDecision(state, decision)
//	}
//	return graph.Suspend(map[string]any{"type": "approval_request"})
func ResumeValue(ctx context.Context) (any, bool) {
	v := ctx.Value(resumeKey{})
	return v, v != nil
}
