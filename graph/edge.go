package graph

// End is the special routing target that terminates a run. Use it as an
// edge destination or a conditional-edge label target.
const End = "__end__"

// RouterFunc picks the label for a conditional edge from the post-merge
// state. Routers must be pure functions of the state they are given:
// identical state, identical label, no hidden memory.
type RouterFunc func(state State) string

// conditionalEdge routes from one node to one of several successors based on
// the label a router returns. Labels are resolved against a static mapping
// fixed at graph-build time; a label outside the mapping is a fatal
// graph-definition error (ErrCodeUnknownRoutingLabel).
type conditionalEdge struct {
	router  RouterFunc
	targets map[string]string
}
