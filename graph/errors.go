// Package graph provides a workflow-graph execution engine with per-field
// state reducers, conditional routing, durable checkpointing, and
// suspend/resume for human-in-the-loop steps.
package graph

// Error codes returned in EngineError.Code. Configuration and programming
// errors (unknown field, unknown routing label, resume mismatch) are fatal
// and never retried; store failures abort the superstep without touching the
// prior checkpoint.
const (
	ErrCodeUnknownField        = "UNKNOWN_FIELD"
	ErrCodeUnknownRoutingLabel = "UNKNOWN_ROUTING_LABEL"
	ErrCodeNodeInvocation      = "NODE_INVOCATION"
	ErrCodeResumeMismatch      = "RESUME_MISMATCH"
	ErrCodeStoreUnavailable    = "STORE_UNAVAILABLE"
	ErrCodeNodeNotFound        = "NODE_NOT_FOUND"
	ErrCodeNoRoute             = "NO_ROUTE"
	ErrCodeMaxStepsExceeded    = "MAX_STEPS_EXCEEDED"
	ErrCodeInvalidGraph        = "INVALID_GRAPH"
	ErrCodeReducerFailed       = "REDUCER_FAILED"
)

// EngineError is a structured error produced by the engine itself, as
// opposed to an error raised inside a node.
//
// Match on Code with errors.As:
//
//	var ee *graph.EngineError
//	if errors.As(err, &ee) && ee.Code == graph.ErrCodeResumeMismatch {
//	    // no interrupt was pending
//	}
type EngineError struct {
	// Message is the human-readable error description, naming the
	// offending field, label, or node where applicable.
	Message string

	// Code is a machine-readable error code for programmatic handling.
	Code string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// NodeError wraps an error raised by a node's own logic or its external
// calls. The engine surfaces it unretried; whether to retry an external call
// is the node's decision.
type NodeError struct {
	Message string
	Code    string

	// NodeID identifies which node produced this error.
	NodeID string

	// Cause is the underlying error that caused this NodeError.
	Cause error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	if e.NodeID != "" {
		return "node " + e.NodeID + ": " + e.Message
	}
	return e.Message
}

// Unwrap returns the underlying cause error for error wrapping support.
func (e *NodeError) Unwrap() error {
	return e.Cause
}
