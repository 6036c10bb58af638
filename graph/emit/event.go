// Package emit provides observability events for workflow execution.
//
// The engine emits one Event per notable occurrence (superstep completed,
// run suspended, run failed). Emitters decide where those events go: a log
// writer, a structured logger, an OpenTelemetry tracer, or nowhere.
package emit

// Event describes a single occurrence during a thread's execution.
type Event struct {
	// ThreadID scopes the event to one workflow thread.
	ThreadID string `json:"thread_id"`

	// Seq is the checkpoint sequence number at the time of the event.
	Seq int `json:"seq"`

	// NodeID is the node involved, if any.
	NodeID string `json:"node_id,omitempty"`

	// Msg is a short machine-stable description, e.g. "step_complete",
	// "run_suspended".
	Msg string `json:"msg"`

	// Meta carries event-specific detail (routing labels, error text,
	// interrupt payloads).
	Meta map[string]any `json:"meta,omitempty"`
}
