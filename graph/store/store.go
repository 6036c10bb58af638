// Package store provides durable checkpoint persistence for workflow threads.
//
// A checkpoint is the authoritative record of a thread's progress: the latest
// merged state, the sequence number of the last completed superstep, the next
// node to execute, and any pending interrupt awaiting an external decision.
// One checkpoint exists per thread; a later Put supersedes the earlier one.
//
// Implementations must make Put atomic per thread id: a failed write leaves
// the previous checkpoint readable and intact (write-then-swap, never a
// partial overwrite).
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no checkpoint exists for a thread id.
var ErrNotFound = errors.New("not found")

// Interrupt captures a node's suspension: the node that suspended and the
// payload it produced for the external decision-maker. The node id is what
// resume uses to re-enter the graph at the right place.
type Interrupt struct {
	// NodeID is the node that raised the suspension. Resume re-invokes it.
	NodeID string `json:"node_id"`

	// Payload is opaque structured data describing why execution paused
	// (e.g. an approval request with topic and message).
	Payload map[string]any `json:"payload"`
}

// Checkpoint is the durable snapshot of one thread.
//
// Seq increases by one per completed superstep. Next records the node the
// engine will execute on the following superstep, which makes a checkpoint
// written at a cancellation boundary resumable. Interrupt, when non-nil,
// marks the thread as suspended awaiting a resume decision.
type Checkpoint struct {
	ThreadID string `json:"thread_id"`

	// Seq is the step sequence number. Checkpoints for a thread are
	// strictly ordered by Seq; a Put with a new Seq supersedes the row.
	Seq int `json:"seq"`

	// State is the latest merged session state.
	State map[string]any `json:"state"`

	// Interrupt is the pending suspension, or nil when none pends.
	Interrupt *Interrupt `json:"interrupt,omitempty"`

	// Next is the node to execute on the next superstep. Empty once a run
	// completes or before the first superstep of a fresh thread.
	Next string `json:"next,omitempty"`

	// LastNode is the most recent node that completed successfully.
	LastNode string `json:"last_node,omitempty"`

	// LastError records a failure surfaced to the caller, persisted
	// alongside the last good state so a failed thread is never ambiguous.
	LastError string `json:"last_error,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists checkpoints keyed by thread id.
//
// Get returns ErrNotFound when the thread has never been checkpointed.
// Put replaces the thread's checkpoint atomically.
type Store interface {
	Get(ctx context.Context, threadID string) (Checkpoint, error)
	Put(ctx context.Context, threadID string, cp Checkpoint) error
}
