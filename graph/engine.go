package graph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/flowgraph/flowgraph/graph/emit"
	"github.com/flowgraph/flowgraph/graph/store"
)

// Status is the outcome of a Run or Resume call.
type Status string

const (
	// StatusCompleted means the run reached End; State is final.
	StatusCompleted Status = "completed"

	// StatusSuspended means the run paused. With a non-nil Interrupt the
	// pause is a node suspension awaiting Resume; with a nil Interrupt the
	// run was cancelled at a superstep boundary and a later Run picks up
	// where it stopped.
	StatusSuspended Status = "suspended"

	// StatusFailed means the run hit a fatal error, recorded in the
	// checkpoint's LastError next to the last good state.
	StatusFailed Status = "failed"
)

// RunResult reports the outcome of one Run or Resume call.
type RunResult struct {
	Status Status

	// State is the latest merged session state (final state when
	// Completed).
	State State

	// Interrupt is the suspension payload when Status is StatusSuspended
	// because a node suspended. The caller uses it to collect an external
	// decision and call Resume.
	Interrupt *Interrupt

	// LastNode is the most recent node that completed successfully.
	LastNode string

	// Seq is the checkpoint sequence number after this call.
	Seq int
}

// Engine executes a Graph over durable per-thread checkpoints.
//
// The engine drives the superstep loop: select the active node, invoke it,
// merge its partial update through the reducer registry, persist a
// checkpoint, route to the next node, repeat until End or a suspension.
// All state lives in the store; the engine itself holds no per-thread state
// beyond a lock, so Suspended threads survive process restarts.
//
// Each thread's supersteps execute sequentially under a per-thread lock.
// Different threads run concurrently without contending.
type Engine struct {
	graph    *Graph
	reducers Reducers
	store    store.Store
	emitter  emit.Emitter
	cfg      engineConfig

	// locks maps thread id to its *sync.Mutex. Per-thread striping keeps
	// unrelated threads from serializing on a global lock.
	locks sync.Map
}

// New creates an engine for the given graph definition. The graph is
// validated here; reducers must cover every field any node writes. A nil
// emitter defaults to NullEmitter.
func New(g *Graph, reducers Reducers, st store.Store, emitter emit.Emitter, opts ...Option) (*Engine, error) {
	if g == nil {
		return nil, &EngineError{Message: "graph is nil", Code: ErrCodeInvalidGraph}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if st == nil {
		return nil, &EngineError{Message: "store is nil", Code: ErrCodeInvalidGraph}
	}
	if len(reducers) == 0 {
		return nil, &EngineError{Message: "no reducers registered", Code: ErrCodeInvalidGraph}
	}
	if emitter == nil {
		emitter = emit.NewNullEmitter()
	}

	cfg := engineConfig{maxSteps: 100}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return &Engine{
		graph:    g,
		reducers: reducers,
		store:    st,
		emitter:  emitter,
		cfg:      cfg,
	}, nil
}

// Run starts or continues a thread from its entry point.
//
// The caller-supplied initial fields are merged into the thread's state
// through the reducers, then supersteps execute until the graph reaches End
// (StatusCompleted), a node suspends (StatusSuspended with the interrupt
// payload), or a fatal error occurs (StatusFailed plus a non-nil error).
//
// Run on a thread with a pending interrupt does not execute anything; it
// returns StatusSuspended with the stored payload again. Only Resume clears
// an interrupt.
func (e *Engine) Run(ctx context.Context, threadID string, initial State) (RunResult, error) {
	unlock := e.lockThread(threadID)
	defer unlock()
	e.cfg.metrics.threadStarted()
	defer e.cfg.metrics.threadFinished()

	cp, err := e.loadCheckpoint(ctx, threadID)
	if errors.Is(err, store.ErrNotFound) {
		cp = store.Checkpoint{ThreadID: threadID, State: map[string]any{}}
	} else if err != nil {
		return RunResult{Status: StatusFailed}, err
	}

	if cp.Interrupt != nil {
		return RunResult{
			Status:    StatusSuspended,
			State:     State(cp.State),
			Interrupt: cp.Interrupt,
			LastNode:  cp.LastNode,
			Seq:       cp.Seq,
		}, nil
	}

	if len(initial) > 0 {
		merged, err := e.reducers.Apply(State(cp.State), initial)
		if err != nil {
			return e.fail(ctx, threadID, &cp, "", err)
		}
		cp.State = merged
	}

	// A checkpoint with Next set belongs to a run that was cancelled (or
	// the process died) between supersteps; pick up there instead of the
	// entry node.
	node := e.graph.entry
	if cp.Next != "" {
		node = cp.Next
	}

	return e.loop(ctx, threadID, cp, node, nil, false)
}

// Resume re-enters a suspended thread with the caller's decision.
//
// The suspended node is re-invoked with the same state plus the decision,
// available inside the node via ResumeValue. Resume on a thread with no
// pending interrupt fails with ErrCodeResumeMismatch and leaves the
// checkpoint unchanged; so does resuming when the suspended node no longer
// exists in the current graph definition.
func (e *Engine) Resume(ctx context.Context, threadID string, decision any) (RunResult, error) {
	unlock := e.lockThread(threadID)
	defer unlock()
	e.cfg.metrics.threadStarted()
	defer e.cfg.metrics.threadFinished()

	cp, err := e.loadCheckpoint(ctx, threadID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && cp.Interrupt == nil) {
		e.cfg.metrics.recordResume("mismatch")
		return RunResult{Status: StatusFailed, State: State(cp.State), LastNode: cp.LastNode, Seq: cp.Seq},
			&EngineError{
				Message: fmt.Sprintf("thread %q has no pending interrupt", threadID),
				Code:    ErrCodeResumeMismatch,
			}
	}
	if err != nil {
		return RunResult{Status: StatusFailed}, err
	}

	node := cp.Interrupt.NodeID
	if _, ok := e.graph.node(node); !ok {
		e.cfg.metrics.recordResume("mismatch")
		return RunResult{Status: StatusFailed, State: State(cp.State), LastNode: cp.LastNode, Seq: cp.Seq},
			&EngineError{
				Message: fmt.Sprintf("suspended node %q no longer exists in the graph", node),
				Code:    ErrCodeResumeMismatch,
			}
	}

	e.cfg.metrics.recordResume("accepted")
	e.emit(threadID, cp.Seq, node, "run_resumed", nil)
	return e.loop(ctx, threadID, cp, node, decision, true)
}

// loop drives supersteps until End, suspension, failure, or cancellation.
func (e *Engine) loop(ctx context.Context, threadID string, cp store.Checkpoint, node string, decision any, resuming bool) (RunResult, error) {
	for step := 0; ; step++ {
		if e.cfg.maxSteps > 0 && step >= e.cfg.maxSteps {
			return e.fail(ctx, threadID, &cp, node, &EngineError{
				Message: fmt.Sprintf("exceeded %d supersteps", e.cfg.maxSteps),
				Code:    ErrCodeMaxStepsExceeded,
			})
		}

		// Cancellation takes effect only between supersteps: record the
		// node to run next so a later Run picks up exactly here.
		select {
		case <-ctx.Done():
			cp.Next = node
			if perr := e.putCheckpoint(context.WithoutCancel(ctx), threadID, &cp); perr != nil {
				return RunResult{Status: StatusFailed, State: State(cp.State), LastNode: cp.LastNode, Seq: cp.Seq}, perr
			}
			e.emit(threadID, cp.Seq, node, "run_cancelled", nil)
			return RunResult{Status: StatusSuspended, State: State(cp.State), LastNode: cp.LastNode, Seq: cp.Seq}, ctx.Err()
		default:
		}

		nodeImpl, ok := e.graph.node(node)
		if !ok {
			return e.fail(ctx, threadID, &cp, node, &EngineError{
				Message: fmt.Sprintf("node %q not found in graph", node),
				Code:    ErrCodeNodeNotFound,
			})
		}

		// Nodes get a deep copy; the checkpointed state is only ever
		// modified by reducer merges.
		snapshot, err := State(cp.State).Clone()
		if err != nil {
			return e.fail(ctx, threadID, &cp, node, &EngineError{
				Message: "state is not serializable",
				Code:    ErrCodeStoreUnavailable,
				Cause:   err,
			})
		}

		invCtx := ctx
		if resuming && step == 0 {
			invCtx = withResumeValue(ctx, decision)
		}

		start := time.Now()
		result := nodeImpl.Run(invCtx, snapshot)
		latency := time.Since(start)

		if result.Err != nil {
			e.cfg.metrics.recordStep(node, "error", latency)
			return e.fail(ctx, threadID, &cp, node, &NodeError{
				Message: "node invocation failed",
				Code:    ErrCodeNodeInvocation,
				NodeID:  node,
				Cause:   result.Err,
			})
		}

		if result.Interrupt != nil {
			it := *result.Interrupt
			it.NodeID = node
			cp.Seq++
			cp.Interrupt = &it
			cp.Next = node
			cp.LastError = ""
			// The node already suspended; persist even if the caller's
			// context was cancelled during the invocation.
			if perr := e.putCheckpoint(context.WithoutCancel(ctx), threadID, &cp); perr != nil {
				e.cfg.metrics.recordStep(node, "error", latency)
				return RunResult{Status: StatusFailed, State: State(cp.State), LastNode: cp.LastNode, Seq: cp.Seq}, perr
			}
			e.cfg.metrics.recordStep(node, "suspended", latency)
			e.cfg.metrics.recordRun("suspended")
			e.emit(threadID, cp.Seq, node, "run_suspended", map[string]any{"payload": it.Payload})
			return RunResult{
				Status:    StatusSuspended,
				State:     State(cp.State),
				Interrupt: &it,
				LastNode:  cp.LastNode,
				Seq:       cp.Seq,
			}, nil
		}

		merged, err := e.reducers.Apply(State(cp.State), result.Delta)
		if err != nil {
			e.cfg.metrics.recordStep(node, "error", latency)
			return e.fail(ctx, threadID, &cp, node, err)
		}

		// Route on the post-merge state, before persisting, so the
		// checkpoint records where execution continues.
		next, err := e.nextNode(node, result.Route, merged)
		if err != nil {
			e.cfg.metrics.recordStep(node, "error", latency)
			return e.fail(ctx, threadID, &cp, node, err)
		}

		cp.Seq++
		cp.State = merged
		cp.Interrupt = nil
		cp.LastNode = node
		cp.LastError = ""
		cp.Next = ""
		if next != End {
			cp.Next = next
		}
		// The superstep finished; its checkpoint is written even when the
		// caller's context was cancelled mid-invocation. Cancellation is
		// honored at the top of the next iteration.
		if perr := e.putCheckpoint(context.WithoutCancel(ctx), threadID, &cp); perr != nil {
			e.cfg.metrics.recordStep(node, "error", latency)
			return RunResult{Status: StatusFailed, State: State(cp.State), LastNode: cp.LastNode, Seq: cp.Seq}, perr
		}

		e.cfg.metrics.recordStep(node, "success", latency)
		e.emit(threadID, cp.Seq, node, "step_complete", map[string]any{"next": next})

		if next == End {
			e.cfg.metrics.recordRun("completed")
			e.emit(threadID, cp.Seq, node, "run_complete", nil)
			return RunResult{
				Status:   StatusCompleted,
				State:    State(cp.State),
				LastNode: node,
				Seq:      cp.Seq,
			}, nil
		}

		node = next
	}
}

// nextNode resolves the successor: a node's explicit Route wins, otherwise
// the graph's declared edges decide.
func (e *Engine) nextNode(node string, override Next, state State) (string, error) {
	if override.Terminal {
		return End, nil
	}
	if override.To != "" {
		if override.To != End {
			if _, ok := e.graph.node(override.To); !ok {
				return "", &EngineError{
					Message: fmt.Sprintf("node %q routed to unknown node %q", node, override.To),
					Code:    ErrCodeNodeNotFound,
				}
			}
		}
		return override.To, nil
	}
	return e.graph.route(node, state)
}

// fail records the error in the checkpoint next to the last good state and
// surfaces it. The prior state is never modified, so a failed thread is
// inspectable and unambiguous.
func (e *Engine) fail(ctx context.Context, threadID string, cp *store.Checkpoint, node string, cause error) (RunResult, error) {
	cp.LastError = cause.Error()
	if perr := e.putCheckpoint(context.WithoutCancel(ctx), threadID, cp); perr != nil {
		e.emit(threadID, cp.Seq, node, "checkpoint_error", map[string]any{"error": perr.Error()})
	}
	e.cfg.metrics.recordRun("failed")
	e.emit(threadID, cp.Seq, node, "run_failed", map[string]any{"error": cause.Error()})
	return RunResult{
		Status:   StatusFailed,
		State:    State(cp.State),
		LastNode: cp.LastNode,
		Seq:      cp.Seq,
	}, cause
}

func (e *Engine) loadCheckpoint(ctx context.Context, threadID string) (store.Checkpoint, error) {
	cp, err := e.store.Get(ctx, threadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Checkpoint{}, err
		}
		return store.Checkpoint{}, &EngineError{
			Message: "checkpoint read failed for thread " + threadID,
			Code:    ErrCodeStoreUnavailable,
			Cause:   err,
		}
	}
	if cp.State == nil {
		cp.State = map[string]any{}
	}
	return cp, nil
}

func (e *Engine) putCheckpoint(ctx context.Context, threadID string, cp *store.Checkpoint) error {
	cp.ThreadID = threadID
	cp.UpdatedAt = time.Now().UTC()
	if err := e.store.Put(ctx, threadID, *cp); err != nil {
		return &EngineError{
			Message: "checkpoint write failed for thread " + threadID,
			Code:    ErrCodeStoreUnavailable,
			Cause:   err,
		}
	}
	return nil
}

// lockThread serializes supersteps per thread id.
func (e *Engine) lockThread(threadID string) func() {
	v, _ := e.locks.LoadOrStore(threadID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (e *Engine) emit(threadID string, seq int, nodeID, msg string, meta map[string]any) {
	e.emitter.Emit(emit.Event{
		ThreadID: threadID,
		Seq:      seq,
		NodeID:   nodeID,
		Msg:      msg,
		Meta:     meta,
	})
}
