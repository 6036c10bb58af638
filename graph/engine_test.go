package graph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/flowgraph/flowgraph/graph/store"
)

func testReducers() Reducers {
	return Reducers{
		"log":      AppendSequence,
		"value":    Overwrite,
		"approved": Overwrite,
	}
}

// appendNode writes one log entry.
func appendNode(entry string) Node {
	return NodeFunc(func(ctx context.Context, s State) NodeResult {
		return Update(State{"log": []string{entry}})
	})
}

func linearGraph(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph().
		AddNode("first", appendNode("first")).
		AddNode("second", appendNode("second")).
		SetEntry("first").
		AddEdge("first", "second").
		AddEdge("second", End)
	if err := g.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return g
}

func newTestEngine(t *testing.T, g *Graph, st store.Store, opts ...Option) *Engine {
	t.Helper()
	e, err := New(g, testReducers(), st, nil, opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func TestEngineRunCompletes(t *testing.T) {
	st := store.NewMemStore()
	e := newTestEngine(t, linearGraph(t), st)

	result, err := e.Run(context.Background(), "t1", State{"log": []string{"start"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", result.Status)
	}

	log := result.State["log"].([]any)
	want := []any{"start", "first", "second"}
	if len(log) != len(want) {
		t.Fatalf("expected %d log entries, got %v", len(want), log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("log[%d]: expected %v, got %v", i, want[i], log[i])
		}
	}
	if result.LastNode != "second" {
		t.Errorf("expected last node second, got %q", result.LastNode)
	}
	if result.Seq != 2 {
		t.Errorf("expected seq 2, got %d", result.Seq)
	}

	// checkpoint reflects the completed run
	cp, err := st.Get(context.Background(), "t1")
	if err != nil {
		t.Fatalf("get checkpoint: %v", err)
	}
	if cp.Next != "" || cp.Interrupt != nil || cp.LastError != "" {
		t.Errorf("completed checkpoint not clean: %+v", cp)
	}
}

func TestEngineConditionalRouting(t *testing.T) {
	g := NewGraph().
		AddNode("decide", NodeFunc(func(ctx context.Context, s State) NodeResult {
			return Update(State{"value": "hot"})
		})).
		AddNode("hot", appendNode("hot")).
		AddNode("cold", appendNode("cold")).
		SetEntry("decide").
		AddConditionalEdges("decide", func(s State) string {
			v, _ := s["value"].(string)
			return v
		}, map[string]string{"hot": "hot", "cold": "cold"}).
		AddEdge("hot", End).
		AddEdge("cold", End)

	e := newTestEngine(t, g, store.NewMemStore())
	result, err := e.Run(context.Background(), "t1", nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	log := result.State["log"].([]any)
	if len(log) != 1 || log[0] != "hot" {
		t.Errorf("expected routing to hot on post-merge state, got %v", log)
	}
}

func TestEngineUnknownRoutingLabel(t *testing.T) {
	g := NewGraph().
		AddNode("a", appendNode("a")).
		SetEntry("a").
		AddConditionalEdges("a", func(State) string { return "nowhere" },
			map[string]string{"somewhere": End})

	st := store.NewMemStore()
	e := newTestEngine(t, g, st)

	result, err := e.Run(context.Background(), "t1", nil)
	var ee *EngineError
	if !errors.As(err, &ee) || ee.Code != ErrCodeUnknownRoutingLabel {
		t.Fatalf("expected %s, got %v", ErrCodeUnknownRoutingLabel, err)
	}
	if result.Status != StatusFailed {
		t.Errorf("expected failed status, got %s", result.Status)
	}

	cp, _ := st.Get(context.Background(), "t1")
	if cp.LastError == "" {
		t.Error("failure should be recorded in the checkpoint")
	}
}

func TestEngineUnknownField(t *testing.T) {
	g := NewGraph().
		AddNode("bad", NodeFunc(func(ctx context.Context, s State) NodeResult {
			return Update(State{"unregistered": 1})
		})).
		SetEntry("bad").
		AddEdge("bad", End)

	e := newTestEngine(t, g, store.NewMemStore())
	_, err := e.Run(context.Background(), "t1", nil)
	var ee *EngineError
	if !errors.As(err, &ee) || ee.Code != ErrCodeUnknownField {
		t.Fatalf("expected %s, got %v", ErrCodeUnknownField, err)
	}
}

func TestEngineNodeError(t *testing.T) {
	boom := errors.New("external call failed")
	g := NewGraph().
		AddNode("a", NodeFunc(func(ctx context.Context, s State) NodeResult {
			return Fail(boom)
		})).
		SetEntry("a").
		AddEdge("a", End)

	st := store.NewMemStore()
	e := newTestEngine(t, g, st)

	result, err := e.Run(context.Background(), "t1", State{"value": "keep"})
	var ne *NodeError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NodeError, got %v", err)
	}
	if ne.Code != ErrCodeNodeInvocation || ne.NodeID != "a" {
		t.Errorf("unexpected node error: %+v", ne)
	}
	if !errors.Is(err, boom) {
		t.Error("cause should be preserved through Unwrap")
	}
	if result.Status != StatusFailed {
		t.Errorf("expected failed, got %s", result.Status)
	}

	// the pre-failure state is preserved, not corrupted
	cp, _ := st.Get(context.Background(), "t1")
	if cp.State["value"] != "keep" {
		t.Errorf("last good state lost: %v", cp.State)
	}
}

func TestEngineMaxSteps(t *testing.T) {
	g := NewGraph().
		AddNode("a", appendNode("a")).
		AddNode("b", appendNode("b")).
		SetEntry("a").
		AddEdge("a", "b").
		AddEdge("b", "a")

	e := newTestEngine(t, g, store.NewMemStore(), WithMaxSteps(5))
	_, err := e.Run(context.Background(), "t1", nil)
	var ee *EngineError
	if !errors.As(err, &ee) || ee.Code != ErrCodeMaxStepsExceeded {
		t.Fatalf("expected %s, got %v", ErrCodeMaxStepsExceeded, err)
	}
}

// suspendingGraph suspends in "gate" until resumed with approved=true.
func suspendingGraph(t *testing.T, invocations *int) *Graph {
	t.Helper()
	g := NewGraph().
		AddNode("gate", NodeFunc(func(ctx context.Context, s State) NodeResult {
			if invocations != nil {
				*invocations++
			}
			if decision, ok := ResumeValue(ctx); ok {
				approved, _ := decision.(bool)
				return Update(State{"approved": approved, "log": []string{"gate resumed"}})
			}
			return Suspend(map[string]any{"reason": "needs approval"})
		})).
		AddNode("after", appendNode("after")).
		SetEntry("gate").
		AddEdge("gate", "after").
		AddEdge("after", End)
	if err := g.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return g
}

func TestEngineSuspendAndResume(t *testing.T) {
	invocations := 0
	st := store.NewMemStore()
	e := newTestEngine(t, suspendingGraph(t, &invocations), st)
	ctx := context.Background()

	result, err := e.Run(ctx, "t1", State{"log": []string{"start"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Status != StatusSuspended {
		t.Fatalf("expected suspended, got %s", result.Status)
	}
	if result.Interrupt == nil || result.Interrupt.NodeID != "gate" {
		t.Fatalf("interrupt should name the suspending node: %+v", result.Interrupt)
	}
	if result.Interrupt.Payload["reason"] != "needs approval" {
		t.Errorf("payload lost: %v", result.Interrupt.Payload)
	}

	// the suspension is durable
	cp, err := st.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("get checkpoint: %v", err)
	}
	if cp.Interrupt == nil || cp.Interrupt.NodeID != "gate" {
		t.Fatalf("interrupt not persisted: %+v", cp)
	}

	t.Run("run while suspended reports without executing", func(t *testing.T) {
		before := invocations
		again, err := e.Run(ctx, "t1", nil)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if again.Status != StatusSuspended || again.Interrupt == nil {
			t.Fatalf("expected suspended again, got %+v", again)
		}
		if invocations != before {
			t.Error("run on a suspended thread must not invoke nodes")
		}
	})

	t.Run("resume completes the run", func(t *testing.T) {
		result, err := e.Resume(ctx, "t1", true)
		if err != nil {
			t.Fatalf("resume: %v", err)
		}
		if result.Status != StatusCompleted {
			t.Fatalf("expected completed, got %s", result.Status)
		}
		if result.State["approved"] != true {
			t.Error("resume decision not applied")
		}
		log := result.State["log"].([]any)
		want := []any{"start", "gate resumed", "after"}
		for i := range want {
			if log[i] != want[i] {
				t.Errorf("log[%d]: expected %v, got %v", i, want[i], log[i])
			}
		}

		cp, _ := st.Get(ctx, "t1")
		if cp.Interrupt != nil {
			t.Error("interrupt should be cleared after resume")
		}
	})
}

func TestEngineSurvivesRestart(t *testing.T) {
	// A second engine over the same store resumes a suspension created by
	// the first; the checkpoint, not engine memory, is authoritative.
	st := store.NewMemStore()
	ctx := context.Background()

	first := newTestEngine(t, suspendingGraph(t, nil), st)
	result, err := first.Run(ctx, "t1", nil)
	if err != nil || result.Status != StatusSuspended {
		t.Fatalf("setup suspension failed: %v %v", result.Status, err)
	}

	second := newTestEngine(t, suspendingGraph(t, nil), st)
	result, err = second.Resume(ctx, "t1", true)
	if err != nil {
		t.Fatalf("resume on new engine: %v", err)
	}
	if result.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", result.Status)
	}
}

func TestEngineResumeMismatch(t *testing.T) {
	st := store.NewMemStore()
	e := newTestEngine(t, linearGraph(t), st)
	ctx := context.Background()

	t.Run("unknown thread", func(t *testing.T) {
		_, err := e.Resume(ctx, "ghost", true)
		var ee *EngineError
		if !errors.As(err, &ee) || ee.Code != ErrCodeResumeMismatch {
			t.Fatalf("expected %s, got %v", ErrCodeResumeMismatch, err)
		}
	})

	t.Run("completed thread, checkpoint untouched", func(t *testing.T) {
		if _, err := e.Run(ctx, "t1", nil); err != nil {
			t.Fatalf("run: %v", err)
		}
		before, _ := st.Get(ctx, "t1")

		_, err := e.Resume(ctx, "t1", true)
		var ee *EngineError
		if !errors.As(err, &ee) || ee.Code != ErrCodeResumeMismatch {
			t.Fatalf("expected %s, got %v", ErrCodeResumeMismatch, err)
		}

		after, _ := st.Get(ctx, "t1")
		if before.Seq != after.Seq || after.LastError != "" {
			t.Error("failed resume must leave the checkpoint unchanged")
		}
	})

	t.Run("suspended node missing from graph", func(t *testing.T) {
		full := newTestEngine(t, suspendingGraph(t, nil), st)
		if result, err := full.Run(ctx, "t2", nil); err != nil || result.Status != StatusSuspended {
			t.Fatalf("setup suspension failed: %v", err)
		}

		// a graph without the gate node cannot resume the thread
		_, err := e.Resume(ctx, "t2", true)
		var ee *EngineError
		if !errors.As(err, &ee) || ee.Code != ErrCodeResumeMismatch {
			t.Fatalf("expected %s, got %v", ErrCodeResumeMismatch, err)
		}
	})
}

func TestEngineCancellationBetweenSupersteps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g := NewGraph().
		AddNode("first", NodeFunc(func(c context.Context, s State) NodeResult {
			cancel() // takes effect at the next superstep boundary
			return Update(State{"log": []string{"first"}})
		})).
		AddNode("second", appendNode("second")).
		SetEntry("first").
		AddEdge("first", "second").
		AddEdge("second", End)

	st := store.NewMemStore()
	e := newTestEngine(t, g, st)

	result, err := e.Run(ctx, "t1", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.Status != StatusSuspended || result.Interrupt != nil {
		t.Fatalf("cancellation should pause without an interrupt: %+v", result)
	}

	cp, _ := st.Get(context.Background(), "t1")
	if cp.Next != "second" {
		t.Fatalf("checkpoint should record the next node, got %q", cp.Next)
	}
	if len(cp.State["log"].([]any)) != 1 {
		t.Error("completed superstep must be preserved")
	}

	// a fresh Run picks up at the recorded node, not the entry
	result, err = e.Run(context.Background(), "t1", nil)
	if err != nil {
		t.Fatalf("continue after cancel: %v", err)
	}
	if result.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", result.Status)
	}
	log := result.State["log"].([]any)
	if len(log) != 2 || log[1] != "second" {
		t.Errorf("expected continuation from second, got %v", log)
	}
}

func TestEngineThreadIsolation(t *testing.T) {
	st := store.NewMemStore()
	e := newTestEngine(t, linearGraph(t), st)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			threadID := fmt.Sprintf("thread-%d", i)
			result, err := e.Run(context.Background(), threadID, State{"value": threadID})
			if err != nil {
				errs[i] = err
				return
			}
			if result.State["value"] != threadID {
				errs[i] = fmt.Errorf("state bled across threads: %v", result.State["value"])
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("thread %d: %v", i, err)
		}
	}
}

func TestEngineStoreUnavailable(t *testing.T) {
	st := &failingStore{inner: store.NewMemStore(), failPuts: true}
	e := newTestEngine(t, linearGraph(t), st)

	_, err := e.Run(context.Background(), "t1", nil)
	var ee *EngineError
	if !errors.As(err, &ee) || ee.Code != ErrCodeStoreUnavailable {
		t.Fatalf("expected %s, got %v", ErrCodeStoreUnavailable, err)
	}
}

// failingStore wraps a Store and fails writes on demand.
type failingStore struct {
	inner    store.Store
	failPuts bool
}

func (f *failingStore) Get(ctx context.Context, threadID string) (store.Checkpoint, error) {
	return f.inner.Get(ctx, threadID)
}

func (f *failingStore) Put(ctx context.Context, threadID string, cp store.Checkpoint) error {
	if f.failPuts {
		return errors.New("disk on fire")
	}
	return f.inner.Put(ctx, threadID, cp)
}
