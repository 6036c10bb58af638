package emit

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestOTelEmitter(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	e := NewOTelEmitter(tp.Tracer("test"))

	e.Emit(Event{
		ThreadID: "t1",
		Seq:      4,
		NodeID:   "approval",
		Msg:      "run_suspended",
		Meta:     map[string]any{"topic": "ai research", "pending": true},
	})
	e.Emit(Event{
		ThreadID: "t1",
		Msg:      "run_failed",
		Meta:     map[string]any{"error": "node exploded"},
	})

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	t.Run("event becomes a span with attributes", func(t *testing.T) {
		span := spans[0]
		if span.Name() != "run_suspended" {
			t.Errorf("expected span named run_suspended, got %q", span.Name())
		}

		attrs := map[attribute.Key]attribute.Value{}
		for _, kv := range span.Attributes() {
			attrs[kv.Key] = kv.Value
		}
		if attrs["flowgraph.thread_id"].AsString() != "t1" {
			t.Errorf("thread id attribute missing: %v", attrs)
		}
		if attrs["flowgraph.seq"].AsInt64() != 4 {
			t.Errorf("seq attribute missing: %v", attrs)
		}
		if attrs["flowgraph.topic"].AsString() != "ai research" {
			t.Errorf("meta string attribute missing: %v", attrs)
		}
		if !attrs["flowgraph.pending"].AsBool() {
			t.Errorf("meta bool attribute missing: %v", attrs)
		}
	})

	t.Run("error meta marks span failed", func(t *testing.T) {
		span := spans[1]
		if span.Status().Code != codes.Error {
			t.Errorf("expected error status, got %v", span.Status())
		}
		if span.Status().Description != "node exploded" {
			t.Errorf("expected error text in status, got %q", span.Status().Description)
		}
	})
}
