package emit

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter turns execution events into OpenTelemetry spans.
//
// Each event becomes a short span named after event.Msg, with the thread id,
// sequence number, node id, and all Meta fields attached as attributes.
// Events whose Meta carries an "error" string mark the span as failed.
//
// Setup is the usual OpenTelemetry wiring:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//	emitter := emit.NewOTelEmitter(otel.Tracer("flowgraph"))
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter creates an emitter over the given tracer.
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

// Emit implements Emitter. Spans are ended immediately; an event is a point
// in time, not a duration.
func (o *OTelEmitter) Emit(e Event) {
	_, span := o.tracer.Start(context.Background(), e.Msg)
	defer span.End()

	span.SetAttributes(
		attribute.String("flowgraph.thread_id", e.ThreadID),
		attribute.Int("flowgraph.seq", e.Seq),
		attribute.String("flowgraph.node_id", e.NodeID),
	)

	for key, value := range e.Meta {
		attrKey := "flowgraph." + key
		switch v := value.(type) {
		case string:
			span.SetAttributes(attribute.String(attrKey, v))
		case int:
			span.SetAttributes(attribute.Int(attrKey, v))
		case int64:
			span.SetAttributes(attribute.Int64(attrKey, v))
		case float64:
			span.SetAttributes(attribute.Float64(attrKey, v))
		case bool:
			span.SetAttributes(attribute.Bool(attrKey, v))
		case time.Duration:
			span.SetAttributes(attribute.Int64(attrKey, v.Milliseconds()))
		default:
			span.SetAttributes(attribute.String(attrKey, fmt.Sprintf("%v", v)))
		}
	}

	if errText, ok := e.Meta["error"].(string); ok {
		span.SetStatus(codes.Error, errText)
		span.RecordError(fmt.Errorf("%s", errText))
	}
}

// FlushContext forces export of buffered spans via the global tracer
// provider, when the provider supports it. Call before shutdown so the last
// spans of a run are not lost in the batch processor.
func (o *OTelEmitter) FlushContext(ctx context.Context) error {
	type forceFlusher interface {
		ForceFlush(context.Context) error
	}
	if f, ok := otel.GetTracerProvider().(forceFlusher); ok {
		return f.ForceFlush(ctx)
	}
	return nil
}
