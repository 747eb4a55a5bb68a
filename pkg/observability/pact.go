package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Semantic convention attributes for PACT exchanges.
var (
	AttrOperation = attribute.Key("pact.operation")

	AttrRevision  = attribute.Key("pact.revision")
	AttrEventType = attribute.Key("pact.event.type")
	AttrEventID   = attribute.Key("pact.event.id")
	AttrDecision  = attribute.Key("pact.decision")
	AttrOutcome   = attribute.Key("pact.outcome")

	AttrDestination = attribute.Key("pact.outbound.destination")
	AttrResultCount = attribute.Key("pact.query.results")
)

// ExchangeOperation creates attributes for an inbound event.
func ExchangeOperation(revision, eventType, eventID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrRevision.String(revision),
		AttrEventType.String(eventType),
		AttrEventID.String(eventID),
	}
}

// AddSpanEvent adds an event to the span in ctx.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

// SetAttributes annotates the span in ctx.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}
