package observe

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for store spans.
const defaultTracerName = "vstore"

// Tracer starts spans around store operations. A nil *Tracer starts no
// spans.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer resolves a tracer from the global OpenTelemetry provider.
// Configure the provider in main() before creating stores.
func NewTracer(name string) *Tracer {
	if name == "" {
		name = defaultTracerName
	}
	return &Tracer{tracer: otel.Tracer(name)}
}

// NewTracerFromProvider resolves a tracer from a specific provider.
func NewTracerFromProvider(tp trace.TracerProvider, name string) *Tracer {
	if name == "" {
		name = defaultTracerName
	}
	return &Tracer{tracer: tp.Tracer(name)}
}

// Start opens a span named "vstore.<op> <name>" carrying the store and
// operation target as attributes.
func (t *Tracer) Start(ctx context.Context, op, store, name string) (context.Context, trace.Span) {
	if t == nil || t.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.tracer.Start(ctx, "vstore."+op+" "+name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("vstore.store", store),
			attribute.String("vstore.op", op),
			attribute.String("vstore.name", name),
		),
	)
}

// End records err on the span and ends it.
func (t *Tracer) End(span trace.Span, err error) {
	if t == nil || t.tracer == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddChanges annotates the active span with the number of state changes.
func (t *Tracer) AddChanges(span trace.Span, n int) {
	if t == nil || t.tracer == nil {
		return
	}
	span.SetAttributes(attribute.Int("vstore.changes", n))
}
