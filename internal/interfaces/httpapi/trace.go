package httpapi

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var statusTracer = otel.Tracer("football-sync/status")

// startSpan opens a child span for a status handler. Requests filtered out of
// tracing, such as /healthz, carry no parent and get no span.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() {
		return ctx, parent
	}
	return statusTracer.Start(ctx, name)
}
