package httpapi

import (
	"context"
	"testing"
)

func TestStartSpan_NoParentIsNoop(t *testing.T) {
	ctx := context.Background()
	got, span := startSpan(ctx, "httpapi.Handler.Healthz")
	defer span.End()

	if got != ctx {
		t.Fatalf("expected the context back unchanged without a parent span")
	}
	if span.SpanContext().IsValid() {
		t.Fatalf("expected a non-recording span without a parent")
	}
}
