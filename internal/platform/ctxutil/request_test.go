package ctxutil

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestTraceIDFallsBackToRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if got := TraceID(ctx); got != "req-1" {
		t.Fatalf("trace id: %q", got)
	}
	if RequestID(context.Background()) != "" {
		t.Fatal("expected empty request id")
	}
}

func TestTraceIDPrefersSpan(t *testing.T) {
	tid, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: tid})
	ctx := trace.ContextWithSpanContext(WithRequestID(context.Background(), "req-1"), sc)
	if got := TraceID(ctx); got != tid.String() {
		t.Fatalf("trace id: %q", got)
	}
}
