// Package tracing provides a shared OTel tracer helper for all vmhealth packages.
//
// When no TracerProvider is registered the global no-op provider is used and
// all calls are inert. Packages should call tracing.Start rather than using
// the OTel API directly.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "vmhealth"

// Start creates a new OTel span as a child of the span in ctx, or a root span
// when ctx carries no active span. The caller must call span.End().
//
//	ctx, span := tracing.Start(ctx, "notify.send",
//	    attribute.String("vmhealth.transport", t.Name()),
//	)
//	defer span.End()
func Start(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, spanName, trace.WithAttributes(attrs...))
}
