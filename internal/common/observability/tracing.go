// Package observability provides the shared tracer for pipeline stages.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "combadge/pipeline"

func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartStage opens a span for one pipeline stage, tagged with the
// request it belongs to.
func StartStage(ctx context.Context, stage, requestID string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, stage, trace.WithAttributes(
		attribute.String("request.id", requestID),
	))
}
