package updater

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// defaultTracerName is the instrumentation name used with the global
// tracer provider.
const defaultTracerName = "github.com/vango-dev/vpatch/pkg/updater"

func defaultTracer() trace.Tracer {
	return otel.Tracer(defaultTracerName)
}

// startCycle opens the span for one render cycle.
func (o *options) startCycle(ctx context.Context, seq uint64) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, "vpatch.update",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("vpatch.updater", o.name),
			attribute.Int64("vpatch.seq", int64(seq)),
		),
	)
}

// endCycle records the outcome on span and ends it.
func endCycle(span trace.Span, patches int, err error) {
	span.SetAttributes(attribute.Int("vpatch.patches", patches))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
