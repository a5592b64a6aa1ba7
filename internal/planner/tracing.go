// Tracing instrumentation for the engine.
package planner

import (
	"context"

	"github.com/vinayprograms/agentkit/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// startRunSpan starts a span for one task run.
func (e *Engine) startRunSpan(ctx context.Context, taskID string) (context.Context, trace.Span) {
	tracer := telemetry.GetTracer()
	ctx, span := tracer.StartSpan(ctx, "task.run")
	span.SetAttributes(
		attribute.String("task.id", taskID),
	)
	return ctx, span
}

// endRunSpan ends the run span with the aggregate result.
func (e *Engine) endRunSpan(span trace.Span, result RunResult) {
	span.SetAttributes(
		attribute.String("task.status", string(result.Status)),
		attribute.Int("task.results", len(result.Results)),
	)
	span.End()
}
