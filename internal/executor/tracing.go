// Tracing instrumentation for command execution.
package executor

import (
	"context"

	"github.com/vinayprograms/agentkit/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// startExecSpan starts a span for one command execution.
func (e *Executor) startExecSpan(ctx context.Context, action string) (context.Context, trace.Span) {
	tracer := telemetry.GetTracer()
	ctx, span := tracer.StartSpan(ctx, "exec.command")
	span.SetAttributes(
		attribute.String("exec.action", action),
	)
	return ctx, span
}

// endExecSpan ends the span with the outcome classification.
func (e *Executor) endExecSpan(span trace.Span, outcome Outcome) {
	span.SetAttributes(
		attribute.String("exec.status", string(outcome.Status)),
		attribute.Int("exec.return_code", outcome.ReturnCode),
	)
	span.End()
}
