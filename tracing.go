package ogam

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// tracer is the package-wide span source for Executor.Query/Update. It
// defaults to a no-op implementation so instrumentation has zero cost
// until a caller wires a real one in with SetTracer.
var tracer atomic.Pointer[trace.Tracer]

func init() {
	var t trace.Tracer = noop.NewTracerProvider().Tracer("")
	tracer.Store(&t)
}

// SetTracer installs the trace.Tracer used to span mapped-statement
// execution. Passing nil restores the no-op tracer.
func SetTracer(t trace.Tracer) {
	if t == nil {
		var n trace.Tracer = noop.NewTracerProvider().Tracer("")
		tracer.Store(&n)
		return
	}
	tracer.Store(&t)
}

func currentTracer() trace.Tracer {
	return *tracer.Load()
}

// startStatementSpan opens a span named op + " " + statementID (op is
// e.g. "ogam.query"/"ogam.update") and records the rendered SQL as an
// event on that span, not in its name.
func startStatementSpan(ctx context.Context, op, statementID, sqlText string) (context.Context, trace.Span) {
	ctx, span := currentTracer().Start(ctx, op+" "+statementID)
	span.AddEvent(sqlText)
	return ctx, span
}

func recordSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
}
