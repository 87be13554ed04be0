package ogam

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type recordingSpan struct {
	trace.Span
	ended  bool
	errs   []error
	events []string
}

func (s *recordingSpan) End(...trace.SpanEndOption)                 { s.ended = true }
func (s *recordingSpan) RecordError(err error, _ ...trace.EventOption) { s.errs = append(s.errs, err) }
func (s *recordingSpan) AddEvent(name string, _ ...trace.EventOption) { s.events = append(s.events, name) }

type recordingTracer struct {
	trace.Tracer
	span     *recordingSpan
	spanName string
}

func (tr *recordingTracer) Start(ctx context.Context, name string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
	tr.spanName = name
	return ctx, tr.span
}

func TestStartStatementSpanNamesStatementAndRecordsSQL(t *testing.T) {
	base := noop.NewTracerProvider().Tracer("")
	_, span := base.Start(context.Background(), "placeholder")
	rs := &recordingSpan{Span: span}
	tr := &recordingTracer{Tracer: base, span: rs}
	SetTracer(tr)
	defer SetTracer(nil)

	startStatementSpan(context.Background(), "ogam.query", "UserMapper.selectAll", "select * from users")
	assert.Equal(t, "ogam.query UserMapper.selectAll", tr.spanName)
	assert.Contains(t, rs.events, "select * from users")
}

func TestRecordSpanErrorIgnoresNil(t *testing.T) {
	rs := &recordingSpan{}
	recordSpanError(rs, nil)
	assert.Empty(t, rs.errs)
}

func TestSetTracerRestoresNoopOnNil(t *testing.T) {
	defer SetTracer(nil)

	SetTracer(noop.NewTracerProvider().Tracer("custom"))
	assert.NotNil(t, currentTracer())

	SetTracer(nil)
	assert.NotNil(t, currentTracer())
}
