// Package tracer provides distributed tracing for statement execution.
// It supports OpenTelemetry and allows custom tracer implementations.
package tracer

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans around statement execution.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span is an active span. End records err, when not nil, and closes the span.
type Span interface {
	SetAttributes(attrs ...attribute.KeyValue)
	End(err error)
}

// NoopTracer is a tracer that does nothing. It is the default.
type NoopTracer struct{}

// StartSpan returns the context unchanged with a no-op span.
func (NoopTracer) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) SetAttributes(_ ...attribute.KeyValue) {}
func (noopSpan) End(_ error)                           {}

// OtelTracer adapts an OpenTelemetry tracer.
type OtelTracer struct {
	tracer trace.Tracer
}

// NewOtelTracer creates a new OpenTelemetry tracer adapter.
// The provided tracer must not be nil.
func NewOtelTracer(tracer trace.Tracer) *OtelTracer {
	return &OtelTracer{tracer: tracer}
}

// StartSpan starts a client span.
func (t *OtelTracer) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	return ctx, &otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) SetAttributes(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
}

func (s *otelSpan) End(err error) {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}

// Statement describes one executed statement. Attribute names follow the
// OpenTelemetry database semantic conventions.
type Statement struct {
	SQL          string
	ArgCount     int
	Driver       string
	QueryID      string
	Duration     time.Duration
	RowsAffected int64
	Rows         int
}

// Attributes returns the span attributes for s.
func (s *Statement) Attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("db.system", s.Driver),
		attribute.String("db.statement", s.SQL),
		attribute.String("db.operation", DetectOperation(s.SQL)),
		attribute.Int("db.args", s.ArgCount),
		attribute.Float64("db.duration_ms", float64(s.Duration.Microseconds())/1000.0),
	}
	if table := DetectTable(s.SQL); table != "" {
		attrs = append(attrs, attribute.String("db.sql.table", table))
	}
	if s.QueryID != "" {
		attrs = append(attrs, attribute.String("db.query_id", s.QueryID))
	}
	if s.RowsAffected > 0 {
		attrs = append(attrs, attribute.Int64("db.rows_affected", s.RowsAffected))
	}
	if s.Rows > 0 {
		attrs = append(attrs, attribute.Int("db.rows_returned", s.Rows))
	}
	return attrs
}

// SpanName returns "sqlforge.<operation>" for sql.
func SpanName(sql string) string {
	return "sqlforge." + strings.ToLower(DetectOperation(sql))
}

// DetectOperation returns SELECT, INSERT, UPDATE, DELETE or UNKNOWN.
func DetectOperation(sql string) string {
	sql = strings.TrimSpace(strings.ToUpper(sql))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, op) {
			return op
		}
	}
	if strings.HasPrefix(sql, "WITH") {
		return "SELECT"
	}
	return "UNKNOWN"
}

var tablePattern = regexp.MustCompile(`(?i)^\s*(?:SELECT\b.*?\bFROM|INSERT\s+INTO|UPDATE|DELETE\s+FROM)\s+([A-Za-z_][A-Za-z0-9_.]*)`)

// DetectTable returns the primary table of a statement, or "".
func DetectTable(sql string) string {
	if m := tablePattern.FindStringSubmatch(sql); m != nil {
		return m[1]
	}
	return ""
}

// ReturnsRows reports whether sql produces a result set: SELECT statements and
// statements with a RETURNING clause.
func ReturnsRows(sql string) bool {
	if DetectOperation(sql) == "SELECT" {
		return true
	}
	return strings.Contains(strings.ToUpper(sql), " RETURNING ")
}
