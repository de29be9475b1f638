// Package observability provides OpenTelemetry tracing for spawnpool.
// Spans are recorded around the pool's spawn path and the resolver's
// backend calls so a hung or slow asset load is visible in traces.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span wraps an otel span with batched attribute setting.
type Span struct {
	span       trace.Span
	startTime  time.Time
	attributes []attribute.KeyValue
}

// NewSpan starts a span on the global tracer.
func NewSpan(ctx context.Context, operationName string) (context.Context, *Span) {
	ctx, span := Tracer().Start(ctx, operationName)

	return ctx, &Span{
		span:      span,
		startTime: time.Now(),
	}
}

// SetAttribute adds an attribute to the span (batched, applied at End).
func (s *Span) SetAttribute(key string, value interface{}) {
	var attr attribute.KeyValue

	switch v := value.(type) {
	case string:
		attr = attribute.String(key, v)
	case int:
		attr = attribute.Int(key, v)
	case int64:
		attr = attribute.Int64(key, v)
	case float64:
		attr = attribute.Float64(key, v)
	case bool:
		attr = attribute.Bool(key, v)
	default:
		attr = attribute.String(key, fmt.Sprintf("%v", v))
	}

	s.attributes = append(s.attributes, attr)
}

// SetStatus sets the span status.
func (s *Span) SetStatus(code codes.Code, description string) {
	s.span.SetStatus(code, description)
}

// End applies batched attributes and ends the span.
func (s *Span) End() {
	if len(s.attributes) > 0 {
		s.span.SetAttributes(s.attributes...)
	}
	s.span.End()
}

// PoolTracer provides pool-specific tracing helpers. Operations are named
// pool.<key>.<operation> so per-key latency stands out in trace views.
type PoolTracer struct {
	component string
}

// NewPoolTracer creates a tracer for a named component ("pool", "resolver",
// or a backend name).
func NewPoolTracer(component string) *PoolTracer {
	return &PoolTracer{component: component}
}

// StartSpan starts a span for an operation on a key.
func (pt *PoolTracer) StartSpan(ctx context.Context, operation, key string) (context.Context, *Span) {
	ctx, span := NewSpan(ctx, fmt.Sprintf("%s.%s", pt.component, operation))

	span.SetAttribute("pool.component", pt.component)
	span.SetAttribute("pool.operation", operation)
	span.SetAttribute("pool.key", key)

	return ctx, span
}

// TraceOp traces a single keyed operation, recording error status.
func (pt *PoolTracer) TraceOp(ctx context.Context, operation, key string, fn func(context.Context) error) error {
	ctx, span := pt.StartSpan(ctx, operation, key)
	defer span.End()

	err := fn(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttribute("error", true)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	return err
}
