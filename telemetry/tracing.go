// OpenTelemetry tracing for relay fan-out and bus hand-off.
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Tracer wraps OpenTelemetry tracing with relay-specific helpers.
type Tracer struct {
	tracer trace.Tracer
	debug  bool // When true, include setting values in span attributes
}

var (
	globalTracer *Tracer
	tracerMu     sync.RWMutex
)

// SetGlobalTracer sets the global tracer instance.
func SetGlobalTracer(t *Tracer) {
	tracerMu.Lock()
	defer tracerMu.Unlock()
	globalTracer = t
}

// GetTracer returns the global tracer, or a no-op tracer if not set.
func GetTracer() *Tracer {
	tracerMu.RLock()
	defer tracerMu.RUnlock()
	if globalTracer == nil {
		return &Tracer{tracer: noop.NewTracerProvider().Tracer("")}
	}
	return globalTracer
}

// NewTracer creates a tracer from the global provider.
func NewTracer(name string, debug bool) *Tracer {
	return &Tracer{
		tracer: otel.Tracer(name),
		debug:  debug,
	}
}

// NewTracerFromProvider creates a tracer from an explicit provider.
func NewTracerFromProvider(tp trace.TracerProvider, name string, debug bool) *Tracer {
	return &Tracer{
		tracer: tp.Tracer(name),
		debug:  debug,
	}
}

// SetDebug enables or disables debug mode.
func (t *Tracer) SetDebug(debug bool) {
	t.debug = debug
}

// Debug returns whether debug mode is enabled.
func (t *Tracer) Debug() bool {
	return t.debug
}

// StartSpan starts a new span with the given name.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// --- Dispatch Spans ---

// DispatchSpanOptions describes one relay fan-out.
type DispatchSpanOptions struct {
	EventID   string
	Key       string
	Value     string // Only included if debug=true
	Callbacks int
	Delivered int
	Failed    int
	Pruned    int
}

// StartDispatchSpan starts a span for a relay fan-out.
func (t *Tracer) StartDispatchSpan(ctx context.Context, key string) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, "relay.dispatch", trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(attribute.String("relay.key", key))
	return ctx, span
}

// EndDispatchSpan ends a dispatch span with attributes.
func (t *Tracer) EndDispatchSpan(span trace.Span, opts DispatchSpanOptions, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("relay.event_id", opts.EventID),
		attribute.Int("relay.callbacks", opts.Callbacks),
		attribute.Int("relay.delivered", opts.Delivered),
		attribute.Int("relay.failed", opts.Failed),
		attribute.Int("relay.pruned", opts.Pruned),
	}
	if t.debug && opts.Value != "" {
		attrs = append(attrs, attribute.String("relay.value", truncate(opts.Value, 1000)))
	}
	span.SetAttributes(attrs...)
	endSpan(span, err)
}

// --- Bus Spans ---

// StartPublishSpan starts a producer span for a bus publish.
func (t *Tracer) StartPublishSpan(ctx context.Context, subject string) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, "bus.publish "+subject, trace.WithSpanKind(trace.SpanKindProducer))
	span.SetAttributes(attribute.String("messaging.destination.name", subject))
	return ctx, span
}

// StartReceiveSpan starts a consumer span for a bus delivery.
func (t *Tracer) StartReceiveSpan(ctx context.Context, subject string) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, "bus.receive "+subject, trace.WithSpanKind(trace.SpanKindConsumer))
	span.SetAttributes(attribute.String("messaging.destination.name", subject))
	return ctx, span
}

// EndSpan ends a span, recording err when set.
func (t *Tracer) EndSpan(span trace.Span, err error) {
	endSpan(span, err)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// --- Context Propagation ---

// InjectContext injects trace context into a carrier for cross-process propagation.
func InjectContext(ctx context.Context, carrier propagation.TextMapCarrier) {
	otel.GetTextMapPropagator().Inject(ctx, carrier)
}

// ExtractContext extracts trace context from a carrier.
func ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

// MapCarrier is a simple map-based TextMapCarrier for context propagation.
type MapCarrier map[string]string

func (c MapCarrier) Get(key string) string {
	return c[key]
}

func (c MapCarrier) Set(key, value string) {
	c[key] = value
}

func (c MapCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
