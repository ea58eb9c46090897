package tracer

import (
	"context"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/telemetry/v1/propagation"
)

// Logger is an interface that matches the logger.LoggerClient methods used for diagnostics.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Sink receives closed spans. Enqueue must not block; it reports whether the
// span was accepted. An *exporter.Pipeline[SpanData] satisfies this interface.
type Sink interface {
	Enqueue(span SpanData) bool
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(span SpanData) bool

// Enqueue calls f(span).
func (f SinkFunc) Enqueue(span SpanData) bool {
	return f(span)
}

// Tracer creates spans and hands them to a Sink once they end.
//
// A Tracer is safe for concurrent use and is meant to live for the lifetime
// of the process.
type Tracer struct {
	cfg     Config
	sink    Sink
	logger  Logger
	sampler sdktrace.Sampler
	now     func() time.Time
}

// NewClient creates a tracer that delivers closed, sampled spans to sink.
//
// Parameters:
//   - cfg: Sampling and naming configuration
//   - sink: Destination for closed spans; nil discards them
//   - logger: Diagnostic logger for usage warnings; nil disables them
//
// Example:
//
//	pipeline := exporter.New(exporter.SignalTraces, cfg, encode, transport).WithLogger(log)
//	t := tracer.NewClient(tracer.Config{ServiceName: "cart-service"}, pipeline, log)
//
//	ctx, span := t.StartSpan(ctx, "GET /cart", tracer.WithSpanKind(trace.SpanKindServer))
//	defer span.End()
func NewClient(cfg Config, sink Sink, logger Logger) *Tracer {
	if sink == nil {
		sink = SinkFunc(func(SpanData) bool { return true })
	}
	if logger == nil {
		logger = nopLogger{}
	}

	return &Tracer{
		cfg:     cfg,
		sink:    sink,
		logger:  logger,
		sampler: newSampler(cfg.SampleRatio),
		now:     time.Now,
	}
}

func newSampler(ratio float64) sdktrace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

// StartSpan opens a span and makes it the current span of the calling flow.
//
// The parent is resolved in this order: a remote parent passed with
// WithRemoteParent, the current span of the flow carried by ctx, a remote
// parent stored on ctx by SetCarrierOnContext or ContextWithRemoteParent.
// Without any of these, or with WithNewRoot, the span starts a new trace.
//
// The returned context carries the flow and must be passed to work done
// inside the span. The span must be ended exactly once.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := spanConfig{kind: trace.SpanKindInternal}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, f := ensureFlow(ctx)

	var parent propagation.TraceContext
	var remote bool
	switch {
	case cfg.newRoot:
	case cfg.remoteParent.IsValid():
		parent, remote = cfg.remoteParent, true
	default:
		if current := f.current(); current != nil {
			parent = current.tc
		} else if tc, ok := RemoteParentFromContext(ctx); ok {
			parent, remote = tc, true
		}
	}

	tc := propagation.TraceContext{SpanID: propagation.NewSpanID()}
	if parent.IsValid() {
		tc.TraceID = parent.TraceID
		tc.ParentSpanID = parent.SpanID
	} else {
		tc.TraceID = propagation.NewTraceID()
	}

	var parentCtx context.Context = context.Background()
	if parent.IsValid() {
		if remote {
			parentCtx = trace.ContextWithRemoteSpanContext(parentCtx, parent.SpanContext(true))
		} else {
			parentCtx = trace.ContextWithSpanContext(parentCtx, parent.SpanContext(false))
		}
	}

	result := t.sampler.ShouldSample(sdktrace.SamplingParameters{
		ParentContext: parentCtx,
		TraceID:       tc.TraceID,
		Name:          name,
		Kind:          cfg.kind,
		Attributes:    cfg.attributes,
	})
	tc.Sampled = result.Decision == sdktrace.RecordAndSample
	tc.TraceState = result.Tracestate

	span := &Span{
		tracer: t,
		flow:   f,
		tc:     tc,
		name:   name,
		kind:   cfg.kind,
		start:  t.now(),
		index:  make(map[string]int),
	}
	span.setAttributes(cfg.attributes)

	f.push(span)
	return ctx, span
}

// finish is called by Span.End once the span is frozen.
func (t *Tracer) finish(span *Span, data SpanData) {
	if onTop := span.flow.remove(span); !onTop {
		t.logger.Warn("span ended out of order", nil, map[string]interface{}{
			"span_name": data.Name,
			"span_id":   data.SpanID.String(),
		})
	}

	if !data.Sampled {
		return
	}

	if !t.sink.Enqueue(data) {
		t.logger.Debug("span not accepted by sink", nil, map[string]interface{}{
			"span_name": data.Name,
		})
	}
}

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}
