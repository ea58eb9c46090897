package tracer

import (
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/telemetry/v1/propagation"
)

// Status is the outcome of the unit of work a span covers.
type Status struct {
	Code        codes.Code
	Description string
}

// Event is a timestamped annotation on a span.
type Event struct {
	Name       string
	Time       time.Time
	Attributes []attribute.KeyValue
}

// SpanData is the immutable record of a closed span. It is what the export
// pipeline receives; the slices are owned by the record and never mutated.
type SpanData struct {
	Name         string
	Kind         trace.SpanKind
	TraceID      trace.TraceID
	SpanID       trace.SpanID
	ParentSpanID trace.SpanID
	TraceState   trace.TraceState
	Sampled      bool
	StartTime    time.Time
	EndTime      time.Time
	Attributes   []attribute.KeyValue
	Events       []Event
	Status       Status
}

// Duration is the wall time between start and end.
func (d SpanData) Duration() time.Duration {
	return d.EndTime.Sub(d.StartTime)
}

// Span is one timed unit of work. It is mutable until End is called; after
// that every mutator is a no-op that logs a warning.
type Span struct {
	tracer *Tracer
	flow   *flow

	mu     sync.Mutex
	tc     propagation.TraceContext
	name   string
	kind   trace.SpanKind
	start  time.Time
	attrs  []attribute.KeyValue
	index  map[string]int
	events []Event
	status Status
	ended  bool
}

// Context returns the identity of the span, suitable for propagation.Inject.
func (s *Span) Context() propagation.TraceContext {
	return s.tc
}

// SpanContext returns the identity as an OpenTelemetry span context.
func (s *Span) SpanContext() trace.SpanContext {
	return s.tc.SpanContext(false)
}

// Name returns the current span name.
func (s *Span) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// IsRecording reports whether the span is still open.
func (s *Span) IsRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.ended
}

// Status returns the status set so far.
func (s *Span) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetName renames the span, e.g. once the matched route is known.
func (s *Span) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closedLocked("SetName") {
		return
	}
	s.name = name
}

// SetAttributes upserts attributes. A key set twice keeps its original
// position and takes the latest value.
func (s *Span) SetAttributes(attrs ...attribute.KeyValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closedLocked("SetAttributes") {
		return
	}
	s.setAttributes(attrs)
}

func (s *Span) setAttributes(attrs []attribute.KeyValue) {
	for _, kv := range attrs {
		if !kv.Valid() {
			continue
		}
		key := string(kv.Key)
		if i, ok := s.index[key]; ok {
			s.attrs[i] = kv
			continue
		}
		s.index[key] = len(s.attrs)
		s.attrs = append(s.attrs, kv)
	}
}

// SetStatus records the outcome. The description is only kept for
// codes.Error. The last call before End wins.
func (s *Span) SetStatus(code codes.Code, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closedLocked("SetStatus") {
		return
	}
	if code != codes.Error {
		description = ""
	}
	s.status = Status{Code: code, Description: description}
}

// AddEvent appends a timestamped event.
func (s *Span) AddEvent(name string, attrs ...attribute.KeyValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closedLocked("AddEvent") {
		return
	}
	s.events = append(s.events, Event{Name: name, Time: s.tracer.now(), Attributes: attrs})
}

// RecordError adds an "exception" event describing err. It does not change
// the status; see Tracer.RecordErrorOnSpan for that.
func (s *Span) RecordError(err error, attrs ...attribute.KeyValue) {
	if err == nil {
		return
	}
	eventAttrs := append([]attribute.KeyValue{
		semconv.ExceptionTypeKey.String(fmt.Sprintf("%T", err)),
		semconv.ExceptionMessageKey.String(err.Error()),
	}, attrs...)
	s.AddEvent("exception", eventAttrs...)
}

// End closes the span, removes it from its flow and hands the frozen record
// to the tracer's sink. Calling End more than once is a no-op.
func (s *Span) End() {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		s.tracer.logger.Warn("span ended twice", nil, map[string]interface{}{
			"span_name": s.name,
			"span_id":   s.tc.SpanID.String(),
		})
		return
	}
	s.ended = true

	data := SpanData{
		Name:         s.name,
		Kind:         s.kind,
		TraceID:      s.tc.TraceID,
		SpanID:       s.tc.SpanID,
		ParentSpanID: s.tc.ParentSpanID,
		TraceState:   s.tc.TraceState,
		Sampled:      s.tc.Sampled,
		StartTime:    s.start,
		EndTime:      s.tracer.now(),
		Attributes:   append([]attribute.KeyValue(nil), s.attrs...),
		Events:       append([]Event(nil), s.events...),
		Status:       s.status,
	}
	s.mu.Unlock()

	s.tracer.finish(s, data)
}

// closedLocked reports whether the span is closed and warns if so.
func (s *Span) closedLocked(op string) bool {
	if !s.ended {
		return false
	}
	s.tracer.logger.Warn("mutation of ended span ignored", nil, map[string]interface{}{
		"operation": op,
		"span_name": s.name,
		"span_id":   s.tc.SpanID.String(),
	})
	return true
}
