package httptrace

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/telemetry/v1/meter"
	"github.com/Aleph-Alpha/telemetry/v1/propagation"
	"github.com/Aleph-Alpha/telemetry/v1/tracer"
)

const (
	// RequestCountMetric counts inbound requests.
	RequestCountMetric = "http.server.request.count"

	// RequestDurationMetric is the histogram of inbound request durations in seconds.
	RequestDurationMetric = "http.server.request.duration"
)

// DurationBoundaries are the bucket boundaries, in seconds, of the request
// duration histogram.
var DurationBoundaries = []float64{0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 7.5, 10}

// Logger is the subset of logger.Logger the middleware writes to.
// *logger.LoggerClient satisfies it.
type Logger interface {
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

// Middleware returns a chi compatible middleware instrumenting inbound
// requests.
//
// For every request it:
//   - extracts the caller's trace context from the request headers
//   - opens a SERVER span "<METHOD> <route>" that is current for the handler
//   - sets http.method, http.target, http.route and http.status_code
//   - marks 5xx responses and handler panics as errors
//   - adds one to http.server.request.count and records the duration in
//     http.server.request.duration
//   - logs the completed request inside the span
//
// The route is the chi route pattern when the middleware runs inside a chi
// router, otherwise the URL path. A panic is re-raised after the span is
// ended so an outer recoverer still sees it. m and log may be nil.
func Middleware(t *tracer.Tracer, m *meter.Meter, log Logger) func(http.Handler) http.Handler {
	var (
		requests *meter.Counter
		latency  *meter.Histogram
	)
	if m != nil {
		requests = m.Counter(RequestCountMetric, "1", "Counts number of incoming HTTP requests")
		latency = m.Histogram(RequestDurationMetric, "s", "Tracks request durations", meter.WithBoundaries(DurationBoundaries...))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			opts := []tracer.SpanOption{
				tracer.WithSpanKind(trace.SpanKindServer),
				tracer.WithAttributes(
					semconv.HTTPMethodKey.String(r.Method),
					semconv.HTTPTargetKey.String(r.URL.RequestURI()),
				),
			}
			if tc, ok := propagation.Extract(propagation.HeaderCarrier(r.Header)); ok {
				opts = append(opts, tracer.WithRemoteParent(tc))
			}

			ctx, span := t.StartSpan(r.Context(), r.Method+" "+r.URL.Path, opts...)
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			r = r.WithContext(ctx)

			defer func() {
				rec := recover()

				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				if rec != nil {
					status = http.StatusInternalServerError
				}

				route := routePattern(r)
				span.SetName(r.Method + " " + route)
				span.SetAttributes(
					semconv.HTTPRouteKey.String(route),
					semconv.HTTPStatusCodeKey.Int(status),
				)

				fields := map[string]interface{}{
					"http.method":      r.Method,
					"http.route":       route,
					"http.status_code": status,
				}

				switch {
				case rec != nil:
					err := fmt.Errorf("panic: %v", rec)
					t.RecordErrorOnSpan(span, err)
					if log != nil {
						log.ErrorWithContext(ctx, "request panicked", err, fields)
					}
				case status >= http.StatusInternalServerError:
					span.SetStatus(codes.Error, http.StatusText(status))
					if log != nil {
						log.ErrorWithContext(ctx, "request failed", nil, fields)
					}
				default:
					span.SetStatus(codes.Ok, "")
					if log != nil {
						log.InfoWithContext(ctx, "request completed", nil, fields)
					}
				}
				span.End()

				if m != nil {
					attrs := []attribute.KeyValue{
						semconv.HTTPMethodKey.String(r.Method),
						semconv.HTTPRouteKey.String(route),
						semconv.HTTPStatusCodeKey.Int(status),
					}
					requests.Add(1, attrs...)
					latency.Record(time.Since(start).Seconds(), attrs...)
				}

				if rec != nil {
					panic(rec)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
