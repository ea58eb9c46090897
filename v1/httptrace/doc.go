// Package httptrace instruments HTTP servers and clients with the span
// engine, the metric aggregator and the correlated logger.
//
// Middleware wraps inbound requests: it continues the caller's trace from
// the traceparent header, opens a SERVER span named after the method and the
// chi route pattern, records request count and duration and writes one
// correlated log entry per request.
//
//	r := chi.NewRouter()
//	r.Use(httptrace.Middleware(t, m, log))
//	r.Get("/cart", handler)
//
// NewTransport wraps outbound requests: every round trip becomes a CLIENT
// span, child of the span current in the request context, and the request
// carries the new span in its traceparent header.
//
//	client := &http.Client{Transport: httptrace.NewTransport(http.DefaultTransport, t)}
//	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://cart-service:5002/cart", nil)
//	resp, err := client.Do(req)
package httptrace
