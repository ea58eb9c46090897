package tracer

import (
	"context"
	"sync"
)

type flowKey struct{}

// flow is the active-span stack of one logical unit of concurrent execution,
// typically one request. It travels in a context.Context so that concurrent
// requests never observe each other's spans.
type flow struct {
	mu    sync.Mutex
	base  *Span
	stack []*Span
}

func flowFromContext(ctx context.Context) *flow {
	if ctx == nil {
		return nil
	}
	f, _ := ctx.Value(flowKey{}).(*flow)
	return f
}

func ensureFlow(ctx context.Context) (context.Context, *flow) {
	if f := flowFromContext(ctx); f != nil {
		return ctx, f
	}
	f := &flow{}
	return context.WithValue(ctx, flowKey{}, f), f
}

func (f *flow) push(s *Span) {
	f.mu.Lock()
	f.stack = append(f.stack, s)
	f.mu.Unlock()
}

// remove drops s from the stack and reports whether it was on top.
// A span that is not on the stack at all is treated as on top.
func (f *flow) remove(s *Span) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := len(f.stack) - 1; i >= 0; i-- {
		if f.stack[i] != s {
			continue
		}
		onTop := i == len(f.stack)-1
		copy(f.stack[i:], f.stack[i+1:])
		f.stack[len(f.stack)-1] = nil
		f.stack = f.stack[:len(f.stack)-1]
		return onTop
	}
	return true
}

func (f *flow) current() *Span {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n := len(f.stack); n > 0 {
		return f.stack[n-1]
	}
	return f.base
}

func (f *flow) depth() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stack)
}

// CurrentSpan returns the innermost open span of the flow carried by ctx.
// In a forked flow with no span of its own it returns the span that was
// current at the fork. It returns nil outside of any span.
func CurrentSpan(ctx context.Context) *Span {
	f := flowFromContext(ctx)
	if f == nil {
		return nil
	}
	return f.current()
}

// Fork derives a context with a fresh flow for work handed to another
// goroutine. Spans started from the returned context are children of the
// span that is current in ctx, but they live on their own stack.
//
// Example:
//
//	ctx, span := t.StartSpan(ctx, "fan-out")
//	defer span.End()
//
//	for _, item := range items {
//	    go func(ctx context.Context) {
//	        _, child := t.StartSpan(ctx, "fetch")
//	        defer child.End()
//	    }(tracer.Fork(ctx))
//	}
func Fork(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, flowKey{}, &flow{base: CurrentSpan(ctx)})
}
