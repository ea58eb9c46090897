package exporter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Enqueue appends a record to the current batch. It never blocks.
//
// When the batch reaches MaxBatchSize it is handed to the worker at once.
// When MaxQueueSize records are already buffered the overflow policy decides
// which record is lost. After Shutdown every record is refused. Each lost
// record is counted in Dropped. The return value reports whether rec was
// accepted.
func (p *Pipeline[T]) Enqueue(rec T) bool {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		p.drop(1, "shutdown")
		return false
	}

	if p.buffered >= p.cfg.MaxQueueSize {
		if p.cfg.OverflowPolicy != DropOldest {
			p.mu.Unlock()
			p.drop(1, "queue_full")
			p.logger.Warn("export buffer full, dropping newest record", nil, map[string]interface{}{
				"signal":         string(p.signal),
				"max_queue_size": p.cfg.MaxQueueSize,
			})
			return false
		}
		p.evictOldestLocked()
		defer func() {
			p.drop(1, "queue_full")
			p.logger.Warn("export buffer full, dropping oldest record", nil, map[string]interface{}{
				"signal":         string(p.signal),
				"max_queue_size": p.cfg.MaxQueueSize,
			})
		}()
	}

	p.batch = append(p.batch, rec)
	p.buffered++

	full := len(p.batch) >= p.cfg.MaxBatchSize
	if full {
		p.queue = append(p.queue, p.batch)
		p.batch = make([]T, 0, p.cfg.MaxBatchSize)
	}
	p.mu.Unlock()

	if full {
		select {
		case p.wake <- struct{}{}:
		default:
		}
	}
	return true
}

func (p *Pipeline[T]) evictOldestLocked() {
	if len(p.queue) > 0 {
		p.queue[0] = p.queue[0][1:]
		if len(p.queue[0]) == 0 {
			p.queue = p.queue[1:]
		}
	} else {
		p.batch = p.batch[1:]
	}
	p.buffered--
}

// Flush moves the current batch to the export queue and transmits everything
// queued, retrying each batch with exponential backoff. A batch that still
// fails after MaxRetries is discarded and counted in Dropped. Flush never
// returns an error; ctx only bounds the waiting between retries.
func (p *Pipeline[T]) Flush(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.sealLocked()
	p.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(p.retryCtx, cancel)
	defer stop()

	p.exportQueued(ctx, true)
}

// Shutdown stops accepting records, cancels pending retries and transmits
// whatever is still buffered with a single attempt per batch. It returns once
// the buffer is empty and the transport is closed, or with ctx's error when
// ctx expires first. Calling Shutdown again is a no-op.
func (p *Pipeline[T]) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.sealLocked()
	p.mu.Unlock()

	p.cancelRetries()
	close(p.stop)

	select {
	case <-p.done:
	case <-ctx.Done():
		return fmt.Errorf("exporter: %s pipeline shutdown: %w", p.signal, ctx.Err())
	}

	if p.transport == nil {
		return nil
	}
	return p.transport.Close(ctx)
}

// State reports the current phase.
func (p *Pipeline[T]) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.closed:
		return Draining
	case p.exporting.Load():
		return Flushing
	case p.buffered > 0:
		return Accepting
	default:
		return Idle
	}
}

// Dropped returns the number of records lost to overflow, shutdown or
// failed exports since creation.
func (p *Pipeline[T]) Dropped() uint64 {
	return p.dropped.Load()
}

// Exported returns the number of records delivered since creation.
func (p *Pipeline[T]) Exported() uint64 {
	return p.exported.Load()
}

// Buffered returns the number of records waiting for export.
func (p *Pipeline[T]) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffered
}

// sealLocked moves a non-empty current batch to the queue.
func (p *Pipeline[T]) sealLocked() {
	if len(p.batch) == 0 {
		return
	}
	p.queue = append(p.queue, p.batch)
	p.batch = make([]T, 0, p.cfg.MaxBatchSize)
}

func (p *Pipeline[T]) run() {
	defer close(p.done)

	ticker := time.NewTicker(p.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			p.exportQueued(context.Background(), false)
			return
		case <-p.wake:
			p.exportQueued(p.retryCtx, true)
		case <-ticker.C:
			p.mu.Lock()
			p.sealLocked()
			p.mu.Unlock()
			p.exportQueued(p.retryCtx, true)
		}
	}
}

// exportQueued sends queued batches one at a time until the queue is empty.
func (p *Pipeline[T]) exportQueued(ctx context.Context, retry bool) {
	p.exportMu.Lock()
	defer p.exportMu.Unlock()

	for {
		p.mu.Lock()
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		batch := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.buffered -= len(batch)
		p.exporting.Store(true)
		p.mu.Unlock()

		p.export(ctx, batch, retry)
		p.exporting.Store(false)
	}
}

// export encodes batch once and transmits it.
func (p *Pipeline[T]) export(ctx context.Context, batch []T, retry bool) {
	start := time.Now()

	msg, err := p.encode(batch)
	if err != nil {
		p.drop(len(batch), "encode")
		p.logger.Error("failed to encode export batch", err, map[string]interface{}{
			"signal":  string(p.signal),
			"records": len(batch),
		})
		return
	}

	maxTries := uint(1)
	if retry {
		maxTries += uint(p.cfg.MaxRetries)
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = p.cfg.InitialBackoff
	expo.MaxInterval = p.cfg.MaxBackoff

	operation := func() (struct{}, error) {
		attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.ExportTimeout)
		defer cancel()

		if err := p.transport.Send(attemptCtx, msg); err != nil {
			if !IsRetryable(err) {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		}
		return struct{}{}, nil
	}

	notify := func(err error, next time.Duration) {
		p.observe("retry", "", 0, err, int64(len(batch)))
		p.logger.Debug("export attempt failed, retrying", err, map[string]interface{}{
			"signal":  string(p.signal),
			"backoff": next.String(),
		})
	}

	_, err = backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(maxTries),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)
	if err != nil {
		reason := "export_failed"
		if errors.Is(err, context.Canceled) {
			reason = "retry_cancelled"
		}
		p.drop(len(batch), reason)
		p.observe("export", "", time.Since(start), err, int64(len(batch)))
		p.logger.Warn("dropping export batch", err, map[string]interface{}{
			"signal":  string(p.signal),
			"records": len(batch),
			"reason":  reason,
		})
		return
	}

	p.exported.Add(uint64(len(batch)))
	p.observe("export", "", time.Since(start), nil, int64(len(batch)))
}

func (p *Pipeline[T]) drop(n int, reason string) {
	p.dropped.Add(uint64(n))
	p.observe("drop", reason, 0, nil, int64(n))
}
