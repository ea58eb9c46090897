package exporter

import (
	"context"
	"sync"
	"sync/atomic"

	"google.golang.org/protobuf/proto"

	"github.com/Aleph-Alpha/telemetry/v1/observability"
)

// Logger is an interface that matches the logger.LoggerClient methods used for diagnostics.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Encoder turns a batch into the wire message sent by the Transport.
type Encoder[T any] func(batch []T) (proto.Message, error)

// State is the externally visible phase of a pipeline.
type State int

const (
	// Idle means nothing is buffered and no export is running.
	Idle State = iota
	// Accepting means records are buffered and waiting for a flush.
	Accepting
	// Flushing means a batch is being transmitted.
	Flushing
	// Draining means Shutdown was called; new records are refused.
	Draining
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Accepting:
		return "accepting"
	case Flushing:
		return "flushing"
	case Draining:
		return "draining"
	default:
		return "unknown"
	}
}

// Pipeline batches records of one signal type and ships them to a collector
// from a background worker.
//
// Producers call Enqueue, which never blocks and never performs I/O. A batch
// leaves the buffer when it reaches MaxBatchSize, when the flush timer fires,
// on an explicit Flush, or during Shutdown.
type Pipeline[T any] struct {
	signal    Signal
	cfg       Config
	encode    Encoder[T]
	transport Transport
	logger    Logger
	observer  observability.Observer

	mu       sync.Mutex
	batch    []T
	queue    [][]T
	buffered int
	closed   bool

	// exportMu serialises transmissions so batches leave in enqueue order.
	exportMu  sync.Mutex
	exporting atomic.Bool

	dropped  atomic.Uint64
	exported atomic.Uint64

	wake          chan struct{}
	stop          chan struct{}
	done          chan struct{}
	retryCtx      context.Context
	cancelRetries context.CancelFunc
}

// New creates a pipeline and starts its background worker.
//
// Parameters:
//   - signal: The signal the pipeline carries, used in diagnostics and metrics
//   - cfg: Batching and retry settings; zero fields take defaults
//   - encode: Converts a batch into the message handed to transport
//   - transport: Delivers encoded batches
//
// Example:
//
//	spans := exporter.New[tracer.SpanData](
//	    exporter.SignalTraces,
//	    exporter.Config{FlushInterval: 2 * time.Second, MaxBatchSize: 256},
//	    func(batch []tracer.SpanData) (proto.Message, error) {
//	        return otlp.EncodeSpans(res, batch), nil
//	    },
//	    exporter.NewOTLPTraceHTTPTransport(httpCfg),
//	).WithLogger(log)
//	defer spans.Shutdown(ctx)
func New[T any](signal Signal, cfg Config, encode Encoder[T], transport Transport) *Pipeline[T] {
	cfg = cfg.WithDefaults()
	retryCtx, cancel := context.WithCancel(context.Background())

	p := &Pipeline[T]{
		signal:        signal,
		cfg:           cfg,
		encode:        encode,
		transport:     transport,
		logger:        nopLogger{},
		batch:         make([]T, 0, cfg.MaxBatchSize),
		wake:          make(chan struct{}, 1),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
		retryCtx:      retryCtx,
		cancelRetries: cancel,
	}

	go p.run()
	return p
}

// WithLogger attaches a diagnostic logger. It must be called before records
// are enqueued.
func (p *Pipeline[T]) WithLogger(logger Logger) *Pipeline[T] {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// WithObserver attaches an observer notified of exports, retries and drops.
// It must be called before records are enqueued.
func (p *Pipeline[T]) WithObserver(observer observability.Observer) *Pipeline[T] {
	p.observer = observer
	return p
}

// Signal returns the signal the pipeline carries.
func (p *Pipeline[T]) Signal() Signal {
	return p.signal
}

// Config returns the effective configuration after defaults.
func (p *Pipeline[T]) Config() Config {
	return p.cfg
}

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}
