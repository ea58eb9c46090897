package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/proto"

	"github.com/Aleph-Alpha/telemetry/v1/exporter"
	"github.com/Aleph-Alpha/telemetry/v1/logger"
	"github.com/Aleph-Alpha/telemetry/v1/meter"
	"github.com/Aleph-Alpha/telemetry/v1/metrics"
	"github.com/Aleph-Alpha/telemetry/v1/observability"
	"github.com/Aleph-Alpha/telemetry/v1/otlp"
	"github.com/Aleph-Alpha/telemetry/v1/resource"
	"github.com/Aleph-Alpha/telemetry/v1/tracer"
)

// Telemetry owns everything the instrumentation core needs for the lifetime
// of a process: the resource, the span engine, the metric aggregator, the
// correlated logger and the three export pipelines.
//
// Create it once at startup with New, call Start, and call Shutdown before
// exiting. The export pipelines accept records from the moment New returns.
type Telemetry struct {
	// Resource describes the process on every exported request
	Resource *resource.Resource

	// Tracer opens spans; closed spans go to the trace pipeline
	Tracer *tracer.Tracer

	// Meter aggregates metrics; snapshots go to the metric pipeline
	Meter *meter.Meter

	// Logger writes locally and forwards correlated records to the log pipeline
	Logger *logger.LoggerClient

	// Metrics exposes pipeline health; nil when self metrics are disabled.
	// Its Create* factories register application series on the same endpoint.
	Metrics *metrics.Metrics

	cfg Config
	log *logger.LoggerClient

	spans   *exporter.Pipeline[tracer.SpanData]
	points  *exporter.Pipeline[meter.Snapshot]
	records *exporter.Pipeline[logger.Record]

	mu       sync.Mutex
	started  bool
	stopped  bool
	cancel   context.CancelFunc
	meterRun chan struct{}
}

// Option customizes New.
type Option func(*options)

type options struct {
	observer   observability.Observer
	transports map[exporter.Signal]exporter.Transport
}

// WithObserver reports pipeline activity to observer instead of the built-in
// Prometheus metrics.
func WithObserver(observer observability.Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithTransport replaces the configured transport of one signal.
func WithTransport(signal exporter.Signal, transport exporter.Transport) Option {
	return func(o *options) {
		o.transports[signal] = transport
	}
}

// New wires the telemetry context from cfg.
//
// log is the diagnostic logger used by the library itself and the base of
// the correlated Logger. A nil log creates one from the resource settings.
// Configuration errors wrap ErrInvalidConfig.
//
// Example:
//
//	cfg, err := telemetry.LoadConfig("telemetry.yaml")
//	if err != nil {
//	    return err
//	}
//	tel, err := telemetry.New(cfg, log)
//	if err != nil {
//	    return err
//	}
//	tel.Start(ctx)
//	defer tel.Shutdown(context.Background())
//
//	ctx, span := tel.Tracer.StartSpan(ctx, "GET /cart", tracer.WithSpanKind(trace.SpanKindServer))
//	defer span.End()
//	tel.Logger.InfoWithContext(ctx, "Fetching cart", nil)
func New(cfg Config, log *logger.LoggerClient, opts ...Option) (*Telemetry, error) {
	o := options{transports: make(map[exporter.Signal]exporter.Transport)}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Exporter = cfg.Exporter.WithDefaults()

	res, err := resource.New(cfg.Resource)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if log == nil {
		log = logger.NewLoggerClient(logger.Config{
			Level:       logger.Info,
			ServiceName: res.ServiceName(),
		})
	}

	t := &Telemetry{
		Resource: res,
		cfg:      cfg,
		log:      log,
	}

	observer := o.observer
	if observer == nil && cfg.SelfMetrics.Address != "" {
		selfCfg := cfg.SelfMetrics
		if selfCfg.ServiceName == "" {
			selfCfg.ServiceName = res.ServiceName()
		}
		t.Metrics = metrics.NewMetrics(selfCfg)
		observer = t.Metrics
	}

	transports := make(map[exporter.Signal]exporter.Transport, 3)
	for _, signal := range []exporter.Signal{exporter.SignalTraces, exporter.SignalMetrics, exporter.SignalLogs} {
		if tr, ok := o.transports[signal]; ok {
			transports[signal] = tr
			continue
		}
		transports[signal] = t.newTransport(signal)
	}

	t.spans = exporter.New(exporter.SignalTraces, cfg.Exporter,
		func(batch []tracer.SpanData) (proto.Message, error) {
			return otlp.EncodeSpans(res, batch), nil
		},
		transports[exporter.SignalTraces],
	).WithLogger(log).WithObserver(observer)

	t.points = exporter.New(exporter.SignalMetrics, cfg.Exporter,
		func(batch []meter.Snapshot) (proto.Message, error) {
			return otlp.EncodeMetrics(res, batch), nil
		},
		transports[exporter.SignalMetrics],
	).WithLogger(log).WithObserver(observer)

	t.records = exporter.New(exporter.SignalLogs, cfg.Exporter,
		func(batch []logger.Record) (proto.Message, error) {
			return otlp.EncodeLogs(res, batch), nil
		},
		transports[exporter.SignalLogs],
	).WithLogger(log).WithObserver(observer)

	t.Tracer = tracer.NewClient(tracer.Config{
		ServiceName: res.ServiceName(),
		SampleRatio: cfg.Tracing.SampleRatio,
	}, t.spans, log)
	t.Meter = meter.NewMeter(cfg.Meter, t.points, log)
	t.Logger = log.WithCorrelation(res, t.records)

	log.Info("telemetry initialized", nil, map[string]interface{}{
		"service":   res.ServiceName(),
		"transport": string(cfg.transport()),
	})
	return t, nil
}

func (t *Telemetry) newTransport(signal exporter.Signal) exporter.Transport {
	switch t.cfg.transport() {
	case TransportKafka:
		return exporter.NewKafkaTransport(t.cfg.Kafka, signal, t.log)
	case TransportOTLPTrace:
		if signal == exporter.SignalTraces {
			return exporter.NewOTLPTraceHTTPTransport(t.cfg.Collector)
		}
	}
	return exporter.NewHTTPTransport(t.cfg.Collector, signal)
}

// Start launches the periodic metric collection and, when configured, the
// self metrics server. Calling Start more than once is a no-op.
func (t *Telemetry) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started || t.stopped {
		return
	}
	t.started = true

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	t.cancel = cancel
	done := make(chan struct{})
	t.meterRun = done
	go func() {
		defer close(done)
		t.Meter.Run(runCtx)
	}()

	if t.Metrics != nil {
		go func() {
			t.log.Info("Starting Prometheus metrics server", nil, map[string]interface{}{
				"address": t.Metrics.Server.Addr,
			})
			if err := t.Metrics.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				t.log.Error("Error starting Prometheus metrics server", err, nil)
			}
		}()
	}
}

// Flush exports everything buffered so far, including the metrics of the
// current period, and waits for the transmissions to finish.
func (t *Telemetry) Flush(ctx context.Context) {
	if snapshot := t.Meter.Collect(); !snapshot.Empty() {
		t.points.Enqueue(snapshot)
	}

	var wg sync.WaitGroup
	for _, flush := range []func(context.Context){t.spans.Flush, t.points.Flush, t.records.Flush} {
		wg.Add(1)
		go func(flush func(context.Context)) {
			defer wg.Done()
			flush(ctx)
		}(flush)
	}
	wg.Wait()
}

// Shutdown stops metric collection, which emits the last partial period,
// then drains the three pipelines concurrently and closes their transports.
// Errors from each step are joined, typically ctx expiring before the
// drain completed. Calling Shutdown again is a no-op.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return nil
	}
	t.stopped = true
	started := t.started
	t.mu.Unlock()

	// Pipelines are drained even if the final collection timed out.
	var collectErr error
	if started {
		t.cancel()
		select {
		case <-t.meterRun:
		case <-ctx.Done():
			collectErr = fmt.Errorf("telemetry: waiting for metric collection: %w", ctx.Err())
		}
	} else if snapshot := t.Meter.Collect(); !snapshot.Empty() {
		t.points.Enqueue(snapshot)
	}

	var g errgroup.Group
	g.Go(func() error { return t.spans.Shutdown(ctx) })
	g.Go(func() error { return t.points.Shutdown(ctx) })
	g.Go(func() error { return t.records.Shutdown(ctx) })
	if started && t.Metrics != nil {
		g.Go(func() error { return t.Metrics.Server.Shutdown(ctx) })
	}

	err := errors.Join(collectErr, g.Wait())

	fields := map[string]interface{}{
		"exported_spans":   t.spans.Exported(),
		"exported_metrics": t.points.Exported(),
		"exported_logs":    t.records.Exported(),
		"dropped":          t.Dropped(),
	}
	if err != nil {
		t.log.Error("telemetry shutdown incomplete", err, fields)
		return err
	}
	t.log.Info("telemetry shut down", nil, fields)
	return nil
}

// Dropped returns the number of records lost across all pipelines.
func (t *Telemetry) Dropped() uint64 {
	return t.spans.Dropped() + t.points.Dropped() + t.records.Dropped()
}

// Config returns the effective configuration with defaults applied.
func (t *Telemetry) Config() Config {
	return t.cfg
}
