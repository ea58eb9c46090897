package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	colmetricspb "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/protobuf/proto"

	"github.com/Aleph-Alpha/telemetry/v1/exporter"
	"github.com/Aleph-Alpha/telemetry/v1/logger"
	"github.com/Aleph-Alpha/telemetry/v1/meter"
	"github.com/Aleph-Alpha/telemetry/v1/observability"
	"github.com/Aleph-Alpha/telemetry/v1/resource"
	"github.com/Aleph-Alpha/telemetry/v1/tracer"
)

type collector struct {
	*httptest.Server

	mu     sync.Mutex
	bodies map[string][][]byte
}

func newCollector(t *testing.T) *collector {
	t.Helper()
	c := &collector{bodies: make(map[string][][]byte)}
	c.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		c.mu.Lock()
		c.bodies[r.URL.Path] = append(c.bodies[r.URL.Path], body)
		c.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(c.Close)
	return c
}

func (c *collector) requests(path string) [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.bodies[path]...)
}

// quietLogger keeps entries in memory. A no-op core would disable every
// level and with it the exported copy of each record.
func quietLogger() *logger.LoggerClient {
	core, _ := observer.New(zapcore.DebugLevel)
	return logger.NewLoggerClientFromZap(zap.New(core), logger.Config{})
}

func testConfig(endpoint string) Config {
	return Config{
		Resource: resource.Config{ServiceName: "frontend-service", Environment: "dev"},
		Exporter: exporter.Config{
			FlushInterval: time.Hour,
			MaxRetries:    -1,
		},
		Collector: exporter.HTTPConfig{Endpoint: endpoint},
	}
}

func TestFlushExportsAllSignals(t *testing.T) {
	c := newCollector(t)
	tel, err := New(testConfig(c.URL), quietLogger())
	require.NoError(t, err)
	defer func() { _ = tel.Shutdown(context.Background()) }()

	ctx, root := tel.Tracer.StartSpan(context.Background(), "GET /", tracer.WithSpanKind(trace.SpanKindServer))
	childCtx, child := tel.Tracer.StartSpan(ctx, "get-cart", tracer.WithSpanKind(trace.SpanKindClient))
	tel.Logger.InfoWithContext(childCtx, "Fetching cart", nil, map[string]interface{}{"items": 2})
	child.End()
	root.End()

	tel.Meter.Counter("http.server.request.count", "1", "Counts number of incoming HTTP requests").Add(1)

	tel.Flush(context.Background())

	t.Run("traces", func(t *testing.T) {
		bodies := c.requests("/v1/traces")
		require.Len(t, bodies, 1)
		var req coltracepb.ExportTraceServiceRequest
		require.NoError(t, proto.Unmarshal(bodies[0], &req))

		spans := req.ResourceSpans[0].ScopeSpans[0].Spans
		require.Len(t, spans, 2)
		assert.Equal(t, "get-cart", spans[0].Name)
		assert.Equal(t, "GET /", spans[1].Name)
		assert.Equal(t, spans[1].SpanId, spans[0].ParentSpanId)
		assert.Equal(t, spans[1].TraceId, spans[0].TraceId)
	})

	t.Run("logs", func(t *testing.T) {
		bodies := c.requests("/v1/logs")
		require.Len(t, bodies, 1)
		var req collogspb.ExportLogsServiceRequest
		require.NoError(t, proto.Unmarshal(bodies[0], &req))

		records := req.ResourceLogs[0].ScopeLogs[0].LogRecords
		require.Len(t, records, 1)
		assert.Equal(t, "Fetching cart", records[0].Body.GetStringValue())
		childID := child.Context().SpanID
		traceID := child.Context().TraceID
		assert.Equal(t, childID[:], records[0].SpanId)
		assert.Equal(t, traceID[:], records[0].TraceId)
	})

	t.Run("metrics", func(t *testing.T) {
		bodies := c.requests("/v1/metrics")
		require.Len(t, bodies, 1)
		var req colmetricspb.ExportMetricsServiceRequest
		require.NoError(t, proto.Unmarshal(bodies[0], &req))

		metrics := req.ResourceMetrics[0].ScopeMetrics[0].Metrics
		require.Len(t, metrics, 1)
		assert.Equal(t, "http.server.request.count", metrics[0].Name)
		assert.Equal(t, 1.0, metrics[0].GetSum().DataPoints[0].GetAsDouble())
	})

	assert.Zero(t, tel.Dropped())
}

func TestFlushKeepsBatchWithInvalidUTF8(t *testing.T) {
	c := newCollector(t)
	tel, err := New(testConfig(c.URL), quietLogger())
	require.NoError(t, err)
	defer func() { _ = tel.Shutdown(context.Background()) }()

	for i := 0; i < 9; i++ {
		tel.Logger.Info("order placed", nil)
	}
	tel.Logger.Info("bad \xff body", nil)

	tel.Flush(context.Background())

	bodies := c.requests("/v1/logs")
	require.Len(t, bodies, 1)
	var req collogspb.ExportLogsServiceRequest
	require.NoError(t, proto.Unmarshal(bodies[0], &req))

	records := req.ResourceLogs[0].ScopeLogs[0].LogRecords
	require.Len(t, records, 10)
	assert.Equal(t, "bad \uFFFD body", records[9].Body.GetStringValue())
	assert.Zero(t, tel.Dropped())
}

func TestShutdown(t *testing.T) {
	t.Run("emits last metric period", func(t *testing.T) {
		c := newCollector(t)
		tel, err := New(testConfig(c.URL), quietLogger())
		require.NoError(t, err)

		tel.Start(context.Background())
		tel.Meter.Histogram("http.server.request.duration", "s", "Tracks request durations").Record(0.25)

		require.NoError(t, tel.Shutdown(context.Background()))
		assert.Len(t, c.requests("/v1/metrics"), 1)
	})

	t.Run("refuses records afterwards", func(t *testing.T) {
		c := newCollector(t)
		tel, err := New(testConfig(c.URL), quietLogger())
		require.NoError(t, err)
		require.NoError(t, tel.Shutdown(context.Background()))

		_, span := tel.Tracer.StartSpan(context.Background(), "late")
		span.End()
		tel.Logger.Info("late", nil)

		assert.Equal(t, uint64(2), tel.Dropped())
		assert.Empty(t, c.requests("/v1/traces"))
	})

	t.Run("drains pipelines when collection times out", func(t *testing.T) {
		c := newCollector(t)
		tel, err := New(testConfig(c.URL), quietLogger())
		require.NoError(t, err)
		tel.Start(context.Background())
		tel.Logger.Info("queued", nil)

		// a collection that never finishes
		tel.mu.Lock()
		tel.meterRun = make(chan struct{})
		tel.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		err = tel.Shutdown(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		assert.Equal(t, exporter.Draining, tel.spans.State())
		assert.Equal(t, exporter.Draining, tel.points.State())
		assert.Equal(t, exporter.Draining, tel.records.State())
		assert.NoError(t, tel.Shutdown(context.Background()))
	})

	t.Run("is idempotent", func(t *testing.T) {
		c := newCollector(t)
		tel, err := New(testConfig(c.URL), quietLogger())
		require.NoError(t, err)
		tel.Start(context.Background())

		require.NoError(t, tel.Shutdown(context.Background()))
		require.NoError(t, tel.Shutdown(context.Background()))
	})
}

func TestOptions(t *testing.T) {
	t.Run("observer", func(t *testing.T) {
		c := newCollector(t)
		var exported atomic.Int64
		obs := observability.ObserverFunc(func(op observability.OperationContext) {
			if op.Operation == "export" && op.Error == nil {
				exported.Add(op.Size)
			}
		})

		tel, err := New(testConfig(c.URL), quietLogger(), WithObserver(obs))
		require.NoError(t, err)
		defer func() { _ = tel.Shutdown(context.Background()) }()
		assert.Nil(t, tel.Metrics)

		tel.Logger.Info("one", nil)
		tel.Logger.Info("two", nil)
		tel.Flush(context.Background())

		assert.Equal(t, int64(2), exported.Load())
	})

	t.Run("transport", func(t *testing.T) {
		c := newCollector(t)
		ctrl := gomock.NewController(t)
		spans := exporter.NewMockTransport(ctrl)
		spans.EXPECT().Send(gomock.Any(), gomock.AssignableToTypeOf(&coltracepb.ExportTraceServiceRequest{})).Return(nil).Times(1)
		spans.EXPECT().Close(gomock.Any()).Return(nil).Times(1)

		tel, err := New(testConfig(c.URL), quietLogger(), WithTransport(exporter.SignalTraces, spans))
		require.NoError(t, err)

		_, span := tel.Tracer.StartSpan(context.Background(), "checkout")
		span.End()
		tel.Flush(context.Background())

		require.NoError(t, tel.Shutdown(context.Background()))
		assert.Empty(t, c.requests("/v1/traces"))
	})

	t.Run("self metrics", func(t *testing.T) {
		c := newCollector(t)
		cfg := testConfig(c.URL)
		cfg.SelfMetrics.Address = "127.0.0.1:0"

		tel, err := New(cfg, quietLogger())
		require.NoError(t, err)
		defer func() { _ = tel.Shutdown(context.Background()) }()
		require.NotNil(t, tel.Metrics)

		tel.Logger.Info("counted", nil)
		tel.Flush(context.Background())
		tel.Metrics.CreateCounter("checkouts_total", "Completed checkouts", []string{"status"}).
			WithLabelValues("ok").Inc()

		families, err := tel.Metrics.Registry.Gather()
		require.NoError(t, err)
		names := make(map[string]bool)
		for _, mf := range families {
			names[mf.GetName()] = true
		}
		assert.True(t, names["exported_records_total"])
		assert.True(t, names["checkouts_total"])
	})
}

func TestNewTransport(t *testing.T) {
	tests := []struct {
		name      string
		kind      TransportKind
		signal    exporter.Signal
		wantTrace bool
		wantKafka bool
	}{
		{name: "default http", signal: exporter.SignalTraces},
		{name: "otlptrace spans", kind: TransportOTLPTrace, signal: exporter.SignalTraces, wantTrace: true},
		{name: "otlptrace logs", kind: TransportOTLPTrace, signal: exporter.SignalLogs},
		{name: "kafka", kind: TransportKafka, signal: exporter.SignalMetrics, wantKafka: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig("http://localhost:4318")
			cfg.Transport = tt.kind
			cfg.Kafka.Brokers = []string{"localhost:9092"}
			tel := &Telemetry{cfg: cfg, log: quietLogger()}

			tr := tel.newTransport(tt.signal)
			defer func() { _ = tr.Close(context.Background()) }()

			switch {
			case tt.wantTrace:
				assert.IsType(t, &exporter.TraceClientTransport{}, tr)
			case tt.wantKafka:
				assert.IsType(t, &exporter.KafkaTransport{}, tr)
			default:
				require.IsType(t, &exporter.HTTPTransport{}, tr)
				assert.Equal(t, "http://localhost:4318"+tt.signal.Path(), tr.(*exporter.HTTPTransport).URL())
			}
		})
	}
}

func TestConfig(t *testing.T) {
	t.Run("yaml then environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "telemetry.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
service_name: cart-service
environment: dev
flush_interval: 5s
max_batch_size: 10
collector:
  endpoint: http://otlp-daemon-service:4318
tracing:
  sample_ratio: 0.5
meter:
  collect_interval: 15s
`), 0o600))

		t.Setenv("TELEMETRY_MAX_BATCH_SIZE", "20")
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318")

		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, "cart-service", cfg.Resource.ServiceName)
		assert.Equal(t, "dev", cfg.Resource.Environment)
		assert.Equal(t, 5*time.Second, cfg.Exporter.FlushInterval)
		assert.Equal(t, 20, cfg.Exporter.MaxBatchSize)
		assert.Equal(t, exporter.DefaultMaxQueueSize, cfg.Exporter.MaxQueueSize)
		assert.Equal(t, exporter.DropNewest, cfg.Exporter.OverflowPolicy)
		assert.Equal(t, "http://localhost:4318", cfg.Collector.Endpoint)
		assert.Equal(t, 0.5, cfg.Tracing.SampleRatio)
		assert.Equal(t, 15*time.Second, cfg.Meter.CollectInterval)
	})

	t.Run("missing file uses environment", func(t *testing.T) {
		t.Setenv("OTEL_SERVICE_NAME", "product-service")
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318")
		t.Setenv("TELEMETRY_TRANSPORT", "otlptrace")

		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "product-service", cfg.Resource.ServiceName)
		assert.Equal(t, TransportOTLPTrace, cfg.Transport)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "telemetry.yaml")
		require.NoError(t, os.WriteFile(path, []byte("service_name: [unterminated"), 0o600))

		_, err := LoadConfig(path)
		assert.True(t, IsInvalidConfigError(err))
	})

	t.Run("validation", func(t *testing.T) {
		valid := testConfig("http://localhost:4318")
		require.NoError(t, valid.Validate())

		tests := []struct {
			name   string
			mutate func(*Config)
		}{
			{"missing service name", func(c *Config) { c.Resource.ServiceName = "" }},
			{"missing endpoint", func(c *Config) { c.Collector.Endpoint = "" }},
			{"unknown transport", func(c *Config) { c.Transport = "carrier-pigeon" }},
			{"kafka without brokers", func(c *Config) { c.Transport = TransportKafka }},
			{"sample ratio above one", func(c *Config) { c.Tracing.SampleRatio = 1.5 }},
			{"unknown overflow policy", func(c *Config) { c.Exporter.OverflowPolicy = "drop_random" }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				cfg := valid
				tt.mutate(&cfg)
				err := cfg.Validate()
				require.Error(t, err)
				assert.True(t, IsInvalidConfigError(err))

				_, err = New(cfg, quietLogger())
				assert.True(t, IsInvalidConfigError(err))
			})
		}
	})

	t.Run("overflow policy error keeps exporter sentinel", func(t *testing.T) {
		cfg := testConfig("http://localhost:4318")
		cfg.Exporter.OverflowPolicy = "drop_random"
		assert.True(t, exporter.IsInvalidConfigError(cfg.Validate()))
	})
}

func TestFXModule(t *testing.T) {
	c := newCollector(t)

	var (
		tr  *tracer.Tracer
		m   *meter.Meter
		tel *Telemetry
	)
	app := fxtest.New(t,
		FXModule,
		fx.Supply(testConfig(c.URL)),
		fx.Provide(quietLogger),
		fx.Populate(&tr, &m, &tel),
	)
	app.RequireStart()

	require.NotNil(t, tr)
	require.NotNil(t, m)
	assert.Same(t, tel.Tracer, tr)

	_, span := tr.StartSpan(context.Background(), "fx")
	span.End()

	app.RequireStop()
	assert.Len(t, c.requests("/v1/traces"), 1)
}
