package exporter

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	colmetricspb "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
	"google.golang.org/protobuf/proto"
)

func TestHTTPTransport(t *testing.T) {
	t.Run("PostsProtobuf", func(t *testing.T) {
		var gotPath, gotContentType, gotAuth string
		var got colmetricspb.ExportMetricsServiceRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotContentType = r.Header.Get("Content-Type")
			gotAuth = r.Header.Get("Authorization")
			body, _ := io.ReadAll(r.Body)
			_ = proto.Unmarshal(body, &got)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		transport := NewHTTPTransport(HTTPConfig{
			Endpoint: server.URL + "/",
			Headers:  map[string]string{"Authorization": "Bearer token"},
		}, SignalMetrics)

		req := &colmetricspb.ExportMetricsServiceRequest{}
		require.NoError(t, transport.Send(context.Background(), req))

		assert.Equal(t, "/v1/metrics", gotPath)
		assert.Equal(t, "application/x-protobuf", gotContentType)
		assert.Equal(t, "Bearer token", gotAuth)
		assert.Equal(t, server.URL+"/v1/metrics", transport.URL())
	})

	t.Run("StatusErrors", func(t *testing.T) {
		status := http.StatusServiceUnavailable
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte("try later"))
		}))
		defer server.Close()

		transport := NewHTTPTransport(HTTPConfig{Endpoint: server.URL}, SignalLogs)

		err := transport.Send(context.Background(), &collogspb.ExportLogsServiceRequest{})
		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
		assert.Equal(t, "try later", statusErr.Body)
		assert.True(t, IsRetryable(err))

		for _, code := range []int{
			http.StatusInternalServerError,
			http.StatusNotImplemented,
			http.StatusRequestTimeout,
			http.StatusTooManyRequests,
		} {
			status = code
			err = transport.Send(context.Background(), &collogspb.ExportLogsServiceRequest{})
			assert.True(t, IsRetryable(err), "status %d", code)
		}

		for _, code := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound} {
			status = code
			err = transport.Send(context.Background(), &collogspb.ExportLogsServiceRequest{})
			assert.False(t, IsRetryable(err), "status %d", code)
		}
	})

	t.Run("ConnectionErrorIsRetryable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		server.Close()

		transport := NewHTTPTransport(HTTPConfig{Endpoint: server.URL}, SignalLogs)
		err := transport.Send(context.Background(), &collogspb.ExportLogsServiceRequest{})
		require.Error(t, err)
		assert.True(t, IsRetryable(err))
	})

	t.Run("SendAfterClose", func(t *testing.T) {
		transport := NewHTTPTransport(HTTPConfig{Endpoint: "http://localhost:4318"}, SignalLogs)
		require.NoError(t, transport.Close(context.Background()))

		err := transport.Send(context.Background(), &collogspb.ExportLogsServiceRequest{})
		assert.ErrorIs(t, err, ErrTransportClosed)
		assert.False(t, IsRetryable(err))
	})
}

func TestTraceClientTransport(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	var received coltracepb.ExportTraceServiceRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		mu.Lock()
		paths = append(paths, r.URL.Path)
		_ = proto.Unmarshal(body, &received)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/x-protobuf")
		resp, _ := proto.Marshal(&coltracepb.ExportTraceServiceResponse{})
		_, _ = w.Write(resp)
	}))
	defer server.Close()

	transport := NewOTLPTraceHTTPTransport(HTTPConfig{Endpoint: server.URL})

	req := &coltracepb.ExportTraceServiceRequest{
		ResourceSpans: []*tracepb.ResourceSpans{{
			ScopeSpans: []*tracepb.ScopeSpans{{
				Spans: []*tracepb.Span{{Name: "GET /cart", TraceId: make([]byte, 16), SpanId: make([]byte, 8)}},
			}},
		}},
	}
	require.NoError(t, transport.Send(context.Background(), req))

	mu.Lock()
	assert.Equal(t, []string{"/v1/traces"}, paths)
	require.Len(t, received.ResourceSpans, 1)
	assert.Equal(t, "GET /cart", received.ResourceSpans[0].ScopeSpans[0].Spans[0].Name)
	mu.Unlock()

	err := transport.Send(context.Background(), &collogspb.ExportLogsServiceRequest{})
	assert.ErrorIs(t, err, ErrUnsupportedMessage)

	assert.NoError(t, transport.Close(context.Background()))
}

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	closes   int
	err      error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func TestKafkaTransport(t *testing.T) {
	t.Run("WritesOneMessagePerBatch", func(t *testing.T) {
		writer := &fakeWriter{}
		transport := NewKafkaTransportWithWriter(writer, SignalLogs.Topic(""))

		req := &collogspb.ExportLogsServiceRequest{}
		require.NoError(t, transport.Send(context.Background(), req))

		require.Len(t, writer.messages, 1)
		assert.Equal(t, "otlp_logs", writer.messages[0].Topic)

		var decoded collogspb.ExportLogsServiceRequest
		require.NoError(t, proto.Unmarshal(writer.messages[0].Value, &decoded))
	})

	t.Run("WriteErrorIsWrapped", func(t *testing.T) {
		cause := errors.New("leader not available")
		transport := NewKafkaTransportWithWriter(&fakeWriter{err: cause}, "otlp_spans")

		err := transport.Send(context.Background(), &coltracepb.ExportTraceServiceRequest{})
		assert.ErrorIs(t, err, cause)
		assert.True(t, IsRetryable(err))
	})

	t.Run("CloseOnce", func(t *testing.T) {
		writer := &fakeWriter{}
		transport := NewKafkaTransportWithWriter(writer, "otlp_spans")

		require.NoError(t, transport.Close(context.Background()))
		require.NoError(t, transport.Close(context.Background()))
		assert.Equal(t, 1, writer.closes)

		err := transport.Send(context.Background(), &coltracepb.ExportTraceServiceRequest{})
		assert.ErrorIs(t, err, ErrTransportClosed)
	})

	t.Run("WriterConfiguration", func(t *testing.T) {
		transport := NewKafkaTransport(KafkaConfig{
			Brokers:          []string{"localhost:9092"},
			CompressionCodec: "zstd",
		}, SignalTraces, nil)

		writer, ok := transport.writer.(*kafka.Writer)
		require.True(t, ok)
		assert.Equal(t, "otlp_spans", writer.Topic)
		assert.Equal(t, kafka.Zstd, writer.Compression)
		assert.Equal(t, 1, writer.MaxAttempts)
		assert.Empty(t, transport.topic)

		require.NoError(t, transport.Close(context.Background()))
	})
}
