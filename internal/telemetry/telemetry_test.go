package telemetry

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	UseTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() {
		_, _ = Init(context.Background(), Config{})
	})
	return rec
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "sessiond", cfg.ServiceName)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{Enabled: true, SampleRate: 0.5}.withDefaults()
	assert.Equal(t, DefaultServiceName, cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, DefaultEndpoint, cfg.Endpoint)
	assert.Equal(t, 0.5, cfg.SampleRate)

	custom := Config{ServiceName: "edge", ServiceVersion: "1.2.0", Endpoint: "otel:4317"}.withDefaults()
	assert.Equal(t, "edge", custom.ServiceName)
	assert.Equal(t, "1.2.0", custom.ServiceVersion)
	assert.Equal(t, "otel:4317", custom.Endpoint)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Init(ctx, DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(ctx))
	assert.False(t, IsEnabled())

	_, span := StartSpan(ctx, "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOn")
	assert.Contains(t, sampler(0).Description(), "AlwaysOff")
	assert.Contains(t, sampler(0.5).Description(), "TraceIDRatioBased")
}

func TestStartSessionSpan(t *testing.T) {
	rec := recordSpans(t)
	remote := &net.TCPAddr{IP: net.ParseIP("10.0.0.7"), Port: 4242}

	ctx, span := StartSessionSpan(context.Background(), SpanSessionAccept, "echo", "abc", remote)
	assert.True(t, IsEnabled())
	assert.NotEmpty(t, TraceID(ctx))
	assert.NotEmpty(t, SpanID(ctx))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, SpanSessionAccept, ended[0].Name())
	assert.Equal(t, trace.SpanKindServer, ended[0].SpanKind())

	attrs := ended[0].Attributes()
	assert.Contains(t, attrs, attribute.String(AttrServer, "echo"))
	assert.Contains(t, attrs, attribute.String(AttrSessionID, "abc"))
	assert.Contains(t, attrs, attribute.String(AttrClientAddr, "10.0.0.7"))
	assert.Contains(t, attrs, attribute.Int(AttrClientPort, 4242))
}

func TestRecordError(t *testing.T) {
	rec := recordSpans(t)

	ctx, span := StartSpan(context.Background(), "op")
	RecordError(ctx, nil)
	RecordError(ctx, errors.New("boom"))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "boom", ended[0].Status().Description)
}

func TestClientAttributes(t *testing.T) {
	assert.Nil(t, ClientAttributes(nil))

	attrs := ClientAttributes(&net.UnixAddr{Name: "/tmp/sock", Net: "unix"})
	assert.Equal(t, []attribute.KeyValue{attribute.String(AttrClientAddr, "/tmp/sock")}, attrs)
}

func TestTraceIDWithoutSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
	assert.Empty(t, SpanID(context.Background()))
}

func TestParseProfileType(t *testing.T) {
	for _, pt := range []string{"cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space",
		"goroutines", "mutex_count", "mutex_duration", "block_count", "block_duration"} {
		_, err := parseProfileType(pt)
		assert.NoError(t, err, pt)
	}
	_, err := parseProfileType("heap")
	assert.Error(t, err)
}

func TestInitProfilingDisabled(t *testing.T) {
	shutdown, err := InitProfiling(ProfilingConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown())
	assert.False(t, IsProfilingEnabled())
}
