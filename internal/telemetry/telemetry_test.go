package telemetry

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func TestNormalizeOTLPEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		hostport string
		urlPath  string
		insecure bool
		resolved string
		wantErr  bool
	}{
		{"default localhost", "http://localhost:4318", "localhost:4318", "/v1/traces", true, "http://localhost:4318/v1/traces", false},
		{"trailing slash base", "http://collector:4318/", "collector:4318", "/v1/traces", true, "http://collector:4318/v1/traces", false},
		{"already traces path", "http://collector:4318/v1/traces", "collector:4318", "/v1/traces", true, "http://collector:4318/v1/traces", false},
		{"custom base path", "https://otlp.example.com:4318/otlp", "otlp.example.com:4318", "/otlp/v1/traces", false, "https://otlp.example.com:4318/otlp/v1/traces", false},
		{"invalid no scheme", "collector:4318", "", "", true, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hp, path, insecure, resolved, err := normalizeOTLPEndpoint(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hostport, hp)
			assert.Equal(t, tt.urlPath, path)
			assert.Equal(t, tt.insecure, insecure)
			assert.Equal(t, tt.resolved, resolved)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.NotNil(t, config)
	assert.True(t, config.Enabled)
	assert.Equal(t, ExporterOTLP, config.Exporter)
	assert.Equal(t, "http://localhost:4318", config.OTLPEndpoint)
	assert.Equal(t, ServiceName, config.ServiceName)
	assert.Equal(t, ServiceVersion, config.ServiceVersion)
	assert.Equal(t, 1.0, config.SampleRate)
	assert.Equal(t, 5*time.Second, config.BatchTimeout)
	assert.Equal(t, 512, config.MaxExportBatch)
	assert.Equal(t, 2048, config.MaxQueueSize)
}

func TestTracerGetters(t *testing.T) {
	assert.NotNil(t, GetTracer("test-tracer"))
	assert.NotNil(t, GetHTTPTracer())
	assert.NotNil(t, GetDatabaseTracer())
	assert.NotNil(t, GetPipelineTracer())
	assert.NotNil(t, GetCacheTracer())
	assert.NotNil(t, GetModelTracer())
}

func TestSpanHelpers(t *testing.T) {
	newCtx, span := StartSpan(context.Background(), GetTracer("test"), "test-span")
	assert.NotNil(t, newCtx)
	assert.NotNil(t, span)

	SetSpanAttributes(span,
		attribute.String("test-key", "test-value"),
		attribute.Int64("test-int", 42),
	)
	RecordError(span, assert.AnError)
	RecordError(span, nil)
	SetSpanStatus(span, codes.Ok, "success")
	span.End()
}

func TestAttributeHelpers(t *testing.T) {
	strAttr := StringAttribute("key", "value")
	assert.Equal(t, attribute.Key("key"), strAttr.Key)
	assert.Equal(t, "value", strAttr.Value.AsString())

	sliceAttr := StringSliceAttribute("key", []string{"a", "b"})
	assert.Equal(t, attribute.STRINGSLICE, sliceAttr.Value.Type())
	assert.Equal(t, []string{"a", "b"}, sliceAttr.Value.AsStringSlice())

	assert.Equal(t, int64(42), Int64Attribute("key", 42).Value.AsInt64())
	assert.Equal(t, 3.14, Float64Attribute("key", 3.14).Value.AsFloat64())
	assert.True(t, BoolAttribute("key", true).Value.AsBool())
}

func TestInitTelemetryWithProviderDisabled(t *testing.T) {
	for _, cfg := range []*TelemetryConfig{nil, {Enabled: false}, {Enabled: true, Exporter: ExporterNone}} {
		provider, err := InitTelemetryWithProvider(context.Background(), cfg, slog.Default())
		require.NoError(t, err)
		require.NotNil(t, provider)
		assert.NotNil(t, provider.logger)
		assert.NoError(t, provider.Shutdown(context.Background()))
	}
}

func TestInitTelemetryWithProviderStdout(t *testing.T) {
	t.Cleanup(func() { _ = Shutdown() })

	provider, err := InitTelemetryWithProvider(context.Background(), &TelemetryConfig{
		Enabled:     true,
		Exporter:    ExporterStdout,
		ServiceName: "test-service",
		Environment: "test",
	}, slog.Default())
	require.NoError(t, err)
	require.NotNil(t, provider)
	assert.NotNil(t, GetLogger())
}

func TestInitTelemetryWithProviderInvalidEndpoint(t *testing.T) {
	provider, err := InitTelemetryWithProvider(context.Background(), &TelemetryConfig{
		Enabled:      true,
		Exporter:     ExporterOTLP,
		OTLPEndpoint: "invalid-url://[invalid",
	}, slog.Default())
	assert.Error(t, err)
	assert.Nil(t, provider)
	assert.Contains(t, err.Error(), "invalid OTLPEndpoint")
}

func TestInitTelemetryWithProviderUnknownExporter(t *testing.T) {
	_, err := InitTelemetryWithProvider(context.Background(), &TelemetryConfig{
		Enabled:  true,
		Exporter: "zipkin",
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown trace exporter")
}

func TestShutdownWithoutProvider(t *testing.T) {
	globalProvider = nil
	assert.NoError(t, Shutdown())
}

func TestLoggerFallsBackToDefault(t *testing.T) {
	prev := globalLogger
	globalLogger = nil
	t.Cleanup(func() { globalLogger = prev })

	assert.Equal(t, slog.Default(), Logger())
	assert.Nil(t, GetLogger())
}
