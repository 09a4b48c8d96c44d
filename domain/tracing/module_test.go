package tracing

import (
	"io"
	"log/slog"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/sahilravan/Enhanced-VM-Health-Check/internal/config"
)

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), Sampler(1).Description())
	assert.Equal(t, sdktrace.AlwaysSample().Description(), Sampler(2.5).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), Sampler(0).Description())
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.25).Description(), Sampler(0.25).Description())
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	cfg := &config.Config{Otel: config.OtelConfig{ServiceName: "vmhealth"}}
	result, err := NewTracerProvider(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	assert.Nil(t, result.SDKProvider)
	_, isNoop := otel.GetTracerProvider().(noop.TracerProvider)
	assert.True(t, isNoop)
}

func TestModule_EnabledShutsDownOnStop(t *testing.T) {
	cfg := &config.Config{Otel: config.OtelConfig{
		ExporterEndpoint: "http://127.0.0.1:4318",
		ServiceName:      "vmhealth-test",
		SamplingRate:     1.0,
	}}

	app := fxtest.New(t,
		fx.Supply(cfg, slog.New(slog.NewTextHandler(io.Discard, nil))),
		Module,
	)
	app.RequireStart()
	_, isSDK := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, isSDK)
	app.RequireStop()
}

func TestRegisterEchoMiddleware(t *testing.T) {
	e := echo.New()
	RegisterEchoMiddleware(e, &config.Config{})
	assert.Empty(t, e.Routes())

	// enabling tracing must not panic or register routes
	RegisterEchoMiddleware(e, &config.Config{Otel: config.OtelConfig{ExporterEndpoint: "http://127.0.0.1:4318", ServiceName: "vmhealth"}})
	assert.Empty(t, e.Routes())
}
