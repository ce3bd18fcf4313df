package observability

import (
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func noopTracerProvider() trace.TracerProvider {
	return tracenoop.NewTracerProvider()
}

func noopMeterProvider() metric.MeterProvider {
	return metricnoop.NewMeterProvider()
}

// NewNoopProvider creates a provider with no-op tracing and metrics.
func NewNoopProvider() *Provider {
	return &Provider{
		config:         DefaultConfig(),
		tracerProvider: noopTracerProvider(),
		meterProvider:  noopMeterProvider(),
		shutdownFuncs:  nil,
	}
}
