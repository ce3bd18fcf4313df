// Package observability provides OpenTelemetry integration for tracing and metrics.
package observability

import (
	"io"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Config configures the observability infrastructure.
type Config struct {
	// ServiceName is the name of the service for telemetry.
	ServiceName string

	// ServiceVersion is the version of the service.
	ServiceVersion string

	// Environment is the deployment environment (e.g., "production", "kiosk").
	Environment string

	// Tracing configures tracing of deliveries.
	Tracing TracingConfig

	// Metrics configures metrics collection.
	Metrics MetricsConfig
}

// TracingConfig configures tracing.
type TracingConfig struct {
	// Enabled enables tracing (default: false).
	Enabled bool

	// Exporter specifies the trace exporter type.
	Exporter ExporterType

	// Endpoint is the OTLP endpoint (e.g., "localhost:4317").
	Endpoint string

	// Insecure disables TLS for the exporter connection.
	Insecure bool

	// Writer receives stdout spans. Defaults to os.Stdout.
	Writer io.Writer

	// SampleRate is the sampling rate (0.0-1.0, default: 1.0).
	SampleRate float64

	// BatchTimeout is the batch export timeout.
	BatchTimeout time.Duration

	// MaxExportBatchSize is the maximum batch size.
	MaxExportBatchSize int
}

// MetricsConfig configures metrics collection.
type MetricsConfig struct {
	// Enabled enables metrics (default: false).
	Enabled bool

	// Reader collects the metrics. Defaults to a manual reader that is
	// drained by Provider.Collect.
	Reader sdkmetric.Reader
}

// ExporterType specifies the trace exporter.
type ExporterType string

const (
	// ExporterOTLP exports to an OTLP endpoint (e.g., Jaeger, Tempo, Grafana).
	ExporterOTLP ExporterType = "otlp"

	// ExporterStdout exports to stdout (useful for development).
	ExporterStdout ExporterType = "stdout"

	// ExporterNoop disables export (no-op).
	ExporterNoop ExporterType = "noop"
)

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "agent-presence",
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Tracing: TracingConfig{
			Enabled:            false,
			Exporter:           ExporterNoop,
			SampleRate:         1.0,
			BatchTimeout:       5 * time.Second,
			MaxExportBatchSize: 512,
		},
	}
}

// Option configures the observability infrastructure.
type Option func(*Config)

// WithServiceName sets the service name.
func WithServiceName(name string) Option {
	return func(c *Config) {
		c.ServiceName = name
	}
}

// WithServiceVersion sets the service version.
func WithServiceVersion(version string) Option {
	return func(c *Config) {
		c.ServiceVersion = version
	}
}

// WithEnvironment sets the environment.
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithTracing enables tracing with the specified exporter.
func WithTracing(exporter ExporterType, endpoint string) Option {
	return func(c *Config) {
		c.Tracing.Enabled = true
		c.Tracing.Exporter = exporter
		c.Tracing.Endpoint = endpoint
	}
}

// WithTracingInsecure disables TLS for tracing.
func WithTracingInsecure() Option {
	return func(c *Config) {
		c.Tracing.Insecure = true
	}
}

// WithSampleRate sets the trace sampling rate.
func WithSampleRate(rate float64) Option {
	return func(c *Config) {
		c.Tracing.SampleRate = rate
	}
}

// WithStdoutTracing enables stdout tracing into w (for development).
func WithStdoutTracing(w io.Writer) Option {
	return func(c *Config) {
		c.Tracing.Enabled = true
		c.Tracing.Exporter = ExporterStdout
		c.Tracing.Writer = w
	}
}

// WithOTLP enables OTLP trace export.
func WithOTLP(endpoint string) Option {
	return WithTracing(ExporterOTLP, endpoint)
}

// WithMetrics enables metrics collection.
func WithMetrics() Option {
	return func(c *Config) {
		c.Metrics.Enabled = true
	}
}

// WithMetricReader enables metrics collection into reader.
func WithMetricReader(reader sdkmetric.Reader) Option {
	return func(c *Config) {
		c.Metrics.Enabled = true
		c.Metrics.Reader = reader
	}
}

// FromSettings maps the tracing and metrics settings of a presence
// configuration onto options. tracing is "", "stdout" or "otlp".
func FromSettings(metrics bool, tracing, endpoint string, traceOut io.Writer) []Option {
	var opts []Option
	if metrics {
		opts = append(opts, WithMetrics())
	}
	switch tracing {
	case "stdout":
		opts = append(opts, WithStdoutTracing(traceOut))
	case "otlp":
		opts = append(opts, WithOTLP(endpoint), WithTracingInsecure())
	}
	return opts
}
