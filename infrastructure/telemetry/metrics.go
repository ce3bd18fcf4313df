// Package telemetry provides OpenTelemetry metrics for the presence
// pipeline.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
)

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	// Counters
	derivations     metric.Int64Counter
	transitions     metric.Int64Counter
	malformed       metric.Int64Counter
	reconnects      metric.Int64Counter
	timelineAppends metric.Int64Counter
	errors          metric.Int64Counter

	// Histograms
	activity metric.Float64Histogram
	dwell    metric.Float64Histogram

	// Gauges (using UpDownCounter for OpenTelemetry)
	connectedFeeds metric.Int64UpDownCounter

	initOnce sync.Once
	initErr  error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter (default: "github.com/felixgeelhaar/agent-presence").
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
	// MeterProvider overrides the global provider when set.
	MeterProvider metric.MeterProvider
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/felixgeelhaar/agent-presence",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a new metrics provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config.MeterName = DefaultMetricsConfig().MeterName
	}

	provider := config.MeterProvider
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(
		config.MeterName,
		metric.WithInstrumentationVersion(config.MeterVersion),
	)

	mp := &MetricsProvider{
		meter: meter,
	}

	mp.initOnce.Do(func() {
		mp.initErr = mp.initInstruments()
	})

	return mp
}

func (mp *MetricsProvider) initInstruments() error {
	var err error

	mp.derivations, err = mp.meter.Int64Counter(
		"presence.profile.derivations",
		metric.WithDescription("Number of presentation profiles derived"),
		metric.WithUnit("{profile}"),
	)
	if err != nil {
		return err
	}

	mp.transitions, err = mp.meter.Int64Counter(
		"presence.state.transitions",
		metric.WithDescription("Number of presence state changes"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return err
	}

	mp.malformed, err = mp.meter.Int64Counter(
		"presence.feed.malformed",
		metric.WithDescription("Number of feed messages that could not be decoded"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return err
	}

	mp.reconnects, err = mp.meter.Int64Counter(
		"presence.feed.reconnects",
		metric.WithDescription("Number of feed link losses followed by a redial"),
		metric.WithUnit("{reconnect}"),
	)
	if err != nil {
		return err
	}

	mp.timelineAppends, err = mp.meter.Int64Counter(
		"presence.timeline.appends",
		metric.WithDescription("Number of timeline entries recorded"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return err
	}

	mp.errors, err = mp.meter.Int64Counter(
		"presence.errors",
		metric.WithDescription("Number of pipeline errors by type"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	mp.activity, err = mp.meter.Float64Histogram(
		"presence.activity",
		metric.WithDescription("Reported audio activity after clamping"),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(0, 0.1, 0.25, 0.5, 0.75, 0.9, 1),
	)
	if err != nil {
		return err
	}

	mp.dwell, err = mp.meter.Float64Histogram(
		"presence.state.dwell",
		metric.WithDescription("Time spent in a state before leaving it"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	mp.connectedFeeds, err = mp.meter.Int64UpDownCounter(
		"presence.feed.connected",
		metric.WithDescription("Number of connected feeds"),
		metric.WithUnit("{feed}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Error returns any initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// RecordDerivation records a derived profile. fallback is set when the
// reported state was unrecognised.
func (mp *MetricsProvider) RecordDerivation(ctx context.Context, state presence.State, fallback bool, activity *float64) {
	attrs := metric.WithAttributes(
		attribute.String("presence.state", string(state)),
		attribute.Bool("fallback", fallback),
	)
	mp.derivations.Add(ctx, 1, attrs)

	if activity != nil {
		mp.activity.Record(ctx, presence.ClampActivity(*activity),
			metric.WithAttributes(attribute.String("presence.state", string(state))))
	}
}

// RecordStateTransition records a state change along with the time spent in
// the state being left.
func (mp *MetricsProvider) RecordStateTransition(ctx context.Context, from, to presence.State, canonical bool, dwell time.Duration) {
	mp.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("state.from", string(from)),
		attribute.String("state.to", string(to)),
		attribute.Bool("canonical", canonical),
	))

	if dwell > 0 {
		mp.dwell.Record(ctx, dwell.Seconds(), metric.WithAttributes(
			attribute.String("presence.state", string(from)),
		))
	}
}

// RecordMalformed records an undecodable feed message.
func (mp *MetricsProvider) RecordMalformed(ctx context.Context, source string) {
	mp.malformed.Add(ctx, 1, metric.WithAttributes(attribute.String("feed.source", source)))
}

// RecordReconnect records a feed link loss.
func (mp *MetricsProvider) RecordReconnect(ctx context.Context, source string) {
	mp.reconnects.Add(ctx, 1, metric.WithAttributes(attribute.String("feed.source", source)))
}

// RecordTimelineAppend records a timeline entry.
func (mp *MetricsProvider) RecordTimelineAppend(ctx context.Context, session string) {
	mp.timelineAppends.Add(ctx, 1, metric.WithAttributes(attribute.String("session", session)))
}

// RecordError records an error.
func (mp *MetricsProvider) RecordError(ctx context.Context, errorType string, details map[string]string) {
	attrs := []attribute.KeyValue{
		attribute.String("error.type", errorType),
	}
	for k, v := range details {
		attrs = append(attrs, attribute.String(k, v))
	}
	mp.errors.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// FeedConnected increments the connected feed gauge.
func (mp *MetricsProvider) FeedConnected(ctx context.Context, source string) {
	mp.connectedFeeds.Add(ctx, 1, metric.WithAttributes(attribute.String("feed.source", source)))
}

// FeedDisconnected decrements the connected feed gauge.
func (mp *MetricsProvider) FeedDisconnected(ctx context.Context, source string) {
	mp.connectedFeeds.Add(ctx, -1, metric.WithAttributes(attribute.String("feed.source", source)))
}

// NoopMetricsProvider is a no-op metrics provider for testing or when metrics are disabled.
type NoopMetricsProvider struct{}

// RecordDerivation is a no-op.
func (n *NoopMetricsProvider) RecordDerivation(context.Context, presence.State, bool, *float64) {}

// RecordStateTransition is a no-op.
func (n *NoopMetricsProvider) RecordStateTransition(context.Context, presence.State, presence.State, bool, time.Duration) {
}

// RecordMalformed is a no-op.
func (n *NoopMetricsProvider) RecordMalformed(context.Context, string) {}

// RecordReconnect is a no-op.
func (n *NoopMetricsProvider) RecordReconnect(context.Context, string) {}

// RecordTimelineAppend is a no-op.
func (n *NoopMetricsProvider) RecordTimelineAppend(context.Context, string) {}

// RecordError is a no-op.
func (n *NoopMetricsProvider) RecordError(context.Context, string, map[string]string) {}

// FeedConnected is a no-op.
func (n *NoopMetricsProvider) FeedConnected(context.Context, string) {}

// FeedDisconnected is a no-op.
func (n *NoopMetricsProvider) FeedDisconnected(context.Context, string) {}

// Metrics defines the interface for metrics recording.
type Metrics interface {
	RecordDerivation(ctx context.Context, state presence.State, fallback bool, activity *float64)
	RecordStateTransition(ctx context.Context, from, to presence.State, canonical bool, dwell time.Duration)
	RecordMalformed(ctx context.Context, source string)
	RecordReconnect(ctx context.Context, source string)
	RecordTimelineAppend(ctx context.Context, session string)
	RecordError(ctx context.Context, errorType string, details map[string]string)
	FeedConnected(ctx context.Context, source string)
	FeedDisconnected(ctx context.Context, source string)
}

// Ensure implementations satisfy the interface.
var (
	_ Metrics = (*MetricsProvider)(nil)
	_ Metrics = (*NoopMetricsProvider)(nil)
)
