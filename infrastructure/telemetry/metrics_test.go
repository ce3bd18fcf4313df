package telemetry

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
)

// setupTestMetrics sets up a test meter provider and returns it along with a reader.
func setupTestMetrics(t *testing.T) (*metric.ManualReader, *MetricsProvider) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))

	config := DefaultMetricsConfig()
	config.MeterProvider = provider
	mp := NewMetricsProvider(config)
	if mp.Error() != nil {
		t.Fatalf("failed to create metrics provider: %v", mp.Error())
	}

	return reader, mp
}

func collect(t *testing.T, reader *metric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumInt64(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: expected Sum[int64], got %T", m.Name, m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewMetricsProvider(t *testing.T) {
	reader, mp := setupTestMetrics(t)
	defer reader.Shutdown(context.Background())

	if mp == nil {
		t.Fatal("NewMetricsProvider returned nil")
	}
	if mp.Error() != nil {
		t.Errorf("unexpected error: %v", mp.Error())
	}
}

func TestNewMetricsProvider_GlobalFallback(t *testing.T) {
	reader := metric.NewManualReader()
	previous := otel.GetMeterProvider()
	otel.SetMeterProvider(metric.NewMeterProvider(metric.WithReader(reader)))
	defer otel.SetMeterProvider(previous)

	mp := NewMetricsProvider(MetricsConfig{})
	if mp.Error() != nil {
		t.Fatalf("unexpected error: %v", mp.Error())
	}
	mp.RecordMalformed(context.Background(), "stdin")

	metrics := collect(t, reader)
	if _, ok := metrics["presence.feed.malformed"]; !ok {
		t.Error("presence.feed.malformed not recorded on the global provider")
	}
}

func TestMetricsProvider_RecordDerivation(t *testing.T) {
	reader, mp := setupTestMetrics(t)
	defer reader.Shutdown(context.Background())

	ctx := context.Background()
	loud := 1.7

	mp.RecordDerivation(ctx, presence.StateSpeaking, false, &loud)
	mp.RecordDerivation(ctx, presence.StateIdle, true, nil)

	metrics := collect(t, reader)

	m, ok := metrics["presence.profile.derivations"]
	if !ok {
		t.Fatal("presence.profile.derivations metric not found")
	}
	if total := sumInt64(t, m); total != 2 {
		t.Errorf("expected 2 derivations, got %d", total)
	}

	fallbacks := 0
	for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key("fallback")); ok && v.AsBool() {
			fallbacks += int(dp.Value)
		}
	}
	if fallbacks != 1 {
		t.Errorf("expected 1 fallback derivation, got %d", fallbacks)
	}

	hm, ok := metrics["presence.activity"]
	if !ok {
		t.Fatal("presence.activity metric not found")
	}
	hist, ok := hm.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", hm.Data)
	}
	if len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 1 {
		t.Fatalf("expected one activity sample, got %+v", hist.DataPoints)
	}
	if hist.DataPoints[0].Sum != 1 {
		t.Errorf("activity should be clamped to 1, got %v", hist.DataPoints[0].Sum)
	}
}

func TestMetricsProvider_RecordStateTransition(t *testing.T) {
	reader, mp := setupTestMetrics(t)
	defer reader.Shutdown(context.Background())

	ctx := context.Background()

	mp.RecordStateTransition(ctx, presence.StateIdle, presence.StateListening, true, 2*time.Second)
	mp.RecordStateTransition(ctx, presence.StateListening, presence.StateSpeaking, false, 0)

	metrics := collect(t, reader)

	m, ok := metrics["presence.state.transitions"]
	if !ok {
		t.Fatal("presence.state.transitions metric not found")
	}
	if total := sumInt64(t, m); total != 2 {
		t.Errorf("expected 2 transitions, got %d", total)
	}

	dm, ok := metrics["presence.state.dwell"]
	if !ok {
		t.Fatal("presence.state.dwell metric not found")
	}
	hist := dm.Data.(metricdata.Histogram[float64])
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	if count != 1 {
		t.Errorf("zero dwell should not be recorded, got %d samples", count)
	}
}

func TestMetricsProvider_Counters(t *testing.T) {
	reader, mp := setupTestMetrics(t)
	defer reader.Shutdown(context.Background())

	ctx := context.Background()

	mp.RecordMalformed(ctx, "stdin")
	mp.RecordMalformed(ctx, "stdin")
	mp.RecordReconnect(ctx, "ws://localhost/presence")
	mp.RecordTimelineAppend(ctx, "s-1")
	mp.RecordError(ctx, "timeline", map[string]string{"session": "s-1"})

	metrics := collect(t, reader)

	tests := []struct {
		name string
		want int64
	}{
		{"presence.feed.malformed", 2},
		{"presence.feed.reconnects", 1},
		{"presence.timeline.appends", 1},
		{"presence.errors", 1},
	}

	for _, tt := range tests {
		m, ok := metrics[tt.name]
		if !ok {
			t.Errorf("%s metric not found", tt.name)
			continue
		}
		if got := sumInt64(t, m); got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestMetricsProvider_FeedConnected(t *testing.T) {
	reader, mp := setupTestMetrics(t)
	defer reader.Shutdown(context.Background())

	ctx := context.Background()

	mp.FeedConnected(ctx, "redis")
	mp.FeedConnected(ctx, "redis")
	mp.FeedDisconnected(ctx, "redis")

	metrics := collect(t, reader)
	m, ok := metrics["presence.feed.connected"]
	if !ok {
		t.Fatal("presence.feed.connected metric not found")
	}
	if got := sumInt64(t, m); got != 1 {
		t.Errorf("connected feeds = %d, want 1", got)
	}
}

func TestNoopMetricsProvider(t *testing.T) {
	// Verify that NoopMetricsProvider doesn't panic
	noop := &NoopMetricsProvider{}
	ctx := context.Background()
	a := 0.5

	noop.RecordDerivation(ctx, presence.StateIdle, false, &a)
	noop.RecordStateTransition(ctx, presence.StateIdle, presence.StateListening, true, time.Second)
	noop.RecordMalformed(ctx, "stdin")
	noop.RecordReconnect(ctx, "stdin")
	noop.RecordTimelineAppend(ctx, "s-1")
	noop.RecordError(ctx, "type", nil)
	noop.FeedConnected(ctx, "stdin")
	noop.FeedDisconnected(ctx, "stdin")
}

func TestDefaultMetricsConfig(t *testing.T) {
	config := DefaultMetricsConfig()

	if config.MeterName == "" {
		t.Error("MeterName should not be empty")
	}
	if config.MeterVersion == "" {
		t.Error("MeterVersion should not be empty")
	}
}
