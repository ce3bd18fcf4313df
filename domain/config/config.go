// Package config provides domain models for presence configuration.
package config

// PresenceConfig represents the complete configuration of a presence
// indicator: table tuning plus the collaborators around it.
type PresenceConfig struct {
	// Name is a human-readable name for this configuration.
	Name string `json:"name" yaml:"name"`
	// Version is the configuration schema version.
	Version string `json:"version" yaml:"version"`
	// Description describes the deployment.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// InitialState is the state shown before the first delivery
	// (disconnected or idle, default disconnected).
	InitialState string `json:"initial_state,omitempty" yaml:"initial_state,omitempty"`

	// States overrides columns of the presentation table, keyed by state name.
	States map[string]StateTuning `json:"states,omitempty" yaml:"states,omitempty"`

	// Logging configures structured logging.
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
	// Feed selects where state deliveries come from.
	Feed FeedConfig `json:"feed,omitempty" yaml:"feed,omitempty"`
	// Timeline configures recording of state changes.
	Timeline TimelineConfig `json:"timeline,omitempty" yaml:"timeline,omitempty"`
	// Render configures the output of derived profiles.
	Render RenderConfig `json:"render,omitempty" yaml:"render,omitempty"`
	// Observability configures metrics and tracing.
	Observability ObservabilityConfig `json:"observability,omitempty" yaml:"observability,omitempty"`
}

// StateTuning overrides one row of the presentation table. Unset fields keep
// the canonical value.
type StateTuning struct {
	Accent             string   `json:"accent,omitempty" yaml:"accent,omitempty"`
	AccentHex          string   `json:"accent_hex,omitempty" yaml:"accent_hex,omitempty"`
	StatusText         string   `json:"status_text,omitempty" yaml:"status_text,omitempty"`
	DescriptionText    string   `json:"description_text,omitempty" yaml:"description_text,omitempty"`
	AccessibilityText  string   `json:"accessibility_text,omitempty" yaml:"accessibility_text,omitempty"`
	BaseAmplitude      *float64 `json:"base_amplitude,omitempty" yaml:"base_amplitude,omitempty"`
	PulsePeriodSeconds *float64 `json:"pulse_period_seconds,omitempty" yaml:"pulse_period_seconds,omitempty"`
	MinHeight          *int     `json:"min_height,omitempty" yaml:"min_height,omitempty"`
	MaxHeight          *int     `json:"max_height,omitempty" yaml:"max_height,omitempty"`
	Opacity            *float64 `json:"opacity,omitempty" yaml:"opacity,omitempty"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum level (trace, debug, info, warn, error).
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is console or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// FeedConfig selects the state delivery source.
type FeedConfig struct {
	// Source is "stdin", "file:PATH", a ws:// or wss:// URL, or
	// redis://host:port/channel.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	// Session names the session when deliveries do not carry one.
	Session string `json:"session,omitempty" yaml:"session,omitempty"`
	// Reconnect configures retries for network sources.
	Reconnect ReconnectConfig `json:"reconnect,omitempty" yaml:"reconnect,omitempty"`
}

// ReconnectConfig configures retry and circuit breaking for network feeds.
type ReconnectConfig struct {
	// MaxAttempts per connection cycle.
	MaxAttempts int `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
	// InitialDelay between attempts, e.g. "200ms".
	InitialDelay string `json:"initial_delay,omitempty" yaml:"initial_delay,omitempty"`
	// BreakerThreshold is the number of failed cycles before the breaker opens.
	BreakerThreshold int `json:"breaker_threshold,omitempty" yaml:"breaker_threshold,omitempty"`
	// BreakerTimeout is how long the breaker stays open, e.g. "30s".
	BreakerTimeout string `json:"breaker_timeout,omitempty" yaml:"breaker_timeout,omitempty"`
}

// TimelineConfig configures recording of state changes.
type TimelineConfig struct {
	// Enabled turns recording on.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Dir is the badger directory. Empty keeps the timeline in memory.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
	// SyncWrites flushes every recorded change to disk before continuing.
	SyncWrites bool `json:"sync_writes,omitempty" yaml:"sync_writes,omitempty"`
	// GCInterval is how often the badger value log is compacted, e.g. "10m".
	// "0" disables compaction. Empty uses the store default.
	GCInterval string `json:"gc_interval,omitempty" yaml:"gc_interval,omitempty"`
	// Prefix namespaces the keys of this deployment.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// RenderConfig configures profile output.
type RenderConfig struct {
	// Mode is terminal or json.
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`
	// BarCount is the number of bars drawn by the terminal renderer.
	BarCount int `json:"bar_count,omitempty" yaml:"bar_count,omitempty"`
	// NoColor disables colors in terminal output.
	NoColor bool `json:"no_color,omitempty" yaml:"no_color,omitempty"`
}

// ObservabilityConfig configures metrics and tracing.
type ObservabilityConfig struct {
	// Metrics enables OpenTelemetry metrics.
	Metrics bool `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	// Tracing selects a trace exporter: "", "stdout" or "otlp".
	Tracing string `json:"tracing,omitempty" yaml:"tracing,omitempty"`
	// Endpoint is the OTLP collector endpoint.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// DefaultConfig returns a configuration that leaves the canonical table
// untouched.
func DefaultConfig() *PresenceConfig {
	return &PresenceConfig{
		Name:         "presence",
		Version:      "1.0",
		InitialState: "disconnected",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Feed: FeedConfig{
			Source: "stdin",
			Reconnect: ReconnectConfig{
				MaxAttempts:      5,
				InitialDelay:     "200ms",
				BreakerThreshold: 3,
				BreakerTimeout:   "30s",
			},
		},
		Render: RenderConfig{
			Mode:     "terminal",
			BarCount: 32,
		},
	}
}
