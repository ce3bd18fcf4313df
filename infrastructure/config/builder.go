package config

import (
	"fmt"
	"time"

	domainconfig "github.com/felixgeelhaar/agent-presence/domain/config"
	"github.com/felixgeelhaar/agent-presence/domain/presence"
	"github.com/felixgeelhaar/agent-presence/infrastructure/logging"
	"github.com/felixgeelhaar/agent-presence/infrastructure/resilience"
)

// Builder builds runtime components from configuration.
type Builder struct {
	config *domainconfig.PresenceConfig
}

// NewBuilder creates a new configuration builder. A nil config builds the
// defaults.
func NewBuilder(config *domainconfig.PresenceConfig) *Builder {
	if config == nil {
		config = domainconfig.DefaultConfig()
	}
	return &Builder{config: config}
}

// BuildResult contains the built components from configuration.
type BuildResult struct {
	// Table is the presentation table with all tunings applied.
	Table presence.Table
	// Mapper derives profiles from Table.
	Mapper *presence.Mapper
	// InitialState is the state shown before the first delivery.
	InitialState presence.State
	// Logging is the logger configuration.
	Logging logging.Config
	// Source is the feed source string.
	Source string
	// Session is the fallback session name.
	Session string
	// Reconnect configures the resilient dialer of network feeds.
	Reconnect resilience.Config
	// Timeline configures recording of state changes.
	Timeline domainconfig.TimelineConfig
	// Render configures profile output.
	Render domainconfig.RenderConfig
	// Observability configures metrics and tracing.
	Observability domainconfig.ObservabilityConfig
}

// Build builds the components from configuration.
func (b *Builder) Build() (*BuildResult, error) {
	result := &BuildResult{
		Source:        b.config.Feed.Source,
		Session:       b.config.Feed.Session,
		Timeline:      b.config.Timeline,
		Render:        b.config.Render,
		Observability: b.config.Observability,
	}

	table, err := b.buildTable()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domainconfig.ErrBuildFailed, err)
	}
	result.Table = table
	result.Mapper = presence.NewMapper(table)

	initial, err := b.buildInitialState()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domainconfig.ErrBuildFailed, err)
	}
	result.InitialState = initial

	reconnect, err := b.buildReconnect()
	if err != nil {
		return nil, fmt.Errorf("%w: building reconnect: %w", domainconfig.ErrBuildFailed, err)
	}
	result.Reconnect = reconnect

	result.Logging = logging.DefaultConfig()
	if b.config.Logging.Level != "" {
		result.Logging.Level = b.config.Logging.Level
	}
	if b.config.Logging.Format != "" {
		result.Logging.Format = b.config.Logging.Format
	}
	if result.Source == "" {
		result.Source = "stdin"
	}
	if result.Render.Mode == "" {
		result.Render.Mode = "terminal"
	}

	return result, nil
}

func (b *Builder) buildTable() (presence.Table, error) {
	table := presence.DefaultTable()
	for name, tuning := range b.config.States {
		s, err := presence.ParseState(name)
		if err != nil {
			return presence.Table{}, err
		}
		table = table.With(s, tuning.Apply(table.Spec(s)))
	}
	if err := table.Validate(); err != nil {
		return presence.Table{}, err
	}
	return table, nil
}

func (b *Builder) buildInitialState() (presence.State, error) {
	if b.config.InitialState == "" {
		return presence.StateDisconnected, nil
	}
	s, err := presence.ParseState(b.config.InitialState)
	if err != nil {
		return "", err
	}
	if !s.IsInitial() {
		return "", fmt.Errorf("%w: %s", presence.ErrInvalidInitialState, s)
	}
	return s, nil
}

func (b *Builder) buildReconnect() (resilience.Config, error) {
	rc := b.config.Feed.Reconnect
	result := resilience.DefaultConfig()

	if rc.MaxAttempts > 0 {
		result.RetryMaxAttempts = rc.MaxAttempts
	}
	if rc.BreakerThreshold > 0 {
		result.CircuitBreakerThreshold = rc.BreakerThreshold
	}
	if rc.InitialDelay != "" {
		d, err := parseDuration(rc.InitialDelay)
		if err != nil {
			return resilience.Config{}, err
		}
		result.RetryInitialDelay = d
	}
	if rc.BreakerTimeout != "" {
		d, err := parseDuration(rc.BreakerTimeout)
		if err != nil {
			return resilience.Config{}, err
		}
		result.CircuitBreakerTimeout = d
	}
	return result, nil
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}
