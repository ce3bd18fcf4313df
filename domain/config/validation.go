package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the JSON path to the invalid field.
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates presence configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *PresenceConfig) ValidationErrors {
	v.errors = nil

	v.validateRequired(config)
	v.validateInitialState(config)
	v.validateStates(config)
	v.validateLogging(config)
	v.validateFeed(config)
	v.validateTimeline(config)
	v.validateRender(config)
	v.validateObservability(config)

	return v.errors
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *Validator) validateRequired(config *PresenceConfig) {
	if config.Name == "" {
		v.addError("name", "name is required")
	}
	if config.Version == "" {
		v.addError("version", "version is required")
	}
}

func (v *Validator) validateInitialState(config *PresenceConfig) {
	if config.InitialState == "" {
		return
	}
	s, err := presence.ParseState(config.InitialState)
	if err != nil {
		v.addError("initial_state", fmt.Sprintf("invalid state: %s", config.InitialState))
		return
	}
	if !s.IsInitial() {
		v.addError("initial_state", fmt.Sprintf("%s cannot be an initial state (use disconnected or idle)", s))
	}
}

func (v *Validator) validateStates(config *PresenceConfig) {
	table := presence.DefaultTable()
	valid := true

	for name, tuning := range config.States {
		path := fmt.Sprintf("states.%s", name)
		s, err := presence.ParseState(name)
		if err != nil {
			v.addError(path, fmt.Sprintf("unknown state: %s", name))
			valid = false
			continue
		}
		if tuning.BaseAmplitude != nil && (*tuning.BaseAmplitude < 0 || *tuning.BaseAmplitude > 1) {
			v.addError(path+".base_amplitude", "base_amplitude must be within [0,1]")
			valid = false
		}
		if tuning.PulsePeriodSeconds != nil && *tuning.PulsePeriodSeconds < 0 {
			v.addError(path+".pulse_period_seconds", "pulse_period_seconds must be non-negative")
			valid = false
		}
		if tuning.MinHeight != nil && *tuning.MinHeight <= 0 {
			v.addError(path+".min_height", "min_height must be positive")
			valid = false
		}
		if tuning.Opacity != nil && (*tuning.Opacity <= 0 || *tuning.Opacity > 1) {
			v.addError(path+".opacity", "opacity must be within (0,1]")
			valid = false
		}
		if tuning.AccentHex != "" && !isHexColor(tuning.AccentHex) {
			v.addError(path+".accent_hex", fmt.Sprintf("invalid hex color: %s", tuning.AccentHex))
			valid = false
		}
		table = table.With(s, tuning.Apply(table.Spec(s)))
	}

	if !valid {
		return
	}
	if err := table.Validate(); err != nil {
		v.addError("states", err.Error())
	}
}

func (v *Validator) validateLogging(config *PresenceConfig) {
	switch config.Logging.Level {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		v.addError("logging.level", fmt.Sprintf("invalid level: %s", config.Logging.Level))
	}
	switch config.Logging.Format {
	case "", "console", "json":
	default:
		v.addError("logging.format", fmt.Sprintf("invalid format: %s", config.Logging.Format))
	}
}

func (v *Validator) validateFeed(config *PresenceConfig) {
	if err := ValidateSource(config.Feed.Source); err != nil {
		v.addError("feed.source", err.Error())
	}

	rc := config.Feed.Reconnect
	if rc.MaxAttempts < 0 {
		v.addError("feed.reconnect.max_attempts", "max_attempts must be non-negative")
	}
	if rc.BreakerThreshold < 0 {
		v.addError("feed.reconnect.breaker_threshold", "breaker_threshold must be non-negative")
	}
	if rc.InitialDelay != "" {
		if _, err := time.ParseDuration(rc.InitialDelay); err != nil {
			v.addError("feed.reconnect.initial_delay", fmt.Sprintf("invalid duration: %s", rc.InitialDelay))
		}
	}
	if rc.BreakerTimeout != "" {
		if _, err := time.ParseDuration(rc.BreakerTimeout); err != nil {
			v.addError("feed.reconnect.breaker_timeout", fmt.Sprintf("invalid duration: %s", rc.BreakerTimeout))
		}
	}
}

func (v *Validator) validateRender(config *PresenceConfig) {
	switch config.Render.Mode {
	case "", "terminal", "json":
	default:
		v.addError("render.mode", fmt.Sprintf("invalid mode: %s", config.Render.Mode))
	}
	if config.Render.BarCount < 0 {
		v.addError("render.bar_count", "bar_count must be non-negative")
	}
}

func (v *Validator) validateTimeline(config *PresenceConfig) {
	if gc := config.Timeline.GCInterval; gc != "" {
		d, err := time.ParseDuration(gc)
		if err != nil {
			v.addError("timeline.gc_interval", fmt.Sprintf("invalid duration: %s", gc))
		} else if d < 0 {
			v.addError("timeline.gc_interval", "gc_interval must be non-negative")
		}
	}
	if strings.ContainsRune(config.Timeline.Prefix, 0) {
		v.addError("timeline.prefix", "prefix must not contain NUL")
	}
}

func (v *Validator) validateObservability(config *PresenceConfig) {
	switch config.Observability.Tracing {
	case "", "stdout":
	case "otlp":
		if config.Observability.Endpoint == "" {
			v.addError("observability.endpoint", "endpoint is required for otlp tracing")
		}
	default:
		v.addError("observability.tracing", fmt.Sprintf("invalid exporter: %s", config.Observability.Tracing))
	}
}

// ValidateSource checks the syntax of a feed source string.
func ValidateSource(source string) error {
	switch {
	case source == "", source == "stdin":
		return nil
	case strings.HasPrefix(source, "file:"):
		if strings.TrimPrefix(source, "file:") == "" {
			return fmt.Errorf("file source needs a path")
		}
		return nil
	}

	u, err := url.Parse(source)
	if err != nil {
		return fmt.Errorf("invalid source: %s", source)
	}
	switch u.Scheme {
	case "ws", "wss":
		if u.Host == "" {
			return fmt.Errorf("websocket source needs a host")
		}
	case "redis":
		if u.Host == "" || strings.Trim(u.Path, "/") == "" {
			return fmt.Errorf("redis source needs host and channel (redis://host:port/channel)")
		}
	default:
		return fmt.Errorf("unsupported source: %s", source)
	}
	return nil
}

func isHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}

// Apply returns spec with every set field of the tuning applied.
func (t StateTuning) Apply(spec presence.Spec) presence.Spec {
	if t.Accent != "" {
		spec.Accent = presence.Accent(t.Accent)
	}
	if t.AccentHex != "" {
		spec.AccentHex = t.AccentHex
	}
	if t.StatusText != "" {
		spec.StatusText = t.StatusText
	}
	if t.DescriptionText != "" {
		spec.DescriptionText = t.DescriptionText
	}
	if t.AccessibilityText != "" {
		spec.AccessibilityText = t.AccessibilityText
	}
	if t.BaseAmplitude != nil {
		spec.BaseAmplitude = *t.BaseAmplitude
	}
	if t.PulsePeriodSeconds != nil {
		spec.PulsePeriodSeconds = *t.PulsePeriodSeconds
	}
	if t.MinHeight != nil {
		spec.Bars.MinHeight = *t.MinHeight
	}
	if t.MaxHeight != nil {
		spec.Bars.MaxHeight = *t.MaxHeight
	}
	if t.Opacity != nil {
		spec.Opacity = *t.Opacity
	}
	return spec
}
