package presence

import (
	"errors"
	"fmt"
)

// Spec is one row of the presentation table.
type Spec struct {
	State              State    `json:"state"`
	Accent             Accent   `json:"accent"`
	AccentHex          string   `json:"accent_hex"`
	StatusText         string   `json:"status_text"`
	DescriptionText    string   `json:"description_text"`
	AccessibilityText  string   `json:"accessibility_text"`
	BaseAmplitude      float64  `json:"base_amplitude"`
	PulsePeriodSeconds float64  `json:"pulse_period_seconds"`
	Continuous         bool     `json:"continuous"`
	Bars               BarRange `json:"bars"`
	Opacity            float64  `json:"opacity"`
}

// Table holds one Spec per canonical state. It is a value type; copies
// never share state, so a Table handed out to callers is read-only from the
// package's point of view.
type Table struct {
	Idle         Spec `json:"idle"`
	Connecting   Spec `json:"connecting"`
	Listening    Spec `json:"listening"`
	Thinking     Spec `json:"thinking"`
	Speaking     Spec `json:"speaking"`
	Disconnected Spec `json:"disconnected"`
}

// defaultTable is built once and never mutated.
var defaultTable = DefaultTable()

// DefaultTable returns the canonical presentation constants.
func DefaultTable() Table {
	return Table{
		Idle: Spec{
			State:              StateIdle,
			Accent:             AccentNeutralGray,
			AccentHex:          "#6b7280",
			StatusText:         "Ready",
			DescriptionText:    "I'm ready to assist you",
			AccessibilityText:  "AI assistant is ready to help",
			BaseAmplitude:      0.05,
			PulsePeriodSeconds: 4.0,
			Continuous:         true,
			Bars:               BarRange{MinHeight: 24, MaxHeight: 40},
			Opacity:            1,
		},
		Connecting: Spec{
			State:              StateConnecting,
			Accent:             AccentAmber,
			AccentHex:          "#f59e0b",
			StatusText:         "Connecting...",
			DescriptionText:    "Establishing connection...",
			AccessibilityText:  "AI assistant is connecting",
			BaseAmplitude:      0.15,
			PulsePeriodSeconds: 1.5,
			Continuous:         true,
			Bars:               BarRange{MinHeight: 24, MaxHeight: 40},
			Opacity:            1,
		},
		Listening: Spec{
			State:              StateListening,
			Accent:             AccentBlue,
			AccentHex:          "#2563eb",
			StatusText:         "Listening...",
			DescriptionText:    "I'm listening to you...",
			AccessibilityText:  "AI assistant is listening to your voice",
			BaseAmplitude:      0.30,
			PulsePeriodSeconds: 1.5,
			Continuous:         true,
			Bars:               BarRange{MinHeight: 24, MaxHeight: 65},
			Opacity:            1,
		},
		Thinking: Spec{
			State:              StateThinking,
			Accent:             AccentPurple,
			AccentHex:          "#9333ea",
			StatusText:         "Processing...",
			DescriptionText:    "I'm processing your request...",
			AccessibilityText:  "AI assistant is processing your request",
			BaseAmplitude:      0.20,
			PulsePeriodSeconds: 2.2,
			Continuous:         true,
			Bars:               BarRange{MinHeight: 24, MaxHeight: 40},
			Opacity:            1,
		},
		Speaking: Spec{
			State:              StateSpeaking,
			Accent:             AccentGreen,
			AccentHex:          "#10b981",
			StatusText:         "Responding...",
			DescriptionText:    "I'm responding to your query...",
			AccessibilityText:  "AI assistant is responding to your query",
			BaseAmplitude:      0.25,
			PulsePeriodSeconds: 2.0,
			Continuous:         true,
			Bars:               BarRange{MinHeight: 24, MaxHeight: 80},
			Opacity:            1,
		},
		Disconnected: Spec{
			State:              StateDisconnected,
			Accent:             AccentMutedGray,
			AccentHex:          "#9ca3af",
			StatusText:         "Disconnected",
			DescriptionText:    "Click 'Start a conversation' to begin",
			AccessibilityText:  "AI assistant is disconnected",
			BaseAmplitude:      0,
			PulsePeriodSeconds: 0,
			Continuous:         false,
			Bars:               BarRange{MinHeight: 24, MaxHeight: 40},
			Opacity:            0.5,
		},
	}
}

// Spec returns the row for a state. Unrecognised states get the idle row.
func (t Table) Spec(s State) Spec {
	switch s {
	case StateIdle:
		return t.Idle
	case StateConnecting:
		return t.Connecting
	case StateListening:
		return t.Listening
	case StateThinking:
		return t.Thinking
	case StateSpeaking:
		return t.Speaking
	case StateDisconnected:
		return t.Disconnected
	default:
		return t.Idle
	}
}

// With returns a copy of the table with the row for s replaced.
// The row's State field is forced to s. Unrecognised states leave the
// table unchanged.
func (t Table) With(s State, spec Spec) Table {
	spec.State = s
	switch s {
	case StateIdle:
		t.Idle = spec
	case StateConnecting:
		t.Connecting = spec
	case StateListening:
		t.Listening = spec
	case StateThinking:
		t.Thinking = spec
	case StateSpeaking:
		t.Speaking = spec
	case StateDisconnected:
		t.Disconnected = spec
	}
	return t
}

// Specs returns all rows in table order.
func (t Table) Specs() []Spec {
	states := AllStates()
	specs := make([]Spec, 0, len(states))
	for _, s := range states {
		specs = append(specs, t.Spec(s))
	}
	return specs
}

// Validate checks the invariants every profile relies on. It returns nil or
// an error wrapping ErrInvalidTable and listing each violation.
func (t Table) Validate() error {
	var errs []error

	for _, spec := range t.Specs() {
		name := spec.State
		if spec.Accent == "" {
			errs = append(errs, fmt.Errorf("%s: accent is required", name))
		}
		if spec.AccentHex == "" {
			errs = append(errs, fmt.Errorf("%s: accent_hex is required", name))
		}
		if spec.StatusText == "" || spec.DescriptionText == "" || spec.AccessibilityText == "" {
			errs = append(errs, fmt.Errorf("%s: status, description and accessibility text are required", name))
		}
		if spec.BaseAmplitude < 0 || spec.BaseAmplitude > 1 {
			errs = append(errs, fmt.Errorf("%s: base_amplitude %.2f outside [0,1]", name, spec.BaseAmplitude))
		}
		if spec.Continuous && spec.PulsePeriodSeconds <= 0 {
			errs = append(errs, fmt.Errorf("%s: continuous state needs a positive pulse period", name))
		}
		if !spec.Bars.Valid() {
			errs = append(errs, fmt.Errorf("%s: bars need 0 < min_height < max_height, got %d/%d",
				name, spec.Bars.MinHeight, spec.Bars.MaxHeight))
		}
		if spec.Opacity <= 0 || spec.Opacity > 1 {
			errs = append(errs, fmt.Errorf("%s: opacity %.2f outside (0,1]", name, spec.Opacity))
		}
	}

	d := t.Disconnected
	if d.Continuous || d.BaseAmplitude != 0 || d.PulsePeriodSeconds != 0 {
		errs = append(errs, fmt.Errorf("%s: must have no motion (amplitude 0, no pulse)", StateDisconnected))
	}

	speak, listen := t.Speaking.Bars.MaxHeight, t.Listening.Bars.MaxHeight
	if speak <= listen {
		errs = append(errs, fmt.Errorf("bars: speaking max_height %d must exceed listening %d", speak, listen))
	}
	for _, s := range []State{StateIdle, StateConnecting, StateThinking, StateDisconnected} {
		if m := t.Spec(s).Bars.MaxHeight; listen <= m {
			errs = append(errs, fmt.Errorf("bars: listening max_height %d must exceed %s %d", listen, s, m))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidTable, errors.Join(errs...))
}
