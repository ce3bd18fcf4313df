// Package inspector provides types for inspecting and exporting presence data.
package inspector

import (
	"time"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
	"github.com/felixgeelhaar/agent-presence/domain/timeline"
)

// ExportFormat identifies the export format.
type ExportFormat string

const (
	// FormatJSON exports as JSON.
	FormatJSON ExportFormat = "json"

	// FormatDOT exports as Graphviz DOT.
	FormatDOT ExportFormat = "dot"

	// FormatMermaid exports as Mermaid diagram.
	FormatMermaid ExportFormat = "mermaid"

	// FormatCSV exports as CSV.
	FormatCSV ExportFormat = "csv"

	// FormatXState exports as an XState machine definition.
	FormatXState ExportFormat = "xstate"
)

// Formats lists every export format.
func Formats() []ExportFormat {
	return []ExportFormat{FormatJSON, FormatMermaid, FormatDOT, FormatCSV, FormatXState}
}

// ParseFormat returns the format with the given name.
func ParseFormat(name string) (ExportFormat, error) {
	for _, f := range Formats() {
		if string(f) == name {
			return f, nil
		}
	}
	return "", ErrInvalidFormat
}

// TableExport is the presentation table together with its transition chart.
type TableExport struct {
	// States contains one row per state in presentation order.
	States []StateExport `json:"states"`

	// Transitions contains the documented edges.
	Transitions []TransitionExport `json:"transitions"`

	// Initial lists the states a session may start in.
	Initial []presence.State `json:"initial"`

	// Fallback is the state used for unrecognised input.
	Fallback presence.State `json:"fallback"`
}

// StateExport is one row of the presentation table.
type StateExport struct {
	Name               presence.State  `json:"name"`
	Accent             presence.Accent `json:"accent"`
	AccentHex          string          `json:"accent_hex"`
	StatusText         string          `json:"status_text"`
	DescriptionText    string          `json:"description_text"`
	AccessibilityText  string          `json:"accessibility_text"`
	BaseAmplitude      float64         `json:"base_amplitude"`
	PulsePeriodSeconds float64         `json:"pulse_period_seconds"`
	Continuous         bool            `json:"continuous"`
	MinHeight          int             `json:"min_height"`
	MaxHeight          int             `json:"max_height"`
	VisualizerHeight   int             `json:"visualizer_height"`
	Opacity            float64         `json:"opacity"`

	// IsInitial indicates the state may start a session.
	IsInitial bool `json:"is_initial"`
}

// TransitionExport is a chart edge, optionally with how often it was taken.
type TransitionExport struct {
	From  presence.State `json:"from"`
	To    presence.State `json:"to"`
	Label string         `json:"label,omitempty"`

	// Canonical is false for edges only seen in recorded sessions.
	Canonical bool `json:"canonical"`

	// Count is the number of recorded traversals.
	Count int `json:"count,omitempty"`
}

// SessionExport contains the recorded timeline of one session.
type SessionExport struct {
	// Session identifies the session.
	Session string `json:"session"`

	// Entries contains the recorded changes in order.
	Entries []timeline.Entry `json:"entries"`

	// Transitions aggregates the entries per edge.
	Transitions []TransitionExport `json:"transitions"`

	// Metrics contains computed metrics for the session.
	Metrics SessionMetrics `json:"metrics"`
}

// SessionMetrics contains computed metrics for a session.
type SessionMetrics struct {
	// TotalDuration is the time between the first and last entry.
	TotalDuration time.Duration `json:"total_duration"`

	// ChangeCount is the number of recorded changes.
	ChangeCount int `json:"change_count"`

	// SpuriousCount is the number of out-of-order changes.
	SpuriousCount int `json:"spurious_count"`

	// TimeInState maps states to time spent in each.
	TimeInState map[presence.State]time.Duration `json:"time_in_state"`
}
