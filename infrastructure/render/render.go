// Package render draws presence profiles for terminals and web front-ends.
package render

import (
	"fmt"
	"io"
	"time"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
)

// Frame is one profile to draw along with where it came from.
type Frame struct {
	Session  string           `json:"session,omitempty"`
	At       time.Time        `json:"t"`
	Activity *float64         `json:"activity,omitempty"`
	Profile  presence.Profile `json:"profile"`
}

// Renderer draws frames.
type Renderer interface {
	Render(f Frame) error
}

// Mode names a renderer.
type Mode string

const (
	// ModeTerminal draws a colored status block.
	ModeTerminal Mode = "terminal"
	// ModeJSON writes one JSON frame per line.
	ModeJSON Mode = "json"
)

// Options configure New.
type Options struct {
	// BarCount is the number of bars of the terminal strip.
	BarCount int
	// NoColor disables colors.
	NoColor bool
	// Clear clears the screen before each terminal frame.
	Clear bool
}

// New returns the renderer for mode writing to w.
func New(mode Mode, w io.Writer, opts Options) (Renderer, error) {
	switch mode {
	case "", ModeTerminal:
		return NewTerminal(w, opts), nil
	case ModeJSON:
		return NewJSON(w), nil
	default:
		return nil, fmt.Errorf("unknown render mode: %s", mode)
	}
}
