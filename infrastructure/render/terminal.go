package render

import (
	"io"
	"math"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
)

// levels are the glyphs of the bar strip, lowest first.
var levels = []rune("▁▂▃▄▅▆▇█")

// Styles holds the styles of one frame.
type Styles struct {
	Pill        lipgloss.Style
	Bars        lipgloss.Style
	Description lipgloss.Style
	Help        lipgloss.Style
}

// NewStyles creates styles for a profile's accent and opacity.
func NewStyles(r *lipgloss.Renderer, p presence.Profile, noColor bool) Styles {
	s := Styles{
		Pill:        r.NewStyle().Bold(true).Padding(0, 1),
		Bars:        r.NewStyle(),
		Description: r.NewStyle(),
		Help:        r.NewStyle().Italic(true),
	}
	if !noColor {
		accent := lipgloss.Color(p.AccentHex)
		s.Pill = s.Pill.Foreground(lipgloss.Color("#ffffff")).Background(accent)
		s.Bars = s.Bars.Foreground(accent)
		s.Help = s.Help.Foreground(lipgloss.Color("#6e7681"))
	}
	if p.Opacity < 1 {
		s.Bars = s.Bars.Faint(true)
		s.Description = s.Description.Faint(true)
	}
	return s
}

// Terminal draws a status pill, a bar strip, the description and the
// accessibility text.
type Terminal struct {
	mu       sync.Mutex
	w        io.Writer
	renderer *lipgloss.Renderer
	opts     Options
}

// NewTerminal creates a terminal renderer writing to w.
func NewTerminal(w io.Writer, opts Options) *Terminal {
	if opts.BarCount <= 0 {
		opts.BarCount = 32
	}
	return &Terminal{
		w:        w,
		renderer: lipgloss.NewRenderer(w),
		opts:     opts,
	}
}

// Render draws f.
func (t *Terminal) Render(f Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	if t.opts.Clear {
		b.WriteString("\x1b[H\x1b[2J")
	}
	b.WriteString(t.Frame(f.Profile))
	b.WriteString("\n")
	_, err := io.WriteString(t.w, b.String())
	return err
}

// Frame returns the drawing of p without a trailing newline.
func (t *Terminal) Frame(p presence.Profile) string {
	s := NewStyles(t.renderer, p, t.opts.NoColor)
	lines := []string{
		s.Pill.Render(p.StatusText),
		s.Bars.Render(Strip(p, t.opts.BarCount)),
		s.Description.Render(p.DescriptionText),
		s.Help.Render(p.AccessibilityText),
	}
	return strings.Join(lines, "\n")
}

// Strip draws n bars for p. The strip's overall height follows
// VisualizerHeight relative to the profile's maximum. The wave across it is
// three times the amplitude deep, capped at the full height. Motionless
// profiles draw a flat strip.
func Strip(p presence.Profile, n int) string {
	if n <= 0 {
		return ""
	}
	level := 0.0
	if p.Bars.MaxHeight > 0 {
		level = float64(p.VisualizerHeight) / float64(p.Bars.MaxHeight)
	}
	amp := math.Max(0, math.Min(1, 3*p.Animation.BaseAmplitude))

	var b strings.Builder
	for i := 0; i < n; i++ {
		wave := (math.Sin(2*math.Pi*3*float64(i)/float64(n)) + 1) / 2
		h := level * (1 - amp + amp*wave)
		idx := int(math.Round(h * float64(len(levels)-1)))
		idx = max(0, min(idx, len(levels)-1))
		b.WriteRune(levels[idx])
	}
	return b.String()
}
