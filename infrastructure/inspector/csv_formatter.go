package inspector

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/felixgeelhaar/agent-presence/domain/inspector"
	"github.com/felixgeelhaar/agent-presence/domain/presence"
)

// CSVFormatter formats data as CSV.
type CSVFormatter struct {
	includeHeaders bool
	delimiter      rune
}

// CSVFormatterOption configures the CSV formatter.
type CSVFormatterOption func(*CSVFormatter)

// WithoutCSVHeaders omits header rows.
func WithoutCSVHeaders() CSVFormatterOption {
	return func(f *CSVFormatter) {
		f.includeHeaders = false
	}
}

// WithDelimiter sets a custom delimiter (default is comma).
func WithDelimiter(d rune) CSVFormatterOption {
	return func(f *CSVFormatter) {
		f.delimiter = d
	}
}

// NewCSVFormatter creates a new CSV formatter.
func NewCSVFormatter(opts ...CSVFormatterOption) *CSVFormatter {
	f := &CSVFormatter{
		includeHeaders: true,
		delimiter:      ',',
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format formats the data as CSV.
func (f *CSVFormatter) Format(data any) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = f.delimiter

	switch d := data.(type) {
	case *inspector.TableExport:
		if err := f.formatTableExport(w, d); err != nil {
			return nil, err
		}
	case *inspector.SessionExport:
		if err := f.formatSessionExport(w, d); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported data type for CSV: %T", data)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv write error: %w", err)
	}

	return buf.Bytes(), nil
}

func (f *CSVFormatter) formatTableExport(w *csv.Writer, data *inspector.TableExport) error {
	if err := w.Write([]string{"# STATES"}); err != nil {
		return err
	}
	if f.includeHeaders {
		header := []string{
			"name", "accent", "accent_hex", "status_text", "description_text", "accessibility_text",
			"base_amplitude", "pulse_period_seconds", "continuous", "min_height", "max_height",
			"visualizer_height", "opacity", "is_initial",
		}
		if err := w.Write(header); err != nil {
			return err
		}
	}
	for _, s := range data.States {
		record := []string{
			string(s.Name),
			string(s.Accent),
			s.AccentHex,
			s.StatusText,
			s.DescriptionText,
			s.AccessibilityText,
			formatFloat(s.BaseAmplitude),
			formatFloat(s.PulsePeriodSeconds),
			strconv.FormatBool(s.Continuous),
			strconv.Itoa(s.MinHeight),
			strconv.Itoa(s.MaxHeight),
			strconv.Itoa(s.VisualizerHeight),
			formatFloat(s.Opacity),
			strconv.FormatBool(s.IsInitial),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	if err := w.Write([]string{""}); err != nil {
		return err
	}

	return f.writeTransitions(w, data.Transitions)
}

func (f *CSVFormatter) formatSessionExport(w *csv.Writer, data *inspector.SessionExport) error {
	// Write session metadata as comments
	if err := w.Write([]string{"# Session: " + data.Session}); err != nil {
		return err
	}
	if err := w.Write([]string{fmt.Sprintf("# Changes: %d (%d out of order)", data.Metrics.ChangeCount, data.Metrics.SpuriousCount)}); err != nil {
		return err
	}
	if err := w.Write([]string{""}); err != nil {
		return err
	}

	// Timeline section
	if err := w.Write([]string{"# TIMELINE"}); err != nil {
		return err
	}
	if f.includeHeaders {
		if err := w.Write([]string{"seq", "timestamp", "from", "to", "canonical", "activity"}); err != nil {
			return err
		}
	}
	for _, e := range data.Entries {
		activity := ""
		if e.Activity != nil {
			activity = formatFloat(*e.Activity)
		}
		record := []string{
			strconv.FormatUint(e.Sequence, 10),
			e.At.Format(time.RFC3339Nano),
			string(e.From),
			string(e.To),
			strconv.FormatBool(e.Canonical),
			activity,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	if err := w.Write([]string{""}); err != nil {
		return err
	}

	// Dwell section
	if err := w.Write([]string{"# TIME IN STATE"}); err != nil {
		return err
	}
	if f.includeHeaders {
		if err := w.Write([]string{"state", "total_time_ms"}); err != nil {
			return err
		}
	}
	for _, s := range presence.AllStates() {
		d, ok := data.Metrics.TimeInState[s]
		if !ok {
			continue
		}
		if err := w.Write([]string{string(s), strconv.FormatInt(d.Milliseconds(), 10)}); err != nil {
			return err
		}
	}

	if err := w.Write([]string{""}); err != nil {
		return err
	}

	return f.writeTransitions(w, data.Transitions)
}

func (f *CSVFormatter) writeTransitions(w *csv.Writer, transitions []inspector.TransitionExport) error {
	if err := w.Write([]string{"# TRANSITIONS"}); err != nil {
		return err
	}
	if f.includeHeaders {
		if err := w.Write([]string{"from", "to", "label", "canonical", "count"}); err != nil {
			return err
		}
	}
	for _, t := range transitions {
		record := []string{
			string(t.From),
			string(t.To),
			t.Label,
			strconv.FormatBool(t.Canonical),
			strconv.Itoa(t.Count),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatType returns the format type.
func (f *CSVFormatter) FormatType() inspector.ExportFormat {
	return inspector.FormatCSV
}

// Ensure CSVFormatter implements inspector.Formatter
var _ inspector.Formatter = (*CSVFormatter)(nil)
