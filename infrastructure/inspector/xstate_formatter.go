package inspector

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/agent-presence/domain/inspector"
)

// XStateFormatter formats the presentation table as an XState machine, with
// every profile column in the state meta so a web front-end can drive its
// visualizer from the same definition.
// The output can be visualized at https://stately.ai/viz
type XStateFormatter struct {
	machineID string
	version   string
	pretty    bool
}

// XStateFormatterOption configures the XState formatter.
type XStateFormatterOption func(*XStateFormatter)

// WithMachineID sets the machine ID.
func WithMachineID(id string) XStateFormatterOption {
	return func(f *XStateFormatter) {
		f.machineID = id
	}
}

// WithCompactXState disables pretty printing.
func WithCompactXState() XStateFormatterOption {
	return func(f *XStateFormatter) {
		f.pretty = false
	}
}

// NewXStateFormatter creates a new XState formatter.
func NewXStateFormatter(opts ...XStateFormatterOption) *XStateFormatter {
	f := &XStateFormatter{
		machineID: "presence",
		version:   "5.0",
		pretty:    true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// XStateMachine represents an XState machine definition.
type XStateMachine struct {
	ID      string                 `json:"id"`
	Version string                 `json:"version,omitempty"`
	Initial string                 `json:"initial"`
	States  map[string]XStateState `json:"states"`
}

// XStateState represents a state in XState format.
type XStateState struct {
	Description string                      `json:"description,omitempty"`
	On          map[string]XStateTransition `json:"on,omitempty"`
	Meta        map[string]any              `json:"meta,omitempty"`
}

// XStateTransition represents a transition in XState format.
type XStateTransition struct {
	Target      string `json:"target"`
	Description string `json:"description,omitempty"`
}

// Format formats the data as XState JSON.
func (f *XStateFormatter) Format(data any) ([]byte, error) {
	table, ok := data.(*inspector.TableExport)
	if !ok {
		return nil, fmt.Errorf("%w: XState formatter requires TableExport, got %T", inspector.ErrInvalidFormat, data)
	}

	machine := f.buildMachine(table)

	if f.pretty {
		return json.MarshalIndent(machine, "", "  ")
	}
	return json.Marshal(machine)
}

func (f *XStateFormatter) buildMachine(data *inspector.TableExport) XStateMachine {
	machine := XStateMachine{
		ID:      f.machineID,
		Version: f.version,
		States:  make(map[string]XStateState),
	}
	if len(data.Initial) > 0 {
		machine.Initial = string(data.Initial[0])
	}

	// Group transitions by source state
	on := make(map[string]map[string]XStateTransition)
	for _, t := range data.Transitions {
		from := string(t.From)
		if on[from] == nil {
			on[from] = make(map[string]XStateTransition)
		}
		on[from][eventName(string(t.To))] = XStateTransition{
			Target:      string(t.To),
			Description: t.Label,
		}
	}

	for _, s := range data.States {
		name := string(s.Name)
		machine.States[name] = XStateState{
			Description: s.DescriptionText,
			On:          on[name],
			Meta: map[string]any{
				"accent":             s.Accent,
				"accentHex":          s.AccentHex,
				"statusText":         s.StatusText,
				"accessibilityText":  s.AccessibilityText,
				"baseAmplitude":      s.BaseAmplitude,
				"pulsePeriodSeconds": s.PulsePeriodSeconds,
				"continuous":         s.Continuous,
				"minHeight":          s.MinHeight,
				"maxHeight":          s.MaxHeight,
				"visualizerHeight":   s.VisualizerHeight,
				"opacity":            s.Opacity,
			},
		}
	}

	return machine
}

// eventName names the event that moves into a state, e.g. TO_LISTENING.
func eventName(to string) string {
	return "TO_" + strings.ToUpper(to)
}

// FormatType returns the format type.
func (f *XStateFormatter) FormatType() inspector.ExportFormat {
	return inspector.FormatXState
}

// Ensure XStateFormatter implements inspector.Formatter
var _ inspector.Formatter = (*XStateFormatter)(nil)
