package inspector

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/agent-presence/domain/inspector"
)

// DOTFormatter formats the transition chart as Graphviz DOT.
type DOTFormatter struct{}

// NewDOTFormatter creates a new DOT formatter.
func NewDOTFormatter() *DOTFormatter {
	return &DOTFormatter{}
}

// Format formats the data as DOT.
func (f *DOTFormatter) Format(data any) ([]byte, error) {
	switch d := data.(type) {
	case *inspector.TableExport:
		return f.format("PresenceStates", d.States, d.Transitions), nil
	case *inspector.SessionExport:
		return f.format("PresenceSession", nil, d.Transitions), nil
	default:
		return nil, inspector.ErrInvalidFormat
	}
}

// FormatType returns the format type.
func (f *DOTFormatter) FormatType() inspector.ExportFormat {
	return inspector.FormatDOT
}

func (f *DOTFormatter) format(name string, states []inspector.StateExport, transitions []inspector.TransitionExport) []byte {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("digraph %s {\n", name))
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=\"rounded,filled\"];\n")
	b.WriteString("\n")

	// Nodes take the accent color of their state.
	for _, s := range states {
		attrs := []string{
			fmt.Sprintf(`label="%s\n%s"`, s.Name, s.StatusText),
			fmt.Sprintf(`fillcolor="%s"`, s.AccentHex),
			`fontcolor="white"`,
		}
		if s.IsInitial {
			attrs = append(attrs, "peripheries=2")
		}
		b.WriteString(fmt.Sprintf("  %s [%s];\n", sanitizeDOTID(string(s.Name)), strings.Join(attrs, ", ")))
	}

	if len(states) > 0 {
		b.WriteString("\n")
	}

	for _, trans := range transitions {
		attrs := []string{}
		if trans.Label != "" {
			attrs = append(attrs, fmt.Sprintf(`label="%s"`, trans.Label))
		}
		if trans.Count > 0 {
			attrs = append(attrs, fmt.Sprintf(`penwidth=%d`, min(trans.Count/10+1, 5)))
			attrs = append(attrs, fmt.Sprintf(`xlabel="%d"`, trans.Count))
		}
		if !trans.Canonical {
			attrs = append(attrs, "style=dashed", "color=red")
		}

		attrStr := ""
		if len(attrs) > 0 {
			attrStr = fmt.Sprintf(" [%s]", strings.Join(attrs, ", "))
		}

		b.WriteString(fmt.Sprintf("  %s -> %s%s;\n",
			sanitizeDOTID(string(trans.From)),
			sanitizeDOTID(string(trans.To)),
			attrStr,
		))
	}

	b.WriteString("}\n")

	return []byte(b.String())
}

func sanitizeDOTID(s string) string {
	// Replace any characters that are invalid in DOT identifiers
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, ".", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

// Ensure DOTFormatter implements inspector.Formatter
var _ inspector.Formatter = (*DOTFormatter)(nil)
