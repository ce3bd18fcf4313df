package inspector

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/agent-presence/domain/inspector"
)

// MermaidFormatter formats the transition chart as a Mermaid state diagram.
type MermaidFormatter struct{}

// NewMermaidFormatter creates a new Mermaid formatter.
func NewMermaidFormatter() *MermaidFormatter {
	return &MermaidFormatter{}
}

// Format formats the data as Mermaid.
func (f *MermaidFormatter) Format(data any) ([]byte, error) {
	switch d := data.(type) {
	case *inspector.TableExport:
		return f.formatTable(d), nil
	case *inspector.SessionExport:
		return f.formatSession(d), nil
	default:
		return nil, inspector.ErrInvalidFormat
	}
}

// FormatType returns the format type.
func (f *MermaidFormatter) FormatType() inspector.ExportFormat {
	return inspector.FormatMermaid
}

func (f *MermaidFormatter) formatTable(t *inspector.TableExport) []byte {
	var b strings.Builder

	b.WriteString("stateDiagram-v2\n")

	for _, initial := range t.Initial {
		b.WriteString(fmt.Sprintf("  [*] --> %s\n", initial))
	}

	for _, trans := range t.Transitions {
		writeMermaidEdge(&b, trans, "")
	}

	b.WriteString("\n")
	for _, s := range t.States {
		b.WriteString(fmt.Sprintf("  note right of %s: %s %s, bars %d-%d\n",
			s.Name, s.Accent, s.AccentHex, s.MinHeight, s.MaxHeight))
	}

	return []byte(b.String())
}

func (f *MermaidFormatter) formatSession(s *inspector.SessionExport) []byte {
	var b strings.Builder

	b.WriteString("stateDiagram-v2\n")
	if len(s.Entries) > 0 {
		b.WriteString(fmt.Sprintf("  [*] --> %s\n", s.Entries[0].From))
	}
	for _, trans := range s.Transitions {
		suffix := fmt.Sprintf("x%d", trans.Count)
		if !trans.Canonical {
			suffix += " (out of order)"
		}
		writeMermaidEdge(&b, trans, suffix)
	}

	return []byte(b.String())
}

func writeMermaidEdge(b *strings.Builder, t inspector.TransitionExport, suffix string) {
	label := strings.TrimSpace(strings.Join([]string{t.Label, suffix}, " "))
	if label != "" {
		b.WriteString(fmt.Sprintf("  %s --> %s: %s\n", t.From, t.To, label))
	} else {
		b.WriteString(fmt.Sprintf("  %s --> %s\n", t.From, t.To))
	}
}

// Ensure MermaidFormatter implements inspector.Formatter
var _ inspector.Formatter = (*MermaidFormatter)(nil)
