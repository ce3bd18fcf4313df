// Package inspector provides inspector infrastructure implementations.
package inspector

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/agent-presence/domain/inspector"
)

// DefaultInspector provides a default implementation of Inspector.
type DefaultInspector struct {
	tableExporter   inspector.TableExporter
	sessionExporter inspector.SessionExporter
	formatters      map[inspector.ExportFormat]inspector.Formatter
}

// NewDefaultInspector creates a new default inspector. sessionExporter may
// be nil when no timeline is recorded.
func NewDefaultInspector(
	tableExporter inspector.TableExporter,
	sessionExporter inspector.SessionExporter,
) *DefaultInspector {
	i := &DefaultInspector{
		tableExporter:   tableExporter,
		sessionExporter: sessionExporter,
		formatters:      make(map[inspector.ExportFormat]inspector.Formatter),
	}

	// Register default formatters
	i.RegisterFormatter(NewJSONFormatter(WithPrettyPrint()))
	i.RegisterFormatter(NewDOTFormatter())
	i.RegisterFormatter(NewMermaidFormatter())
	i.RegisterFormatter(NewCSVFormatter())
	i.RegisterFormatter(NewXStateFormatter())

	return i
}

// RegisterFormatter registers a formatter for a specific format.
func (i *DefaultInspector) RegisterFormatter(formatter inspector.Formatter) {
	i.formatters[formatter.FormatType()] = formatter
}

// ExportTable exports the presentation table and transition chart.
func (i *DefaultInspector) ExportTable(ctx context.Context, format inspector.ExportFormat) ([]byte, error) {
	if i.tableExporter == nil {
		return nil, inspector.ErrExportFailed
	}

	data, err := i.tableExporter.Export(ctx)
	if err != nil {
		return nil, err
	}

	return i.format(data, format)
}

// ExportSession exports the recorded timeline of a session.
func (i *DefaultInspector) ExportSession(ctx context.Context, session string, format inspector.ExportFormat) ([]byte, error) {
	if i.sessionExporter == nil {
		return nil, inspector.ErrExportFailed
	}

	data, err := i.sessionExporter.Export(ctx, session)
	if err != nil {
		return nil, err
	}

	return i.format(data, format)
}

func (i *DefaultInspector) format(data any, format inspector.ExportFormat) ([]byte, error) {
	formatter, ok := i.formatters[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", inspector.ErrInvalidFormat, format)
	}

	result, err := formatter.Format(data)
	if err != nil {
		return nil, fmt.Errorf("formatting failed: %w", err)
	}

	return result, nil
}

// Ensure DefaultInspector implements inspector.Inspector
var _ inspector.Inspector = (*DefaultInspector)(nil)
