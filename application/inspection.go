// Package application wires presence deliveries, recorded timelines and
// exports into services the CLI drives.
package application

import (
	"context"

	"github.com/felixgeelhaar/agent-presence/domain/inspector"
)

// InspectionService provides inspection and export capabilities.
type InspectionService struct {
	inspector inspector.Inspector
}

// NewInspectionService creates a new inspection service.
func NewInspectionService(insp inspector.Inspector) *InspectionService {
	return &InspectionService{
		inspector: insp,
	}
}

// ExportTable exports the presentation table in the specified format.
func (s *InspectionService) ExportTable(ctx context.Context, format inspector.ExportFormat) ([]byte, error) {
	if s.inspector == nil {
		return nil, inspector.ErrExportFailed
	}
	return s.inspector.ExportTable(ctx, format)
}

// ExportSession exports a recorded session in the specified format.
func (s *InspectionService) ExportSession(ctx context.Context, session string, format inspector.ExportFormat) ([]byte, error) {
	if s.inspector == nil {
		return nil, inspector.ErrExportFailed
	}
	return s.inspector.ExportSession(ctx, session, format)
}

// GetTableAsJSON exports the table as JSON (convenience method).
func (s *InspectionService) GetTableAsJSON(ctx context.Context) ([]byte, error) {
	return s.ExportTable(ctx, inspector.FormatJSON)
}

// GetTableAsMermaid exports the transition chart as a Mermaid diagram
// (convenience method).
func (s *InspectionService) GetTableAsMermaid(ctx context.Context) ([]byte, error) {
	return s.ExportTable(ctx, inspector.FormatMermaid)
}

// GetSessionAsCSV exports a session timeline as CSV (convenience method).
func (s *InspectionService) GetSessionAsCSV(ctx context.Context, session string) ([]byte, error) {
	return s.ExportSession(ctx, session, inspector.FormatCSV)
}
