package inspector

import "context"

// Inspector exports presence data for visualization and analysis.
type Inspector interface {
	// ExportTable exports the presentation table and transition chart.
	ExportTable(ctx context.Context, format ExportFormat) ([]byte, error)

	// ExportSession exports the recorded timeline of a session.
	ExportSession(ctx context.Context, session string, format ExportFormat) ([]byte, error)
}

// TableExporter exports the presentation table.
type TableExporter interface {
	Export(ctx context.Context) (*TableExport, error)
}

// SessionExporter exports recorded sessions.
type SessionExporter interface {
	Export(ctx context.Context, session string) (*SessionExport, error)
}

// Formatter formats export data to a specific format.
type Formatter interface {
	// Format formats the data.
	Format(data any) ([]byte, error)

	// FormatType returns the format type.
	FormatType() ExportFormat
}
