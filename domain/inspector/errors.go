package inspector

import "errors"

var (
	// ErrSessionNotFound indicates the timeline holds no entries for a session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidFormat indicates an unsupported export format.
	ErrInvalidFormat = errors.New("invalid export format")

	// ErrExportFailed indicates the export failed.
	ErrExportFailed = errors.New("export failed")

	// ErrNoData indicates there is no data to export.
	ErrNoData = errors.New("no data to export")
)
