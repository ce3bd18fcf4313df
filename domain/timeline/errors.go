package timeline

import "errors"

// Domain errors for timeline operations.
var (
	// ErrInvalidEntry is returned when an entry is malformed.
	ErrInvalidEntry = errors.New("invalid timeline entry")

	// ErrMissingSession is returned when an entry has no session.
	ErrMissingSession = errors.New("timeline entry has no session")

	// ErrSessionNotFound is returned when a session has no entries.
	ErrSessionNotFound = errors.New("session not found")

	// ErrStoreClosed is returned when the store has been closed.
	ErrStoreClosed = errors.New("timeline store closed")
)
