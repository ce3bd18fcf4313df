package timeline

import "context"

// Store defines the interface for timeline persistence.
type Store interface {
	// Append persists entries atomically, assigning IDs and per-session
	// sequence numbers in order of appearance.
	Append(ctx context.Context, entries ...Entry) error

	// Load retrieves all entries of a session in sequence order.
	Load(ctx context.Context, session string) ([]Entry, error)

	// LoadFrom retrieves entries of a session starting at sequence fromSeq.
	LoadFrom(ctx context.Context, session string, fromSeq uint64) ([]Entry, error)

	// Sessions lists every session with recorded entries.
	Sessions(ctx context.Context) ([]string, error)

	// Close releases the store.
	Close() error
}

