// Package timeline records the state changes of presence sessions.
package timeline

import (
	"time"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
)

// Entry is one recorded state change.
type Entry struct {
	// ID is the unique identifier for this entry.
	ID string `json:"id"`

	// Session is the session the change belongs to.
	Session string `json:"session"`

	// Sequence orders entries within a session. Assigned by the store.
	Sequence uint64 `json:"sequence"`

	// From is the state before the change.
	From presence.State `json:"from"`

	// To is the state after the change.
	To presence.State `json:"to"`

	// Canonical reports whether From -> To is a canonical transition.
	Canonical bool `json:"canonical"`

	// Activity is the activity level delivered with the change, if any.
	Activity *float64 `json:"activity,omitempty"`

	// At is when the change was observed.
	At time.Time `json:"at"`
}

// NewEntry creates an entry for a change observed at.
func NewEntry(session string, from, to presence.State, at time.Time) Entry {
	return Entry{
		Session:   session,
		From:      from,
		To:        to,
		Canonical: presence.IsCanonical(from, to),
		At:        at,
	}
}

// WithActivity returns a copy of the entry carrying activity level a.
func (e Entry) WithActivity(a float64) Entry {
	e.Activity = &a
	return e
}

// Validate reports whether the entry can be stored.
func (e Entry) Validate() error {
	if e.Session == "" {
		return ErrMissingSession
	}
	for _, r := range e.Session {
		if r == 0 {
			return ErrInvalidEntry
		}
	}
	if !e.To.IsValid() {
		return ErrInvalidEntry
	}
	return nil
}
