package logging

import (
	"strconv"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// State adds a state field.
func State(s presence.State) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("state", string(s))
	}
}

// FromState adds a from_state field for transitions.
func FromState(s presence.State) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("from_state", string(s))
	}
}

// ToState adds a to_state field for transitions.
func ToState(s presence.State) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("to_state", string(s))
	}
}

// Session adds a session field.
func Session(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("session", id)
	}
}

// Activity adds an activity field, two decimals.
func Activity(a float64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("activity", strconv.FormatFloat(a, 'f', 2, 64))
	}
}

// Accent adds an accent color field.
func Accent(a presence.Accent) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("accent", string(a))
	}
}

// Canonical adds a canonical field for transitions.
func Canonical(ok bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool("canonical", ok)
	}
}

// Sequence adds a sequence number field.
func Sequence(seq uint64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("seq", int64(seq)) // #nosec G115 -- sequence numbers stay far below 2^63
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Count adds an integer field with custom key.
func Count(key string, n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int(key, n)
	}
}

// Path adds a file path field.
func Path(p string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("path", p)
	}
}

// Source adds a feed source field.
func Source(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("source", name)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}
