// Package presence provides the core domain model for the agent presence
// indicator: the conversational states reported by a voice session and the
// deterministic presentation derived from them.
package presence

import (
	"fmt"
	"strings"
)

// State is the conversational mode reported by the session driver.
// States are identified by the wire names the driver uses.
type State string

// Canonical presence states.
const (
	StateIdle         State = "idle"         // Session up, nothing happening
	StateConnecting   State = "connecting"   // Session being established
	StateListening    State = "listening"    // Capturing the user's voice
	StateThinking     State = "thinking"     // Processing a request
	StateSpeaking     State = "speaking"     // Playing back a response
	StateDisconnected State = "disconnected" // No session
)

// IsValid returns true if the state is one of the canonical states.
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StateConnecting, StateListening, StateThinking, StateSpeaking, StateDisconnected:
		return true
	default:
		return false
	}
}

// Normalize returns the state itself when it is canonical and StateIdle
// otherwise. This is the fallback rule applied to every unrecognised input.
func (s State) Normalize() State {
	if s.IsValid() {
		return s
	}
	return StateIdle
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// ParseState parses a state name. Matching ignores case and surrounding
// whitespace.
func ParseState(name string) (State, error) {
	s := State(strings.ToLower(strings.TrimSpace(name)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownState, name)
	}
	return s, nil
}

// AllStates returns all canonical states in table order.
func AllStates() []State {
	return []State{
		StateIdle,
		StateConnecting,
		StateListening,
		StateThinking,
		StateSpeaking,
		StateDisconnected,
	}
}

// InitialStates returns the states a driver may start from: disconnected
// before any session exists, idle once a session is established.
func InitialStates() []State {
	return []State{StateDisconnected, StateIdle}
}

// IsInitial returns true if the state may be used as an initial value.
func (s State) IsInitial() bool {
	return s == StateDisconnected || s == StateIdle
}
