package presence

import (
	"errors"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateIdle, true},
		{StateConnecting, true},
		{StateListening, true},
		{StateThinking, true},
		{StateSpeaking, true},
		{StateDisconnected, true},
		{State("pre-connect-buffering"), false},
		{State(""), false},
		{State("LISTENING"), false}, // Case sensitive
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State(%q).IsValid() = %v, want %v", tt.state, got, tt.expected)
			}
		})
	}
}

func TestState_Normalize(t *testing.T) {
	for _, s := range AllStates() {
		if got := s.Normalize(); got != s {
			t.Errorf("State(%q).Normalize() = %q, want itself", s, got)
		}
	}

	for _, s := range []State{"", "initializing", "Speaking"} {
		if got := s.Normalize(); got != StateIdle {
			t.Errorf("State(%q).Normalize() = %q, want idle", s, got)
		}
	}
}

func TestParseState(t *testing.T) {
	tests := []struct {
		input   string
		want    State
		wantErr bool
	}{
		{"listening", StateListening, false},
		{"  Speaking ", StateSpeaking, false},
		{"DISCONNECTED", StateDisconnected, false},
		{"asleep", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseState(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownState) {
					t.Fatalf("ParseState(%q) error = %v, want ErrUnknownState", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseState(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseState(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestAllStates(t *testing.T) {
	states := AllStates()
	if len(states) != 6 {
		t.Fatalf("AllStates() returned %d states, want 6", len(states))
	}
	if states[0] != StateIdle || states[5] != StateDisconnected {
		t.Errorf("AllStates() order = %v, want idle first and disconnected last", states)
	}

	seen := make(map[State]bool)
	for _, s := range states {
		if seen[s] {
			t.Errorf("AllStates() contains %q twice", s)
		}
		seen[s] = true
	}
}

func TestInitialStates(t *testing.T) {
	for _, s := range InitialStates() {
		if !s.IsInitial() {
			t.Errorf("InitialStates() contains %q which is not initial", s)
		}
	}
	if StateSpeaking.IsInitial() {
		t.Error("speaking should not be an initial state")
	}
}
