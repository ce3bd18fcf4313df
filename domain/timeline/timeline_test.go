package timeline

import (
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
)

func TestNewEntry(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	e := NewEntry("s-1", presence.StateListening, presence.StateThinking, at)
	if !e.Canonical {
		t.Error("listening -> thinking should be canonical")
	}
	if e.Activity != nil {
		t.Error("Activity should be nil")
	}

	e = NewEntry("s-1", presence.StateDisconnected, presence.StateSpeaking, at).WithActivity(0.5)
	if e.Canonical {
		t.Error("disconnected -> speaking should not be canonical")
	}
	if e.Activity == nil || *e.Activity != 0.5 {
		t.Errorf("Activity = %v, want 0.5", e.Activity)
	}
}

func TestEntry_Validate(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  error
	}{
		{"valid", Entry{Session: "s", To: presence.StateIdle}, nil},
		{"no session", Entry{To: presence.StateIdle}, ErrMissingSession},
		{"nul in session", Entry{Session: "a\x00b", To: presence.StateIdle}, ErrInvalidEntry},
		{"unknown target", Entry{Session: "s", To: "singing"}, ErrInvalidEntry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.entry.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []Entry{
		NewEntry("s", presence.StateDisconnected, presence.StateConnecting, t0),
		NewEntry("s", presence.StateConnecting, presence.StateListening, t0.Add(time.Second)),
		NewEntry("s", presence.StateListening, presence.StateSpeaking, t0.Add(4*time.Second)),
		NewEntry("s", presence.StateSpeaking, presence.StateListening, t0.Add(6*time.Second)),
	}

	sum := Summarize("s", entries, t0.Add(10*time.Second))

	if sum.Changes != 4 {
		t.Errorf("Changes = %d, want 4", sum.Changes)
	}
	if sum.Spurious != 1 {
		t.Errorf("Spurious = %d, want 1 (listening -> speaking)", sum.Spurious)
	}
	want := map[presence.State]time.Duration{
		presence.StateConnecting: time.Second,
		presence.StateListening:  7 * time.Second,
		presence.StateSpeaking:   2 * time.Second,
	}
	for s, d := range want {
		if sum.Dwell[s] != d {
			t.Errorf("Dwell[%s] = %v, want %v", s, sum.Dwell[s], d)
		}
	}
}

func TestSummarize_Empty(t *testing.T) {
	sum := Summarize("s", nil, time.Time{})
	if sum.Changes != 0 || len(sum.Dwell) != 0 {
		t.Errorf("Summarize(nil) = %+v, want empty", sum)
	}
}
