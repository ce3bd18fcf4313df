package feed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
	"github.com/felixgeelhaar/agent-presence/infrastructure/telemetry"
)

type countingMetrics struct {
	telemetry.NoopMetricsProvider
	malformed map[string]int
}

func (m *countingMetrics) RecordMalformed(_ context.Context, source string) {
	if m.malformed == nil {
		m.malformed = make(map[string]int)
	}
	m.malformed[source]++
}

func collect(t *testing.T, src Source) []presence.Update {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out := make(chan presence.Update, 16)
	if err := src.Run(ctx, out); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	close(out)

	var updates []presence.Update
	for u := range out {
		updates = append(updates, u)
	}
	return updates
}

func TestReaderSource_Run(t *testing.T) {
	input := strings.Join([]string{
		`{"state":"connecting"}`,
		``,
		`not json at all {`,
		`{"state":"listening","activity":0.4}`,
		`speaking 0.9`,
	}, "\n")

	src := NewReaderSource("test", strings.NewReader(input), Decoder{Session: "s"})
	updates := collect(t, src)

	want := []presence.State{presence.StateConnecting, presence.StateListening, presence.StateSpeaking}
	if len(updates) != len(want) {
		t.Fatalf("got %d updates, want %d: %+v", len(updates), len(want), updates)
	}
	for i, s := range want {
		if updates[i].State != s {
			t.Errorf("updates[%d].State = %q, want %q", i, updates[i].State, s)
		}
		if updates[i].Session != "s" {
			t.Errorf("updates[%d].Session = %q, want s", i, updates[i].Session)
		}
	}
}

func TestReaderSource_CountsMalformed(t *testing.T) {
	metrics := &countingMetrics{}
	input := "idle\nlistening loud\n{\"activity\":1}\nthinking\n"

	src := NewReaderSource("test", strings.NewReader(input), Decoder{Metrics: metrics})
	updates := collect(t, src)

	if len(updates) != 2 {
		t.Fatalf("got %d updates, want 2", len(updates))
	}
	if metrics.malformed["test"] != 2 {
		t.Errorf("malformed = %d, want 2", metrics.malformed["test"])
	}
}

func TestReaderSource_CancelledContext(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe() error = %v", err)
	}
	defer w.Close()
	defer r.Close()

	src := NewReaderSource("pipe", r, Decoder{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, make(chan presence.Update)) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil on cancellation", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.jsonl")
	content := "{\"state\":\"idle\"}\n{\"state\":\"thinking\"}\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write feed: %v", err)
	}

	src, err := Open("file:"+path, Options{Session: "replay"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	updates := collect(t, src)
	if len(updates) != 2 || updates[1].State != presence.StateThinking {
		t.Errorf("updates = %+v, want idle then thinking", updates)
	}
}
