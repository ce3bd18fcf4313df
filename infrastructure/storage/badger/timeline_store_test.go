package badger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
	"github.com/felixgeelhaar/agent-presence/domain/timeline"
	"github.com/felixgeelhaar/agent-presence/infrastructure/storage/badger"
)

func newTestTimelineStore(t *testing.T) *badger.TimelineStore {
	t.Helper()

	store, err := badger.NewTimelineStore(badger.DefaultConfig(), badger.WithInMemory())
	if err != nil {
		t.Fatalf("NewTimelineStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func entry(session string, from, to presence.State) timeline.Entry {
	return timeline.NewEntry(session, from, to, time.Now().UTC())
}

func TestTimelineStore_AppendAndLoad(t *testing.T) {
	store := newTestTimelineStore(t)
	ctx := context.Background()

	err := store.Append(ctx,
		entry("s-1", presence.StateDisconnected, presence.StateConnecting),
		entry("s-1", presence.StateConnecting, presence.StateListening).WithActivity(0.7),
	)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	loaded, err := store.Load(ctx, "s-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(loaded))
	}
	if loaded[0].Sequence != 1 || loaded[1].Sequence != 2 {
		t.Errorf("expected sequences 1,2, got %d,%d", loaded[0].Sequence, loaded[1].Sequence)
	}
	if loaded[0].ID == "" {
		t.Error("expected ID to be assigned")
	}
	if loaded[1].To != presence.StateListening || !loaded[1].Canonical {
		t.Errorf("unexpected entry: %+v", loaded[1])
	}
	if loaded[1].Activity == nil || *loaded[1].Activity != 0.7 {
		t.Errorf("Activity = %v, want 0.7", loaded[1].Activity)
	}
}

func TestTimelineStore_SequenceContinuesAcrossAppends(t *testing.T) {
	store := newTestTimelineStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.Append(ctx, entry("s", presence.StateIdle, presence.StateListening)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	from, err := store.LoadFrom(ctx, "s", 3)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if len(from) != 1 || from[0].Sequence != 3 {
		t.Errorf("LoadFrom(3) = %+v, want the third entry", from)
	}
}

func TestTimelineStore_SessionsDoNotOverlap(t *testing.T) {
	store := newTestTimelineStore(t)
	ctx := context.Background()

	_ = store.Append(ctx,
		entry("desk", presence.StateIdle, presence.StateListening),
		entry("desk:2", presence.StateIdle, presence.StateSpeaking),
	)

	desk, _ := store.Load(ctx, "desk")
	if len(desk) != 1 {
		t.Errorf("Load(desk) returned %d entries, want 1", len(desk))
	}

	sessions, err := store.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("Sessions() = %v, want 2 sessions", sessions)
	}
}

func TestTimelineStore_InvalidEntry(t *testing.T) {
	store := newTestTimelineStore(t)

	err := store.Append(context.Background(), timeline.Entry{Session: "s", To: "singing"})
	if !errors.Is(err, timeline.ErrInvalidEntry) {
		t.Errorf("Append() error = %v, want ErrInvalidEntry", err)
	}
}

func TestTimelineStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := badger.NewTimelineStore(badger.DefaultConfig(), badger.WithDir(dir))
	if err != nil {
		t.Fatalf("NewTimelineStore failed: %v", err)
	}
	_ = store.Append(ctx, entry("s", presence.StateIdle, presence.StateListening))
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := badger.NewTimelineStore(badger.DefaultConfig(), badger.WithDir(dir))
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	_ = reopened.Append(ctx, entry("s", presence.StateListening, presence.StateThinking))
	loaded, _ := reopened.Load(ctx, "s")
	if len(loaded) != 2 || loaded[1].Sequence != 2 {
		t.Errorf("loaded = %+v, want 2 entries continuing the sequence", loaded)
	}
}

func TestTimelineStore_KeyPrefix(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	kiosk, err := badger.NewTimelineStore(badger.DefaultConfig(),
		badger.WithDir(dir), badger.WithKeyPrefix("kiosk/"), badger.WithSyncWrites(true))
	if err != nil {
		t.Fatalf("NewTimelineStore failed: %v", err)
	}
	_ = kiosk.Append(ctx, entry("s", presence.StateIdle, presence.StateListening))
	if err := kiosk.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	desk, err := badger.NewTimelineStore(badger.DefaultConfig(),
		badger.WithDir(dir), badger.WithKeyPrefix("desk/"), badger.WithGCInterval(0))
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer desk.Close()

	sessions, err := desk.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("Sessions() = %v, want none under another prefix", sessions)
	}
	if loaded, _ := desk.Load(ctx, "s"); len(loaded) != 0 {
		t.Errorf("Load() = %d entries, want 0 under another prefix", len(loaded))
	}
}

func TestTimelineStore_OpenFailure(t *testing.T) {
	dir := t.TempDir()

	first, err := badger.NewTimelineStore(badger.DefaultConfig(), badger.WithDir(dir))
	if err != nil {
		t.Fatalf("NewTimelineStore failed: %v", err)
	}
	defer first.Close()

	// The directory is locked by the first store.
	_, err = badger.NewTimelineStore(badger.DefaultConfig(),
		badger.WithDir(dir), badger.WithLogger(badger.NewLogger()))
	if !errors.Is(err, badger.ErrOpenFailed) {
		t.Errorf("second open error = %v, want ErrOpenFailed", err)
	}
}
