package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/agent-presence/application"
	"github.com/felixgeelhaar/agent-presence/domain/presence"
	"github.com/felixgeelhaar/agent-presence/domain/timeline"
	"github.com/felixgeelhaar/agent-presence/infrastructure/render"
	"github.com/felixgeelhaar/agent-presence/infrastructure/storage/memory"
)

// mockTimelineStore implements timeline.Store for testing.
type mockTimelineStore struct {
	loadFn     func(ctx context.Context, session string) ([]timeline.Entry, error)
	loadFromFn func(ctx context.Context, session string, fromSeq uint64) ([]timeline.Entry, error)
	sessionsFn func(ctx context.Context) ([]string, error)
}

func (m *mockTimelineStore) Append(context.Context, ...timeline.Entry) error { return nil }

func (m *mockTimelineStore) Load(ctx context.Context, session string) ([]timeline.Entry, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx, session)
	}
	return []timeline.Entry{}, nil
}

func (m *mockTimelineStore) LoadFrom(ctx context.Context, session string, fromSeq uint64) ([]timeline.Entry, error) {
	if m.loadFromFn != nil {
		return m.loadFromFn(ctx, session, fromSeq)
	}
	return []timeline.Entry{}, nil
}

func (m *mockTimelineStore) Sessions(ctx context.Context) ([]string, error) {
	if m.sessionsFn != nil {
		return m.sessionsFn(ctx)
	}
	return nil, nil
}

func (m *mockTimelineStore) Close() error { return nil }

type frameRecorder struct {
	frames []render.Frame
}

func (r *frameRecorder) Render(f render.Frame) error {
	r.frames = append(r.frames, f)
	return nil
}

var replayBase = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func recordedTimeline(t *testing.T) *memory.TimelineStore {
	t.Helper()

	store := memory.NewTimelineStore()
	t.Cleanup(func() { _ = store.Close() })

	entries := []timeline.Entry{
		timeline.NewEntry("s-1", presence.StateDisconnected, presence.StateConnecting, replayBase),
		timeline.NewEntry("s-1", presence.StateConnecting, presence.StateListening, replayBase.Add(time.Second)).WithActivity(0.5),
		timeline.NewEntry("s-1", presence.StateListening, presence.StateThinking, replayBase.Add(4*time.Second)),
		timeline.NewEntry("s-2", presence.StateIdle, presence.StateSpeaking, replayBase),
	}
	if err := store.Append(context.Background(), entries...); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	return store
}

func TestReplay_Summarize(t *testing.T) {
	t.Parallel()

	replay := application.NewReplay(recordedTimeline(t))

	sum, err := replay.Summarize(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if sum.Changes != 3 || sum.Spurious != 0 {
		t.Errorf("Changes = %d, Spurious = %d; want 3, 0", sum.Changes, sum.Spurious)
	}
	if got := sum.Dwell[presence.StateListening]; got != 3*time.Second {
		t.Errorf("listening dwell = %v, want 3s", got)
	}
	if got := sum.End.Sub(sum.Start); got != 4*time.Second {
		t.Errorf("duration = %v, want 4s", got)
	}
}

func TestReplay_SummarizeNotFound(t *testing.T) {
	t.Parallel()

	replay := application.NewReplay(recordedTimeline(t))

	_, err := replay.Summarize(context.Background(), "missing")
	if !errors.Is(err, timeline.ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestReplay_SummarizeLoadError(t *testing.T) {
	t.Parallel()

	loadErr := errors.New("disk on fire")
	replay := application.NewReplay(&mockTimelineStore{
		loadFn: func(context.Context, string) ([]timeline.Entry, error) { return nil, loadErr },
	})

	if _, err := replay.Summarize(context.Background(), "s-1"); !errors.Is(err, loadErr) {
		t.Errorf("error = %v, want %v", err, loadErr)
	}
}

func TestReplay_SummarizeAll(t *testing.T) {
	t.Parallel()

	replay := application.NewReplay(recordedTimeline(t))

	sums, err := replay.SummarizeAll(context.Background())
	if err != nil {
		t.Fatalf("SummarizeAll() error = %v", err)
	}
	if len(sums) != 2 || sums[0].Session != "s-1" || sums[1].Session != "s-2" {
		t.Fatalf("summaries = %+v, want s-1 and s-2", sums)
	}
	if sums[1].Spurious != 0 || sums[1].Changes != 1 {
		t.Errorf("s-2 summary = %+v", sums[1])
	}
}

func TestReplay_SummarizeAllSessionsError(t *testing.T) {
	t.Parallel()

	replay := application.NewReplay(&mockTimelineStore{
		sessionsFn: func(context.Context) ([]string, error) { return nil, timeline.ErrStoreClosed },
	})

	if _, err := replay.SummarizeAll(context.Background()); !errors.Is(err, timeline.ErrStoreClosed) {
		t.Errorf("error = %v, want ErrStoreClosed", err)
	}
}

func TestReplay_Play(t *testing.T) {
	t.Parallel()

	replay := application.NewReplay(recordedTimeline(t))
	rec := &frameRecorder{}

	if err := replay.Play(context.Background(), "s-1", rec, application.PlayOptions{}); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	if len(rec.frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(rec.frames))
	}
	if rec.frames[1].Profile != presence.DeriveWithActivity(presence.StateListening, 0.5) {
		t.Errorf("listening frame = %+v, want activity-scaled profile", rec.frames[1].Profile)
	}
	if !rec.frames[2].At.Equal(replayBase.Add(4 * time.Second)) {
		t.Errorf("frame time = %v, want recorded time", rec.frames[2].At)
	}
}

func TestReplay_PlayFromSeqWithMapper(t *testing.T) {
	t.Parallel()

	spec := presence.DefaultTable().Spec(presence.StateThinking)
	spec.StatusText = "Pondering"
	mapper := presence.NewMapper(presence.DefaultTable().With(presence.StateThinking, spec))

	replay := application.NewReplay(recordedTimeline(t))
	rec := &frameRecorder{}

	err := replay.Play(context.Background(), "s-1", rec, application.PlayOptions{Mapper: mapper, FromSeq: 3})
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if len(rec.frames) != 1 || rec.frames[0].Profile.StatusText != "Pondering" {
		t.Fatalf("frames = %+v, want one tuned thinking frame", rec.frames)
	}
}

func TestReplay_PlayPacedCancel(t *testing.T) {
	t.Parallel()

	replay := application.NewReplay(recordedTimeline(t))
	rec := &frameRecorder{}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// At real speed the second frame is a second away.
	err := replay.Play(ctx, "s-1", rec, application.PlayOptions{Speed: 1})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want DeadlineExceeded", err)
	}
	if len(rec.frames) != 1 {
		t.Errorf("got %d frames before cancellation, want 1", len(rec.frames))
	}
}

func TestReplay_PlayNotFound(t *testing.T) {
	t.Parallel()

	replay := application.NewReplay(recordedTimeline(t))

	err := replay.Play(context.Background(), "missing", &frameRecorder{}, application.PlayOptions{})
	if !errors.Is(err, timeline.ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestEntryIterator(t *testing.T) {
	t.Parallel()

	replay := application.NewReplay(recordedTimeline(t))

	it, err := replay.NewEntryIterator(context.Background(), "s-1", 0)
	if err != nil {
		t.Fatalf("NewEntryIterator() error = %v", err)
	}
	if it.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", it.Len())
	}

	if peek := it.Peek(); peek == nil || peek.To != presence.StateConnecting {
		t.Fatalf("Peek() = %+v, want connecting", peek)
	}
	if it.Index() != 0 {
		t.Errorf("Peek should not advance, Index() = %d", it.Index())
	}

	for it.Next() != nil {
	}
	if it.Index() != 3 || it.Peek() != nil {
		t.Errorf("iterator not exhausted: Index() = %d", it.Index())
	}

	it.Reset()
	if e := it.Next(); e == nil || e.Sequence != 1 {
		t.Errorf("after Reset, Next() = %+v, want sequence 1", e)
	}
}
