package application

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
	"github.com/felixgeelhaar/agent-presence/domain/timeline"
	"github.com/felixgeelhaar/agent-presence/infrastructure/render"
)

// Replay provides replay of recorded sessions.
type Replay struct {
	store timeline.Store
}

// NewReplay creates a new replay over a timeline store.
func NewReplay(store timeline.Store) *Replay {
	return &Replay{
		store: store,
	}
}

// load retrieves the entries of a session, failing when it has none.
func (r *Replay) load(ctx context.Context, session string) ([]timeline.Entry, error) {
	entries, err := r.store.Load(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("load timeline: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", timeline.ErrSessionNotFound, session)
	}
	return entries, nil
}

// Summarize aggregates the recorded changes of a session.
func (r *Replay) Summarize(ctx context.Context, session string) (timeline.Summary, error) {
	entries, err := r.load(ctx, session)
	if err != nil {
		return timeline.Summary{}, err
	}
	return timeline.Summarize(session, entries, time.Time{}), nil
}

// SummarizeAll aggregates every recorded session in name order.
func (r *Replay) SummarizeAll(ctx context.Context) ([]timeline.Summary, error) {
	sessions, err := r.store.Sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	summaries := make([]timeline.Summary, 0, len(sessions))
	for _, session := range sessions {
		sum, err := r.Summarize(ctx, session)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}

// PlayOptions configure Play.
type PlayOptions struct {
	// Mapper derives the frames. Defaults to the canonical mapper.
	Mapper *presence.Mapper

	// Speed scales the recorded gaps between changes: 2 plays twice as
	// fast. Zero or less draws every frame immediately.
	Speed float64

	// FromSeq skips entries before this sequence number.
	FromSeq uint64
}

// Play redraws a recorded session, one frame per change, deriving each
// frame with the mapper in opts. It stops early when ctx is done.
func (r *Replay) Play(ctx context.Context, session string, renderer render.Renderer, opts PlayOptions) error {
	it, err := r.NewEntryIterator(ctx, session, opts.FromSeq)
	if err != nil {
		return err
	}
	if it.Len() == 0 {
		return fmt.Errorf("%w: %s", timeline.ErrSessionNotFound, session)
	}

	mapper := opts.Mapper
	if mapper == nil {
		mapper = presence.DefaultMapper()
	}

	var prev time.Time
	for e := it.Next(); e != nil; e = it.Next() {
		if opts.Speed > 0 && !prev.IsZero() {
			if gap := e.At.Sub(prev); gap > 0 {
				timer := time.NewTimer(time.Duration(float64(gap) / opts.Speed))
				select {
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				case <-timer.C:
				}
			}
		}
		prev = e.At

		u := presence.Update{State: e.To, Activity: e.Activity, Session: e.Session, At: e.At}
		frame := render.Frame{
			Session:  e.Session,
			At:       e.At,
			Activity: e.Activity,
			Profile:  mapper.DeriveUpdate(u),
		}
		if err := renderer.Render(frame); err != nil {
			return fmt.Errorf("render entry %d: %w", e.Sequence, err)
		}
	}
	return nil
}

// EntryIterator allows iterating over timeline entries one at a time.
type EntryIterator struct {
	entries []timeline.Entry
	index   int
}

// NewEntryIterator creates an iterator over the entries of a session
// starting at sequence fromSeq.
func (r *Replay) NewEntryIterator(ctx context.Context, session string, fromSeq uint64) (*EntryIterator, error) {
	entries, err := r.store.LoadFrom(ctx, session, fromSeq)
	if err != nil {
		return nil, fmt.Errorf("load timeline: %w", err)
	}

	return &EntryIterator{
		entries: entries,
		index:   0,
	}, nil
}

// Next returns the next entry, or nil if done.
func (it *EntryIterator) Next() *timeline.Entry {
	if it.index >= len(it.entries) {
		return nil
	}
	e := &it.entries[it.index]
	it.index++
	return e
}

// Peek returns the next entry without advancing.
func (it *EntryIterator) Peek() *timeline.Entry {
	if it.index >= len(it.entries) {
		return nil
	}
	return &it.entries[it.index]
}

// Reset returns to the beginning.
func (it *EntryIterator) Reset() {
	it.index = 0
}

// Len returns the total number of entries.
func (it *EntryIterator) Len() int {
	return len(it.entries)
}

// Index returns the current position.
func (it *EntryIterator) Index() int {
	return it.index
}
