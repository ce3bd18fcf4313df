// Package memory provides in-memory storage implementations.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/agent-presence/domain/timeline"
)

// TimelineStore is an in-memory implementation of timeline.Store.
type TimelineStore struct {
	entries   map[string][]timeline.Entry // session -> entries
	sequences map[string]uint64           // session -> last sequence
	closed    bool
	mu        sync.RWMutex
}

// NewTimelineStore creates a new in-memory timeline store.
func NewTimelineStore() *TimelineStore {
	return &TimelineStore{
		entries:   make(map[string][]timeline.Entry),
		sequences: make(map[string]uint64),
	}
}

// Append persists one or more entries atomically.
func (s *TimelineStore) Append(ctx context.Context, entries ...timeline.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(entries) == 0 {
		return nil
	}

	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return timeline.ErrStoreClosed
	}

	// Group entries by session, keeping order of appearance
	bySession := make(map[string][]timeline.Entry)
	var order []string
	for _, e := range entries {
		if _, ok := bySession[e.Session]; !ok {
			order = append(order, e.Session)
		}
		bySession[e.Session] = append(bySession[e.Session], e)
	}

	for _, session := range order {
		sessionEntries := bySession[session]
		seq := s.sequences[session]

		for i := range sessionEntries {
			if sessionEntries[i].ID == "" {
				sessionEntries[i].ID = uuid.New().String()
			}
			seq++
			sessionEntries[i].Sequence = seq
		}

		s.entries[session] = append(s.entries[session], sessionEntries...)
		s.sequences[session] = seq

	}

	return nil
}

// Load retrieves all entries of a session in sequence order.
func (s *TimelineStore) Load(ctx context.Context, session string) ([]timeline.Entry, error) {
	return s.LoadFrom(ctx, session, 0)
}

// LoadFrom retrieves entries starting from a specific sequence number.
func (s *TimelineStore) LoadFrom(ctx context.Context, session string, fromSeq uint64) ([]timeline.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []timeline.Entry{}
	for _, e := range s.entries[session] {
		if e.Sequence >= fromSeq {
			result = append(result, e)
		}
	}
	return result, nil
}

// Sessions lists every session with recorded entries, sorted.
func (s *TimelineStore) Sessions(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.entries))
	for session := range s.entries {
		sessions = append(sessions, session)
	}
	sort.Strings(sessions)
	return sessions, nil
}

// Len returns the total number of entries across all sessions.
func (s *TimelineStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	for _, entries := range s.entries {
		count += len(entries)
	}
	return count
}

// Close rejects further appends. Entries stay readable.
func (s *TimelineStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Ensure TimelineStore implements timeline.Store
var _ timeline.Store = (*TimelineStore)(nil)
