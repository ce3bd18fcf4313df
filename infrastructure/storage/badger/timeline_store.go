package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/agent-presence/domain/timeline"
)

// TimelineStore is a BadgerDB-backed implementation of timeline.Store.
type TimelineStore struct {
	db        *badger.DB
	keyPrefix string
	gcStop    chan struct{}
	gcWg      sync.WaitGroup
	closeOnce sync.Once
}

// NewTimelineStore opens a BadgerDB timeline store with the given configuration.
func NewTimelineStore(cfg Config, opts ...Option) (*TimelineStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &TimelineStore{
		db:        db,
		keyPrefix: cfg.KeyPrefix,
		gcStop:    make(chan struct{}),
	}

	// Value log GC has nothing to do in memory
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.startGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}

	return s, nil
}

// startGC starts the garbage collection goroutine.
func (s *TimelineStore) startGC(interval time.Duration, discardRatio float64) {
	s.gcWg.Add(1)
	go func() {
		defer s.gcWg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.gcStop:
				return
			case <-ticker.C:
				for {
					if err := s.db.RunValueLogGC(discardRatio); err != nil {
						break
					}
				}
			}
		}
	}()
}

// Key format: prefix + "timeline:" + session + NUL + sequence (8 bytes, big-endian).
// Sessions never contain NUL, so one session's prefix never matches another's.
func (s *TimelineStore) sessionPrefix(session string) []byte {
	return []byte(s.keyPrefix + "timeline:" + session + "\x00")
}

func (s *TimelineStore) entryKey(session string, seq uint64) []byte {
	return binary.BigEndian.AppendUint64(s.sessionPrefix(session), seq)
}

// Key format: prefix + "seq:" + session for storing the sequence counter.
func (s *TimelineStore) seqKey(session string) []byte {
	return []byte(s.keyPrefix + "seq:" + session)
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

	sequences := make(map[string]uint64)

	err := s.db.Update(func(txn *badger.Txn) error {
		for i := range entries {
			e := entries[i]

			seq, ok := sequences[e.Session]
			if !ok {
				var err error
				if seq, err = s.loadSeq(txn, e.Session); err != nil {
					return err
				}
			}

			if e.ID == "" {
				e.ID = uuid.New().String()
			}
			seq++
			e.Sequence = seq
			sequences[e.Session] = seq

			data, err := json.Marshal(e)
			if err != nil {
				return err
			}
			if err := txn.Set(s.entryKey(e.Session, seq), data); err != nil {
				return err
			}

		}

		for session, seq := range sequences {
			if err := txn.Set(s.seqKey(session), binary.BigEndian.AppendUint64(nil, seq)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, badger.ErrDBClosed) {
			return timeline.ErrStoreClosed
		}
		return err
	}
	return nil
}

func (s *TimelineStore) loadSeq(txn *badger.Txn, session string) (uint64, error) {
	item, err := txn.Get(s.seqKey(session))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var seq uint64
	err = item.Value(func(val []byte) error {
		if len(val) == 8 {
			seq = binary.BigEndian.Uint64(val)
		}
		return nil
	})
	return seq, err
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

	entries := []timeline.Entry{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = s.sessionPrefix(session)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(s.entryKey(session, fromSeq)); it.Valid(); it.Next() {
			var e timeline.Entry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				continue // Skip malformed entries
			}
			entries = append(entries, e)
		}
		return nil
	})

	return entries, err
}

// Sessions lists every session with recorded entries in key order.
func (s *TimelineStore) Sessions(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(s.keyPrefix + "seq:")
	prefixLen := len(prefix)
	var sessions []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			sessions = append(sessions, string(it.Item().Key()[prefixLen:]))
		}
		return nil
	})

	return sessions, err
}

// Close stops GC and closes the database.
func (s *TimelineStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.gcStop)
		s.gcWg.Wait()

		err = s.db.Close()
	})
	return err
}

// Ensure TimelineStore implements timeline.Store
var _ timeline.Store = (*TimelineStore)(nil)
