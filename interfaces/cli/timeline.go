package cli

import (
	"fmt"
	"time"

	domainconfig "github.com/felixgeelhaar/agent-presence/domain/config"
	"github.com/felixgeelhaar/agent-presence/domain/timeline"
	"github.com/felixgeelhaar/agent-presence/infrastructure/storage/badger"
	"github.com/felixgeelhaar/agent-presence/infrastructure/storage/memory"
)

// openTimeline opens the badger timeline in cfg.Dir, or an in-memory one
// when no directory is set.
func openTimeline(cfg domainconfig.TimelineConfig) (timeline.Store, error) {
	if cfg.Dir == "" {
		return memory.NewTimelineStore(), nil
	}

	opts := []badger.Option{
		badger.WithDir(cfg.Dir),
		badger.WithSyncWrites(cfg.SyncWrites),
		badger.WithKeyPrefix(cfg.Prefix),
		badger.WithLogger(badger.NewLogger()),
	}
	if cfg.GCInterval != "" {
		d, err := time.ParseDuration(cfg.GCInterval)
		if err != nil {
			return nil, fmt.Errorf("timeline gc_interval: %w", err)
		}
		opts = append(opts, badger.WithGCInterval(d))
	}

	store, err := badger.NewTimelineStore(badger.DefaultConfig(), opts...)
	if err != nil {
		return nil, fmt.Errorf("opening timeline %s: %w", cfg.Dir, err)
	}
	return store, nil
}
