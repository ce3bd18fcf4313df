// Package badger stores presence timelines in BadgerDB.
package badger

import (
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ErrOpenFailed wraps failures to open the timeline database.
var ErrOpenFailed = errors.New("badger: cannot open timeline")

// Config configures the timeline database.
type Config struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps the timeline in memory only.
	InMemory bool

	// SyncWrites flushes every append to disk before it returns.
	SyncWrites bool

	// GCInterval is how often the value log is compacted. Zero disables it.
	GCInterval time.Duration

	// GCDiscardRatio is the share of stale data that makes a value log file
	// worth rewriting.
	GCDiscardRatio float64

	// KeyPrefix namespaces the keys, so several deployments can share a
	// directory.
	KeyPrefix string

	// Logger receives badger's own messages. Nil silences them.
	Logger badger.Logger
}

// Option configures the timeline database.
type Option func(*Config)

// WithDir sets the data directory.
func WithDir(dir string) Option {
	return func(c *Config) {
		c.Dir = dir
	}
}

// WithInMemory keeps the timeline in memory.
func WithInMemory() Option {
	return func(c *Config) {
		c.InMemory = true
	}
}

// WithSyncWrites sets whether appends are synced to disk.
func WithSyncWrites(sync bool) Option {
	return func(c *Config) {
		c.SyncWrites = sync
	}
}

// WithGCInterval sets the value log compaction interval.
func WithGCInterval(d time.Duration) Option {
	return func(c *Config) {
		c.GCInterval = d
	}
}

// WithKeyPrefix namespaces every key.
func WithKeyPrefix(prefix string) Option {
	return func(c *Config) {
		c.KeyPrefix = prefix
	}
}

// WithLogger routes badger's messages to logger.
func WithLogger(logger badger.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns the configuration used by the CLI.
func DefaultConfig() Config {
	return Config{
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

func openDB(cfg Config) (*badger.DB, error) {
	opts := badger.DefaultOptions(cfg.Dir).
		WithInMemory(cfg.InMemory).
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(cfg.Logger)
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("")
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Join(ErrOpenFailed, err)
	}
	return db, nil
}
