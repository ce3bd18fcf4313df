package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/felixgeelhaar/agent-presence/domain/presence"
	"github.com/felixgeelhaar/agent-presence/infrastructure/logging"
)

// Watcher reloads a configuration file when it changes and publishes the
// rebuilt components. Edits that fail to load or build are logged and the
// previous components stay in effect.
type Watcher struct {
	path    string
	loader  *Loader
	current atomic.Pointer[BuildResult]

	mu       sync.Mutex
	onReload []func(*BuildResult)
}

// NewWatcher loads path and returns a watcher serving its components.
func NewWatcher(path string, loader *Loader) (*Watcher, error) {
	if loader == nil {
		loader = NewLoader()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}

	w := &Watcher{path: abs, loader: loader}
	result, err := w.load()
	if err != nil {
		return nil, err
	}
	w.current.Store(result)
	return w, nil
}

// Current returns the most recent successfully built components.
func (w *Watcher) Current() *BuildResult {
	return w.current.Load()
}

// Mapper returns the most recent mapper.
func (w *Watcher) Mapper() *presence.Mapper {
	return w.current.Load().Mapper
}

// OnReload registers fn to be called after every successful reload.
func (w *Watcher) OnReload(fn func(*BuildResult)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = append(w.onReload, fn)
}

// Run watches the file until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: editors often replace the file instead of writing it.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch path: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.Reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn().
				Add(logging.Component("config")).
				Add(logging.ErrorField(err)).
				Msg("watch error")
		}
	}
}

// Reload loads the file now. It reports whether the new components were
// published.
func (w *Watcher) Reload() bool {
	result, err := w.load()
	if err != nil {
		logging.Warn().
			Add(logging.Component("config")).
			Add(logging.Path(w.path)).
			Add(logging.ErrorField(err)).
			Msg("config reload rejected")
		return false
	}

	w.current.Store(result)
	logging.Info().
		Add(logging.Component("config")).
		Add(logging.Path(w.path)).
		Msg("config reloaded")

	w.mu.Lock()
	hooks := append([]func(*BuildResult){}, w.onReload...)
	w.mu.Unlock()
	for _, fn := range hooks {
		fn(result)
	}
	return true
}

func (w *Watcher) load() (*BuildResult, error) {
	cfg, err := w.loader.LoadFile(w.path)
	if err != nil {
		return nil, err
	}
	return NewBuilder(cfg).Build()
}
