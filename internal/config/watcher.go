package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nholik/netloc-sentinel/internal/debounce"
	"github.com/rs/zerolog"
)

const defaultReloadSettle = 250 * time.Millisecond

// ReloadFunc observes the result of each reload attempt.
type ReloadFunc func(changed bool, err error)

// Watcher reloads a ProfileStore when its file changes on disk or Reload is requested.
type Watcher struct {
	store    *ProfileStore
	logger   zerolog.Logger
	settle   time.Duration
	onReload ReloadFunc
	requests chan struct{}
}

// NewWatcher constructs a Watcher for store. onReload may be nil.
func NewWatcher(store *ProfileStore, logger zerolog.Logger, onReload ReloadFunc) *Watcher {
	return &Watcher{
		store:    store,
		logger:   logger,
		settle:   defaultReloadSettle,
		onReload: onReload,
		requests: make(chan struct{}, 1),
	}
}

// Request asks for a reload, e.g. on SIGHUP. Requests coalesce.
func (w *Watcher) Request() {
	select {
	case w.requests <- struct{}{}:
	default:
	}
}

// Run watches until ctx is done. If the directory cannot be watched, only explicit
// requests trigger reloads.
func (w *Watcher) Run(ctx context.Context) error {
	path := w.store.Path()
	if path == "" {
		<-ctx.Done()
		return nil
	}

	var events <-chan fsnotify.Event
	var errs <-chan error

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn().Err(err).Msg("profile file watcher unavailable; reload on request only")
	} else {
		defer fsw.Close()
		dir := filepath.Dir(path)
		if err := fsw.Add(dir); err != nil {
			w.logger.Warn().Err(err).Str("path", dir).Msg("failed to watch profile directory; reload on request only")
		} else {
			events = fsw.Events
			errs = fsw.Errors
			w.logger.Info().Str("path", path).Msg("watching profile file for changes")
		}
	}

	// Editors write in several steps; settle before reading.
	settle := debounce.New(w.settle)
	defer settle.Cancel()

	base := filepath.Base(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				settle.Signal()
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Error().Err(err).Msg("profile file watcher error")
		case <-w.requests:
			settle.Cancel()
			w.reload()
		case <-settle.C():
			settle.Fired()
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	changed, err := w.store.Reload()
	if err != nil {
		w.logger.Error().Err(err).Str("path", w.store.Path()).Msg("profile reload failed; keeping previous map")
	} else if !changed {
		w.logger.Debug().Str("path", w.store.Path()).Msg("profile file unchanged")
	}
	if w.onReload != nil {
		w.onReload(changed, err)
	}
}
