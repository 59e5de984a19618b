package zonestore

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// defaultDebounce coalesces bursts of write events (editors often emit
// several per save) into a single reload.
const defaultDebounce = 250 * time.Millisecond

// Watcher triggers a callback when the zone database file changes on disk.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
}

// NewWatcher creates a Watcher for the given file path.
func NewWatcher(path string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, eris.Wrap(err, "zonestore: create watcher")
	}
	// Watch the parent directory so atomic rename-over-the-file saves are seen.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, eris.Wrapf(err, "zonestore: watch %s", path)
	}
	return &Watcher{watcher: fw, path: path, debounce: debounce}, nil
}

// Watch blocks until the context is cancelled, invoking onChange after each
// debounced burst of events touching the watched file. Callback errors are
// logged, not propagated; the watch loop keeps running.
func (w *Watcher) Watch(ctx context.Context, onChange func() error) error {
	zap.L().Info("zonestore: watching zone database", zap.String("path", w.path))

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return w.watcher.Close()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			zap.L().Warn("zonestore: watcher error", zap.Error(err))

		case <-timerC:
			timer = nil
			timerC = nil
			if err := onChange(); err != nil {
				zap.L().Error("zonestore: auto-reload failed", zap.Error(err))
			}
		}
	}
}
