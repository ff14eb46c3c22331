package storage

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeCallback is called when a collection file was modified by something
// other than this process.
type ChangeCallback func(c Collection)

const watchDebounce = 150 * time.Millisecond

// Watch starts an fsnotify watcher on the store directory and reports
// external edits of collection files until ctx is cancelled.
//
// Atomic writes arrive as bursts of Create/Rename events, so changes are
// collected and checked after a short debounce. Writes made through f itself
// are recognised by checksum and never reported.
func Watch(ctx context.Context, f *FS, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(f.Root()); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", f.Root()))

	pending := make(map[Collection]struct{})
	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time

	schedule := func(c Collection) {
		pending[c] = struct{}{}
		if debounceTimer == nil {
			debounceTimer = time.NewTimer(watchDebounce)
			debounceCh = debounceTimer.C
		} else {
			debounceTimer.Reset(watchDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-debounceCh:
			for c := range pending {
				delete(pending, c)
				changed, err := f.ExternallyModified(c)
				if err != nil {
					logger.Warn("watcher: check failed", slog.String("collection", string(c)), slog.String("error", err.Error()))
					continue
				}
				if !changed {
					continue
				}
				logger.Debug("watcher: external change", slog.String("collection", string(c)))
				if cb != nil {
					cb(c)
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			c, ok := collectionFor(ev.Name)
			if !ok {
				continue
			}
			schedule(c)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// collectionFor maps a file path to the collection stored in it.
func collectionFor(path string) (Collection, bool) {
	name := filepath.Base(path)
	if !strings.HasSuffix(name, ".json") {
		return "", false
	}
	stem := Collection(strings.TrimSuffix(name, ".json"))
	for _, c := range Collections {
		if c == stem {
			return c, true
		}
	}
	return "", false
}
