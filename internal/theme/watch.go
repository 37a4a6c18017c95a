package theme

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 250 * time.Millisecond

// Watch reloads the registry whenever a scheme file in its directory
// changes. It blocks until ctx is cancelled. Reload failures are logged
// and the previous schemes stay in effect; already-created sessions are
// never affected since palettes are copied at session creation.
func (r *Registry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(r.dir); err != nil {
		return err
	}

	var timer *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isSchemeFile(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Editors fire bursts of events per save; debounce them.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("theme watcher error", "error", err)
		case <-reload:
			if err := r.Reload(); err != nil {
				slog.Warn("theme reload failed, keeping previous schemes", "error", err)
				continue
			}
			slog.Info("themes reloaded", "dir", r.dir, "count", len(r.List()))
		}
	}
}

func isSchemeFile(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
