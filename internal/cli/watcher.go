package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// fileWatcher reports changes to a single file. It watches the file's
// directory so editors that replace the file on save are still seen.
type fileWatcher struct {
	Changes <-chan struct{} // Closed when the watcher stops

	path     string
	changes  chan struct{}
	done     chan struct{}
	watcher  *fsnotify.Watcher
	debounce time.Duration
}

// newFileWatcher starts watching path. Bursts of events closer together
// than debounce are reported once.
func newFileWatcher(path string, debounce time.Duration) (*fileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", path, err)
	}

	ch := make(chan struct{}, 1)
	w := &fileWatcher{
		Changes:  ch,
		path:     abs,
		changes:  ch,
		done:     make(chan struct{}),
		watcher:  fw,
		debounce: debounce,
	}
	go w.loop()
	return w, nil
}

// Stop closes the watcher and waits for its goroutine to exit.
func (w *fileWatcher) Stop() {
	w.watcher.Close()
	<-w.done
}

func (w *fileWatcher) loop() {
	defer close(w.done)
	defer close(w.changes)

	var pending time.Time
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				pending = time.Now()
			}

		case now := <-ticker.C:
			if pending.IsZero() || now.Sub(pending) < w.debounce {
				continue
			}
			pending = time.Time{}
			select {
			case w.changes <- struct{}{}:
			default: // A change is already queued
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; the next event may still arrive.
		}
	}
}
