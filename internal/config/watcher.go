// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// PREFERENCE WATCHER
// =============================================================================

// DefaultDebounce coalesces the bursts of events an atomic save produces.
const DefaultDebounce = 50 * time.Millisecond

// PreferenceWatcher reloads the preference file when another process (or
// an editor) changes it.
type PreferenceWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	fallback Theme
	onChange func(Preferences)
	logger   *slog.Logger
	debounce time.Duration

	mu    sync.Mutex
	last  Preferences
	timer *time.Timer

	done      chan struct{}
	closeOnce sync.Once
}

// WatchPreferences starts watching path. onChange is called from the
// watcher goroutine with the new preferences whenever they differ from the
// last ones seen. The directory is watched rather than the file so that
// atomic replacements are observed.
func WatchPreferences(path string, fallback Theme, onChange func(Preferences), logger *slog.Logger) (*PreferenceWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	initial, _ := LoadPreferences(path, fallback)
	pw := &PreferenceWatcher{
		watcher:  watcher,
		path:     filepath.Clean(path),
		fallback: fallback,
		onChange: onChange,
		logger:   logger,
		debounce: DefaultDebounce,
		last:     initial,
		done:     make(chan struct{}),
	}
	go pw.processEvents()
	return pw, nil
}

// Close stops watching and releases resources.
func (pw *PreferenceWatcher) Close() error {
	var err error
	pw.closeOnce.Do(func() {
		close(pw.done)
		err = pw.watcher.Close()

		pw.mu.Lock()
		if pw.timer != nil {
			pw.timer.Stop()
		}
		pw.mu.Unlock()
	})
	return err
}

// Current returns the most recently loaded preferences.
func (pw *PreferenceWatcher) Current() Preferences {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	return pw.last
}

// processEvents processes file system events.
func (pw *PreferenceWatcher) processEvents() {
	for {
		select {
		case <-pw.done:
			return

		case event, ok := <-pw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != pw.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pw.schedule()
			}

		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return
			}
			pw.logger.Warn("preference watcher error", "error", err)
		}
	}
}

// schedule reloads after the debounce window, restarting it on each event.
func (pw *PreferenceWatcher) schedule() {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.timer != nil {
		pw.timer.Stop()
	}
	pw.timer = time.AfterFunc(pw.debounce, pw.reload)
}

func (pw *PreferenceWatcher) reload() {
	select {
	case <-pw.done:
		return
	default:
	}

	prefs, err := LoadPreferences(pw.path, pw.fallback)
	if err != nil {
		// Editors may leave a half-written file; wait for the next event.
		pw.logger.Debug("preferences not reloaded", "path", pw.path, "error", err)
		return
	}

	pw.mu.Lock()
	changed := prefs != pw.last
	pw.last = prefs
	pw.mu.Unlock()

	if changed && pw.onChange != nil {
		pw.logger.Info("preferences changed", "theme", prefs.Theme)
		pw.onChange(prefs)
	}
}
