package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

// Source hands out the current catalog snapshot and swaps it on reload.
// Readers take one snapshot per simulation.
type Source struct {
	current atomic.Pointer[Catalog]
	fs      afero.Fs
	dir     string

	mu            sync.Mutex
	watcher       *fsnotify.Watcher
	watcherActive bool
}

// NewSource wraps a fixed catalog. Reload is a no-op without a directory.
func NewSource(cat *Catalog) *Source {
	s := &Source{}
	s.current.Store(cat)
	return s
}

// OpenSource loads dir through fsys and keeps it for later reloads.
func OpenSource(fsys afero.Fs, dir string) (*Source, error) {
	cat, err := LoadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	s := &Source{fs: fsys, dir: dir}
	s.current.Store(cat)
	return s, nil
}

// Current returns the active catalog.
func (s *Source) Current() *Catalog {
	return s.current.Load()
}

// Reload re-reads the directory. On failure the previous catalog stays active.
func (s *Source) Reload() error {
	if s.fs == nil {
		return nil
	}
	cat, err := LoadDir(s.fs, s.dir)
	if err != nil {
		return err
	}
	s.current.Store(cat)
	return nil
}

// Watch reloads the catalog whenever an overlay file in the directory changes.
// It returns once the watcher is running; the watcher stops with ctx.
func (s *Source) Watch(ctx context.Context) error {
	if s.dir == "" {
		return fmt.Errorf("catalog source has no directory to watch")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcherActive {
		slog.Debug("Catalog watcher already active")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file system watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch catalog directory: %w", err)
	}
	s.watcher = watcher
	s.watcherActive = true

	go s.watchFiles(ctx, watcher)

	slog.Debug("Started catalog watcher", "directory", s.dir)
	return nil
}

func (s *Source) watchFiles(ctx context.Context, watcher *fsnotify.Watcher) {
	defer func() {
		s.mu.Lock()
		watcher.Close()
		s.watcher = nil
		s.watcherActive = false
		s.mu.Unlock()
		slog.Info("Catalog watcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			s.handleFileEvent(event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Catalog watcher error", "error", err)
		}
	}
}

func (s *Source) handleFileEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, ".json") {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	file := filepath.Base(event.Name)
	if err := s.Reload(); err != nil {
		slog.Error("Failed to reload catalog, keeping previous version", "file", file, "error", err)
		return
	}
	slog.Info("catalog_reloaded", "file", file, "event", event.Op.String())
}
