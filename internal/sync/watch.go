package sync

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conorfennell/vocabdeck/internal/domain"
	"github.com/conorfennell/vocabdeck/internal/parser"
)

// WatchOptions tunes Watch.
type WatchOptions struct {
	// Debounce is how long a local source must be quiet before it is re-synced.
	Debounce time.Duration
	// GitPoll is how often git sources are pulled. Zero disables polling.
	GitPoll time.Duration
}

// DefaultWatchOptions re-syncs half a second after the last change and
// pulls git sources every five minutes.
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{Debounce: 500 * time.Millisecond, GitPoll: 5 * time.Minute}
}

// Watch re-syncs local sources whenever a vocabulary file under them
// changes, until ctx is cancelled. Sources registered after Watch starts
// are not picked up.
func (s *Syncer) Watch(ctx context.Context, opts WatchOptions) (err error) {
	sources, err := s.store.GetAllSources(ctx)
	if err != nil {
		return fmt.Errorf("failed to get sources: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	var local, git []domain.Source
	for _, src := range sources {
		if src.Type == domain.GitSource {
			git = append(git, src)
			continue
		}
		if err := addTree(watcher, src.Path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", src.Path, err)
		}
		local = append(local, src)
	}
	slog.Info("Watching sources", "local", len(local), "git", len(git))

	var pollC <-chan time.Time
	if opts.GitPoll > 0 && len(git) > 0 {
		ticker := time.NewTicker(opts.GitPoll)
		defer ticker.Stop()
		pollC = ticker.C
	}

	debounce := time.NewTimer(opts.Debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := make(map[int64]domain.Source)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				// New subdirectories need their own watch.
				_ = addTree(watcher, event.Name)
			}
			if !parser.Supported(event.Name) || event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if src, ok := owner(local, event.Name); ok {
				slog.Debug("Source changed", "path", event.Name, "op", event.Op.String())
				pending[src.ID] = src
				debounce.Reset(opts.Debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("File watcher error", "error", err)

		case <-debounce.C:
			for id, src := range pending {
				if _, err := s.SyncSource(ctx, src); err != nil {
					slog.Error("Error syncing source", "id", src.ID, "path", src.Path, "error", err)
				}
				delete(pending, id)
			}

		case <-pollC:
			for _, src := range git {
				if _, err := s.SyncSource(ctx, src); err != nil {
					slog.Error("Error syncing source", "id", src.ID, "path", src.Path, "error", err)
				}
			}
		}
	}
}

// addTree watches root and every directory below it.
func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// owner finds the source whose directory contains path.
func owner(sources []domain.Source, path string) (domain.Source, bool) {
	for _, src := range sources {
		rel, err := filepath.Rel(src.Path, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return src, true
		}
	}
	return domain.Source{}, false
}
