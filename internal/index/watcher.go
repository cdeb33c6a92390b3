package index

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/storage"
)

// ChangeKind classifies an index mutation.
type ChangeKind string

// Change kinds reported to WatchOptions.OnChange.
const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// WatchOptions configures Watch.
type WatchOptions struct {
	// Settle is how long the watcher waits after the last file event before
	// applying the batch to the index. Default: 200ms.
	Settle time.Duration
	// OnChange is called for every note the batch created, updated or deleted.
	OnChange func(kind ChangeKind, path string)
	// OnResolved is called once after a batch that changed the link graph.
	OnResolved func()
}

// Watch follows file system events under vaultRoot and keeps db in step with
// the vault until ctx is cancelled.
//
// Events are not applied one by one. Touched paths are collected until the
// vault has been quiet for Settle, then each is re-read: files that still
// exist are (re)indexed, files that are gone are deleted. A rename therefore
// needs no special casing. New directories are added to the watch list and
// their notes queued.
func Watch(ctx context.Context, db NoteIndex, store storage.Provider, vaultRoot string, logger *slog.Logger, opts WatchOptions) error {
	if opts.Settle <= 0 {
		opts.Settle = 200 * time.Millisecond
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, vaultRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot))

	pending := make(map[string]struct{})
	timer := time.NewTimer(opts.Settle)
	timer.Stop()
	queue := func(rel string) {
		pending[rel] = struct{}{}
		timer.Reset(opts.Settle)
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("watcher: stopped")
			return nil

		case <-timer.C:
			batch := pending
			pending = make(map[string]struct{})
			if applyBatch(db, store, batch, logger, opts.OnChange) && opts.OnResolved != nil {
				opts.OnResolved()
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					for _, rel := range notesUnder(vaultRoot, ev.Name) {
						queue(rel)
					}
					continue
				}
			}

			if !strings.HasSuffix(ev.Name, ".md") || ev.Op == fsnotify.Chmod {
				continue
			}
			rel, relErr := filepath.Rel(vaultRoot, ev.Name)
			if relErr != nil {
				continue
			}
			queue(filepath.ToSlash(rel))

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// applyBatch re-reads every queued path and reports whether the index changed.
func applyBatch(db NoteIndex, store storage.Provider, batch map[string]struct{}, logger *slog.Logger, onChange func(ChangeKind, string)) bool {
	paths := make([]string, 0, len(batch))
	for p := range batch {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	changed := false
	for _, rel := range paths {
		prev, _ := db.GetChecksum(rel)

		data, err := store.Read(rel)
		if errors.Is(err, fs.ErrNotExist) {
			if prev == "" {
				continue
			}
			if delErr := db.DeleteNote(rel); delErr != nil {
				logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
				continue
			}
			logger.Debug("watcher: deleted", slog.String("path", rel))
			changed = true
			if onChange != nil {
				onChange(ChangeDeleted, rel)
			}
			continue
		}
		if err != nil {
			logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
			continue
		}
		if prev == checksum.Sum(data) {
			continue
		}
		if idxErr := IndexFile(db, rel, data); idxErr != nil {
			logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", idxErr.Error()))
			continue
		}
		kind := ChangeUpdated
		if prev == "" {
			kind = ChangeCreated
		}
		logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", string(kind)))
		changed = true
		if onChange != nil {
			onChange(kind, rel)
		}
	}
	return changed
}

// notesUnder returns the vault-relative paths of all .md files below dir.
func notesUnder(vaultRoot, dir string) []string {
	var out []string
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, ".md") {
			return nil
		}
		if rel, relErr := filepath.Rel(vaultRoot, p); relErr == nil {
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	return out
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
