package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/binhphanhai/crambook/internal/lint"
	"github.com/binhphanhai/crambook/internal/storage"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, path string)

// WatchOptions configures Watch. Logger must be set; the callbacks are
// optional.
type WatchOptions struct {
	Root   string
	Ignore *storage.IgnoreMatcher
	Lint   lint.Options
	Logger *slog.Logger

	// OnEvent fires after each successful index mutation.
	OnEvent EventCallback
	// OnLint fires after each debounced contract re-check.
	OnLint func(*lint.Report)
}

// Watch starts an fsnotify watcher on the corpus root and processes file
// change events until ctx is cancelled.
//
// New directories created at runtime are automatically added to the watch
// list. Rename events trigger a reconciliation pass that removes stale
// index entries whose files no longer exist on disk. Any mutation, guide
// or asset, schedules a debounced corpus-wide contract check: an edit in
// one guide can break links in any other.
func Watch(ctx context.Context, db *DB, store storage.Provider, opts WatchOptions) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	logger := opts.Logger
	if opts.Ignore == nil {
		opts.Ignore = storage.NewIgnoreMatcher()
	}

	if err := addDirsRecursive(w, opts.Root, opts); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", opts.Root))

	// Debounce timers: reconciliation after renames, contract checks after
	// any mutation.
	var reconcileTimer, relintTimer *time.Timer
	var reconcileCh, relintCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}
	scheduleRelint := func() {
		if relintTimer == nil {
			relintTimer = time.NewTimer(500 * time.Millisecond)
			relintCh = relintTimer.C
		} else {
			relintTimer.Reset(500 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			if relintTimer != nil {
				relintTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			if reconcileAfterRename(db, store, logger, opts.OnEvent) {
				scheduleRelint()
			}

		case <-relintCh:
			report, err := Relint(db, store, opts.Lint, logger)
			if err != nil {
				logger.Warn("watcher: relint failed", slog.String("error", err.Error()))
				continue
			}
			if opts.OnLint != nil {
				opts.OnLint(report)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name
			base := filepath.Base(absPath)
			if strings.HasPrefix(base, ".") {
				// Dotfiles include our own atomic-write temp files.
				continue
			}

			rel, relErr := filepath.Rel(opts.Root, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if opts.Ignore.Match(rel) {
				continue
			}

			// --- Handle new directories: add to watcher ---
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath, opts); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					// Index any guides already in the new directory.
					if indexNewDir(db, store, opts, absPath) {
						scheduleRelint()
					}
					continue
				}
			}

			if !strings.HasSuffix(absPath, ".md") {
				// Asset changes do not touch the index but can resolve or
				// break image links.
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
					scheduleRelint()
				}
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := store.Read(rel)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
					continue
				}
				if idxErr := indexFile(db, rel, data, time.Now()); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", idxErr.Error()))
					continue
				}
				kind := "updated"
				if ev.Op&fsnotify.Create != 0 {
					kind = "created"
				}
				logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
				if opts.OnEvent != nil {
					opts.OnEvent(kind, rel)
				}
				scheduleRelint()

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteGuide(rel); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("path", rel))
				if opts.OnEvent != nil {
					opts.OnEvent("deleted", rel)
				}
				scheduleRelint()

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only. The new path
				// will arrive as a separate Create event (if it stays
				// within a watched dir). We delete the old entry
				// immediately and schedule a short reconciliation pass to
				// catch any stragglers.
				if delErr := db.DeleteGuide(rel); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
				} else {
					logger.Debug("watcher: rename old deleted", slog.String("path", rel))
					if opts.OnEvent != nil {
						opts.OnEvent("deleted", rel)
					}
				}
				scheduleReconcile()
				scheduleRelint()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcileAfterRename does a lightweight sync using batch lookups: it
// removes index entries without a file on disk and indexes on-disk guides
// that are missing or stale. Reports whether anything changed.
func reconcileAfterRename(db *DB, store storage.Provider, logger *slog.Logger, cb EventCallback) bool {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return false
	}

	metas, err := store.List("")
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return false
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}

	changed := false
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if delErr := db.DeleteGuide(p); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("path", p))
				changed = true
				if cb != nil {
					cb("deleted", p)
				}
			}
		}
	}

	for p, cs := range disk {
		if checksums[p] == cs {
			continue
		}
		data, readErr := store.Read(p)
		if readErr != nil {
			continue
		}
		if idxErr := indexFile(db, p, data, time.Now()); idxErr == nil {
			logger.Debug("reconcile: indexed new", slog.String("path", p))
			changed = true
			if cb != nil {
				cb("created", p)
			}
		}
	}
	return changed
}

// indexNewDir indexes any guides found in a newly created directory and
// reports whether it indexed anything.
func indexNewDir(db *DB, store storage.Provider, opts WatchOptions, dirPath string) bool {
	indexed := false
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(opts.Root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if opts.Ignore.Match(rel) {
			return nil
		}
		data, readErr := store.Read(rel)
		if readErr != nil {
			return nil
		}
		if idxErr := indexFile(db, rel, data, time.Now()); idxErr == nil {
			opts.Logger.Debug("watcher: indexed from new dir", slog.String("path", rel))
			indexed = true
			if opts.OnEvent != nil {
				opts.OnEvent("created", rel)
			}
		}
		return nil
	})
	return indexed
}

// addDirsRecursive adds root and all its subdirectories to the watcher,
// skipping hidden and ignored directories.
func addDirsRecursive(w *fsnotify.Watcher, root string, opts WatchOptions) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root {
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			rel, relErr := filepath.Rel(opts.Root, path)
			if relErr == nil && opts.Ignore.Match(filepath.ToSlash(rel)) {
				return filepath.SkipDir
			}
		}
		return w.Add(path)
	})
}
