package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aman-cerp/semindex/internal/gitignore"
)

// FSWatcher implements Watcher using fsnotify, debouncing raw OS events per
// path before emitting batches.
type FSWatcher struct {
	fsWatcher      *fsnotify.Watcher
	debouncer      *Debouncer
	gitignore      *gitignore.Matcher
	events         chan []FileEvent
	errors         chan error
	stopCh         chan struct{}
	rootPath       string
	opts           Options
	mu             sync.RWMutex
	stopped        bool
	droppedBatches atomic.Uint64
}

var _ Watcher = (*FSWatcher)(nil)

// dataDirName is the on-disk directory a container's local index lives
// under; the watcher always excludes it from traversal regardless of
// .gitignore content, the same way the root .git directory is excluded.
const dataDirName = ".semindex"

// NewFSWatcher creates a new fsnotify-backed watcher with the given options.
func NewFSWatcher(opts Options) (*FSWatcher, error) {
	opts = opts.WithDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &FSWatcher{
		fsWatcher: fsw,
		debouncer: NewDebouncer(opts.DebounceWindow),
		gitignore: gitignore.New(),
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
		opts:      opts,
	}

	for _, pattern := range opts.IgnorePatterns {
		w.gitignore.AddPattern(pattern)
	}
	w.gitignore.AddPattern(dataDirName + "/")
	w.gitignore.AddPattern(dataDirName + "/**")

	return w, nil
}

// Start begins watching the given directory.
func (w *FSWatcher) Start(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	w.rootPath = absPath

	w.loadGitignore()
	go w.forwardDebouncedEvents(ctx)

	if err := w.addRecursive(w.rootPath); err != nil {
		return fmt.Errorf("add directories to watcher: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

// handleEvent converts and filters a raw fsnotify event into the
// debouncer's coalescing pipeline.
func (w *FSWatcher) handleEvent(event fsnotify.Event) {
	relPath, err := filepath.Rel(w.rootPath, event.Name)
	if err != nil {
		relPath = event.Name
	}

	isDir := false
	if info, statErr := os.Stat(event.Name); statErr == nil {
		isDir = info.IsDir()
	}

	if w.shouldIgnore(relPath, isDir) {
		return
	}

	if filepath.Base(event.Name) == ".gitignore" {
		w.loadGitignore()
		w.debouncer.Add(FileEvent{Path: relPath, Operation: OpGitignoreChange, Timestamp: time.Now()})
		return
	}

	baseName := filepath.Base(event.Name)
	if baseName == ".semindex.yaml" || baseName == ".semindex.yml" {
		w.debouncer.Add(FileEvent{Path: relPath, Operation: OpConfigChange, Timestamp: time.Now()})
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
		if isDir {
			_ = w.fsWatcher.Add(event.Name)
		}
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		// fsnotify never pairs a rename's old and new path; it reports
		// the removal of the old name, with a separate Create event for
		// the new one. Treating it as a delete here is exactly that
		// "Removed(from) + Created(to)" split.
		op = OpDelete
	case event.Op&fsnotify.Chmod != 0:
		return
	default:
		return
	}

	w.debouncer.Add(FileEvent{
		Path:      relPath,
		Operation: op,
		IsDir:     isDir,
		Timestamp: time.Now(),
	})
}

// forwardDebouncedEvents forwards debounced batches to the output channel.
func (w *FSWatcher) forwardDebouncedEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case events, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			if len(events) == 0 {
				continue
			}
			w.emitEvents(events)
		}
	}
}

// addRecursive adds every directory under root to the fsnotify watch set.
func (w *FSWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		relPath, _ := filepath.Rel(w.rootPath, path)
		if relPath == "." {
			return w.fsWatcher.Add(path)
		}
		if w.shouldIgnoreDir(relPath) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *FSWatcher) shouldIgnoreDir(relPath string) bool {
	if strings.HasPrefix(relPath, ".git") || relPath == ".git" {
		return true
	}
	if strings.HasPrefix(relPath, dataDirName) || relPath == dataDirName {
		return true
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.gitignore.Match(relPath, true)
}

func (w *FSWatcher) shouldIgnore(relPath string, isDir bool) bool {
	if relPath == "." || relPath == "" {
		return true
	}
	if strings.HasPrefix(relPath, ".git/") || relPath == ".git" {
		return true
	}
	if strings.HasPrefix(relPath, dataDirName+"/") || relPath == dataDirName {
		return true
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.gitignore.Match(relPath, isDir)
}

// loadGitignore reloads gitignore patterns from root and every nested
// .gitignore file.
func (w *FSWatcher) loadGitignore() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.gitignore = gitignore.New()
	for _, pattern := range w.opts.IgnorePatterns {
		w.gitignore.AddPattern(pattern)
	}
	w.gitignore.AddPattern(dataDirName + "/")
	w.gitignore.AddPattern(dataDirName + "/**")

	gitignorePath := filepath.Join(w.rootPath, ".gitignore")
	if err := w.gitignore.AddFromFile(gitignorePath, ""); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load root .gitignore", slog.String("path", gitignorePath), slog.String("error", err.Error()))
	}

	_ = filepath.WalkDir(w.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("skipping directory in gitignore scan", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if d.Name() == ".gitignore" && path != gitignorePath {
			base, _ := filepath.Rel(w.rootPath, filepath.Dir(path))
			if err := w.gitignore.AddFromFile(path, base); err != nil {
				slog.Warn("failed to read nested .gitignore", slog.String("path", path), slog.String("error", err.Error()))
			}
		}
		return nil
	})
}

func (w *FSWatcher) emitEvents(events []FileEvent) {
	w.mu.RLock()
	stopped := w.stopped
	w.mu.RUnlock()
	if stopped {
		return
	}

	select {
	case w.events <- events:
	default:
		count := w.droppedBatches.Add(1)
		slog.Warn("event buffer full, dropping batch",
			slog.Int("batch_size", len(events)),
			slog.Uint64("total_dropped_batches", count),
		)
	}
}

func (w *FSWatcher) emitError(err error) {
	w.mu.RLock()
	stopped := w.stopped
	w.mu.RUnlock()
	if stopped {
		return
	}
	select {
	case w.errors <- err:
	default:
	}
}

// Stop stops the watcher and releases resources. Safe to call multiple times.
func (w *FSWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)

	w.debouncer.Stop()
	_ = w.fsWatcher.Close()

	close(w.events)
	close(w.errors)
	return nil
}

// Events returns the channel of debounced file event batches.
func (w *FSWatcher) Events() <-chan []FileEvent {
	return w.events
}

// Errors returns the channel of non-fatal watcher errors.
func (w *FSWatcher) Errors() <-chan error {
	return w.errors
}

// DroppedBatches returns the number of event batches dropped due to
// buffer overflow.
func (w *FSWatcher) DroppedBatches() uint64 {
	return w.droppedBatches.Load()
}

// RootPath returns the root path being watched.
func (w *FSWatcher) RootPath() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.rootPath
}
