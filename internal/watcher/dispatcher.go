package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	ierrors "github.com/aman-cerp/semindex/internal/errors"
	"github.com/aman-cerp/semindex/internal/indexer"
)

// Dispatcher consumes debounced event batches from a Watcher and drives the
// owning container's indexer accordingly: a create/modify event re-indexes
// the single file, a delete event removes it. It never itself decides what
// to watch or when to debounce — that's the Watcher's job; the dispatcher
// only reacts.
type Dispatcher struct {
	watcher   Watcher
	indexer   *indexer.Indexer
	container indexer.Container
	// root is the absolute path the watcher was started on; event paths
	// arrive relative to it. A container with several roots gets one
	// Watcher+Dispatcher pair per root.
	root string

	// retryBase is the initial backoff applied to an event that hits a
	// Busy container. Default: 500ms.
	retryBase time.Duration
	// retryCap bounds the exponential backoff applied to a requeued
	// event. Default: 8s, per the retry-then-drop policy: once a
	// requeued event has backed off past this cap it is dropped, and
	// the next periodic ReindexDelta recovers it.
	retryCap time.Duration
}

// NewDispatcher builds a dispatcher that drives idx against c in response to
// w's event batches. root is the absolute path w was started on.
func NewDispatcher(w Watcher, idx *indexer.Indexer, c indexer.Container, root string) *Dispatcher {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		rootAbs = root
	}
	return &Dispatcher{
		watcher:   w,
		indexer:   idx,
		container: c,
		root:      rootAbs,
		retryBase: 500 * time.Millisecond,
		retryCap:  8 * time.Second,
	}
}

// Run consumes event batches until ctx is cancelled or the watcher's
// channels close.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case events, ok := <-d.watcher.Events():
			if !ok {
				return
			}
			for _, ev := range events {
				d.dispatch(ctx, ev)
			}
		case err, ok := <-d.watcher.Errors():
			if !ok {
				return
			}
			slog.Warn("watcher error",
				slog.String("container", d.container.Name()),
				slog.String("error", err.Error()),
			)
		}
	}
}

// dispatch routes a single event to the indexer, retrying with exponential
// backoff while the container is busy and dropping the event once the
// backoff exceeds retryCap.
func (d *Dispatcher) dispatch(ctx context.Context, ev FileEvent) {
	if ev.IsDir {
		return
	}
	if !d.inScope(ev.Path) {
		return
	}

	absPath := d.resolve(ev.Path)
	backoff := d.retryBase

	for {
		err := d.apply(ctx, ev.Operation, absPath)
		if err == nil {
			return
		}
		if ierrors.GetCategory(err) != ierrors.CategoryBusy {
			slog.Warn("failed to apply watcher event",
				slog.String("container", d.container.Name()),
				slog.String("path", ev.Path),
				slog.String("operation", ev.Operation.String()),
				slog.String("error", err.Error()),
			)
			return
		}
		if backoff > d.retryCap {
			slog.Warn("dropping watcher event after exhausting busy retries",
				slog.String("container", d.container.Name()),
				slog.String("path", ev.Path),
			)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func (d *Dispatcher) apply(ctx context.Context, op Operation, absPath string) error {
	switch op {
	case OpDelete:
		return d.indexer.DeletePath(ctx, d.container, absPath)
	case OpGitignoreChange, OpConfigChange:
		// Neither the config file nor the gitignore file itself is
		// indexed content; the reconciliation their change implies is
		// handled by the next periodic ReindexDelta, not by this event.
		return nil
	default:
		return d.indexer.IndexSingle(ctx, d.container, absPath)
	}
}

// inScope reports whether relPath (relative to d.root) actually falls under
// one of the container's configured roots — a container whose roots were
// narrowed after the watcher started stays consistent with IndexSingle's
// own scope check.
func (d *Dispatcher) inScope(relPath string) bool {
	abs := d.resolve(relPath)
	for _, root := range d.container.Roots() {
		rootAbs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		if abs == rootAbs || strings.HasPrefix(abs, rootAbs+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (d *Dispatcher) resolve(relPath string) string {
	if filepath.IsAbs(relPath) {
		return relPath
	}
	return filepath.Join(d.root, relPath)
}
