package progressui

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aman-cerp/semindex/internal/indexer"
)

// PlainRenderer writes one line per progress event, for pipes and CI
// logs where a redrawing TUI would just spam scrollback.
type PlainRenderer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPlainRenderer builds a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error { return nil }

// UpdateProgress implements Renderer.
func (r *PlainRenderer) UpdateProgress(event indexer.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg := event.Message
	if msg == "" {
		msg = event.Path
	}

	if event.Total > 0 {
		fmt.Fprintf(r.out, "[%s] %d/%d - %s\n", stageIcon(event.Stage), event.Current, event.Total, msg)
	} else if msg != "" {
		fmt.Fprintf(r.out, "[%s] %s\n", stageIcon(event.Stage), msg)
	}
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "Complete: %d added, %d modified, %d deleted, %d skipped in %s",
		stats.Added, stats.Modified, stats.Deleted, stats.Skipped, formatDuration(stats.Duration))
	if len(stats.Errors) > 0 {
		fmt.Fprintf(r.out, " (%d errors)", len(stats.Errors))
	}
	fmt.Fprintln(r.out)

	for _, err := range stats.Errors {
		fmt.Fprintf(r.out, "  error: %v\n", err)
	}
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error { return nil }

var _ Renderer = (*PlainRenderer)(nil)
