// Package progressui renders indexing progress emitted through
// indexer.ProgressFunc, either as a rich terminal UI or as line-oriented
// plain text when the output is not an interactive terminal.
package progressui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/aman-cerp/semindex/internal/indexer"
)

var stageOrder = map[indexer.Stage]int{
	indexer.StageScan:    0,
	indexer.StageExtract: 1,
	indexer.StageEmbed:   2,
	indexer.StageCommit:  3,
	indexer.StageDone:    4,
}

func stageLabel(s indexer.Stage) string {
	switch s {
	case indexer.StageScan:
		return "Scan"
	case indexer.StageExtract:
		return "Extract"
	case indexer.StageEmbed:
		return "Embed"
	case indexer.StageCommit:
		return "Commit"
	case indexer.StageDone:
		return "Done"
	default:
		return "Unknown"
	}
}

func stageIcon(s indexer.Stage) string {
	switch s {
	case indexer.StageScan:
		return "SCAN"
	case indexer.StageExtract:
		return "EXTRACT"
	case indexer.StageEmbed:
		return "EMBED"
	case indexer.StageCommit:
		return "COMMIT"
	case indexer.StageDone:
		return "DONE"
	default:
		return "????"
	}
}

// CompletionStats is what a Renderer shows once a job finishes. It is
// built from an indexer.JobResult, which only surfaces errors in
// aggregate once the run completes, so unlike per-file progress there is
// no live error stream to render.
type CompletionStats struct {
	Container string
	Added     int
	Modified  int
	Deleted   int
	Skipped   int
	Errors    []error
	Duration  time.Duration
}

// StatsFromJobResult adapts an indexer.JobResult into the shape a
// Renderer's Complete expects.
func StatsFromJobResult(container string, r *indexer.JobResult) CompletionStats {
	return CompletionStats{
		Container: container,
		Added:     r.Added,
		Modified:  r.Modified,
		Deleted:   r.Deleted,
		Skipped:   r.Skipped,
		Errors:    r.Errors,
		Duration:  r.Duration,
	}
}

// Renderer displays the progress of one indexing job.
type Renderer interface {
	// Start initializes the renderer.
	Start(ctx context.Context) error

	// UpdateProgress renders one progress event as it arrives.
	UpdateProgress(event indexer.ProgressEvent)

	// Complete marks the job finished and renders its summary.
	Complete(stats CompletionStats)

	// Stop tears down the renderer.
	Stop() error
}

// Config configures a Renderer.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
	Container  string
}

// ConfigOption modifies a Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output regardless of TTY detection.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) { c.ForcePlain = force }
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) { c.NoColor = noColor }
}

// WithContainer sets the container name shown in the renderer's header.
func WithContainer(name string) ConfigOption {
	return func(c *Config) { c.Container = name }
}

// NewConfig builds a Config for output, applying any options.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{Output: output}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewRenderer picks a TUI renderer for interactive terminals and a plain
// renderer for pipes, CI environments, or when ForcePlain is set. It
// never fails: a TUI init error falls back to plain text.
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain {
		return NewPlainRenderer(cfg)
	}
	if !IsTTY(cfg.Output) {
		return NewPlainRenderer(cfg)
	}
	if DetectCI() {
		return NewPlainRenderer(cfg)
	}
	tui, err := NewTUIRenderer(cfg)
	if err != nil {
		return NewPlainRenderer(cfg)
	}
	return tui
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor reports whether NO_COLOR is set in the environment.
func DetectNoColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

// DetectCI reports whether the process looks like it's running under CI.
func DetectCI() bool {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"} {
		if _, ok := os.LookupEnv(v); ok {
			return true
		}
	}
	return false
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", h, m)
}
