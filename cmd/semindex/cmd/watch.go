package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aman-cerp/semindex/internal/indexer"
	"github.com/aman-cerp/semindex/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a container's roots and keep its index current",
		Long: `Watch starts a filesystem watcher per root bound to a container,
debouncing bursts of events and dispatching them to the indexer as
single-file updates or deletions. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveDir(".")
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), dir)
			if err != nil {
				return err
			}
			defer a.Close()

			c, err := a.resolveContainer(cmd.Context(), containerFlag)
			if err != nil {
				return err
			}
			if len(c.Roots()) == 0 {
				return fmt.Errorf("%s has no roots to watch; run 'semindex index <path>' first", c.Name())
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			debounce, err := parseDurationOr(a.Config.Watcher.DebounceWindow, 500*time.Millisecond)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "watching %d root(s) for %s, press Ctrl+C to stop\n", len(c.Roots()), c.Name())

			return runWatchers(ctx, a, c, debounce)
		},
	}
	return cmd
}

func parseDurationOr(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	return time.ParseDuration(s)
}

// runWatchers starts one FSWatcher+Dispatcher pair per root and blocks
// until ctx is canceled, at which point every watcher is stopped.
func runWatchers(ctx context.Context, a *app, c indexer.Container, debounce time.Duration) error {
	watchers := make([]*watcher.FSWatcher, 0, len(c.Roots()))
	defer func() {
		for _, w := range watchers {
			_ = w.Stop()
		}
	}()

	for _, root := range c.Roots() {
		w, err := watcher.NewFSWatcher(watcher.Options{DebounceWindow: debounce})
		if err != nil {
			return fmt.Errorf("create watcher for %s: %w", root, err)
		}
		if err := w.Start(ctx, root); err != nil {
			return fmt.Errorf("start watcher for %s: %w", root, err)
		}
		watchers = append(watchers, w)

		dispatcher := watcher.NewDispatcher(w, a.Indexer, c, root)
		go dispatcher.Run(ctx)
		go logWatcherErrors(ctx, w)
	}

	<-ctx.Done()
	return nil
}

func logWatcherErrors(ctx context.Context, w *watcher.FSWatcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			slog.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}
