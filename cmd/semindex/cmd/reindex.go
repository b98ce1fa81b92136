package cmd

import (
	"github.com/spf13/cobra"

	"github.com/aman-cerp/semindex/internal/progressui"
)

func newReindexCmd() *cobra.Command {
	var noTUI bool

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rescan every root bound to a container and rebuild it",
		Long: `Reindex rescans every root a container already tracks and rebuilds
its fragments, vectors, and lexical entries from scratch. Use this after
changing chunking or embedding configuration; for day-to-day freshness the
file watcher keeps an index current incrementally.`,
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

			renderer := progressui.NewRenderer(progressui.NewConfig(cmd.OutOrStdout(),
				progressui.WithForcePlain(noTUI), progressui.WithContainer(c.Name())))
			if err := renderer.Start(cmd.Context()); err != nil {
				return err
			}
			defer func() { _ = renderer.Stop() }()

			result, err := a.Indexer.ReindexAll(cmd.Context(), c, renderer.UpdateProgress)
			if err != nil {
				return err
			}
			renderer.Complete(progressui.StatsFromJobResult(c.Name(), result))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "disable the interactive progress panel, use plain text output")
	return cmd
}
