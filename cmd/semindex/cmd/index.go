package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aman-cerp/semindex/internal/progressui"
)

func newIndexCmd() *cobra.Command {
	var noTUI bool

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Add a directory to a container and index it",
		Long: `Index scans path, chunks its files, embeds the chunks, and commits
them to the container's fragment, vector, and lexical stores. path is
added to the container's root list if it isn't already there.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			absPath, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			dir, err := resolveDir(absPath)
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
			if !containsRoot(c.Roots(), absPath) {
				if err := a.Manager.SetRoots(c.Name(), append(c.Roots(), absPath)); err != nil {
					return fmt.Errorf("bind root: %w", err)
				}
			}

			renderer := progressui.NewRenderer(progressui.NewConfig(cmd.OutOrStdout(),
				progressui.WithForcePlain(noTUI), progressui.WithContainer(c.Name())))
			if err := renderer.Start(cmd.Context()); err != nil {
				return err
			}
			defer func() { _ = renderer.Stop() }()

			result, err := a.Indexer.IndexRoot(cmd.Context(), c, absPath, renderer.UpdateProgress)
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

func containsRoot(roots []string, path string) bool {
	for _, r := range roots {
		if r == path {
			return true
		}
	}
	return false
}
