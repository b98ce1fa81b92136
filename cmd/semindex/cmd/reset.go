package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop every indexed entry from a container without deleting it",
		Long: `Reset clears a container's fragments, vectors, and lexical entries
while leaving its registry record and root list intact. Run 'semindex
index' or 'semindex reindex' afterward to rebuild it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("reset is destructive; re-run with --yes to confirm")
			}

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

			ctx := cmd.Context()
			if err := c.Fragments().Clear(ctx); err != nil {
				return fmt.Errorf("clear fragments: %w", err)
			}
			if ids := c.Vectors().AllIDs(); len(ids) > 0 {
				if err := c.Vectors().Delete(ctx, ids); err != nil {
					return fmt.Errorf("clear vectors: %w", err)
				}
			}
			lexIDs, err := c.Lexical().AllIDs()
			if err != nil {
				return fmt.Errorf("list lexical entries: %w", err)
			}
			if len(lexIDs) > 0 {
				if err := c.Lexical().Delete(ctx, lexIDs); err != nil {
					return fmt.Errorf("clear lexical index: %w", err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s reset.\n", c.Name())
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the destructive reset")
	return cmd
}
