package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var diffWindows = map[string]time.Duration{
	"30m": 30 * time.Minute,
	"2h":  2 * time.Hour,
	"1d":  24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
}

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report a container's row counts, indexed paths, and provider",
		Args:  cobra.NoArgs,
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

			ctx := cmd.Context()
			stats, err := c.Fragments().Stats(ctx)
			if err != nil {
				return err
			}
			records, err := c.Fragments().ScanFileRecords(ctx)
			if err != nil {
				return err
			}
			paths := make([]string, len(records))
			for i, r := range records {
				paths[i] = r.Path
			}
			provider := c.Provider()

			type statusResponse struct {
				Container     string   `json:"container"`
				TotalFiles    int      `json:"total_files"`
				TotalChunks   int      `json:"total_chunks"`
				IndexedPaths  []string `json:"indexed_paths"`
				ProviderLabel string   `json:"provider_label"`
			}
			resp := statusResponse{
				Container:     c.Name(),
				TotalFiles:    stats.TotalFiles,
				TotalChunks:   stats.TotalFragments,
				IndexedPaths:  paths,
				ProviderLabel: fmt.Sprintf("%s/%s (dim=%d)", provider.Kind, provider.Model, provider.Dimension),
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d files, %d chunks, provider %s\n",
				resp.Container, resp.TotalFiles, resp.TotalChunks, resp.ProviderLabel)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output status as JSON")
	cmd.AddCommand(newStatusDiffCmd())
	return cmd
}

func newStatusDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <window>",
		Short: "List paths whose file record changed recently",
		Long:  `window is one of 30m, 2h, 1d, 7d.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dur, ok := diffWindows[args[0]]
			if !ok {
				return fmt.Errorf("window must be one of 30m, 2h, 1d, 7d, got %q", args[0])
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

			records, err := c.Fragments().ScanFileRecords(cmd.Context())
			if err != nil {
				return err
			}
			cutoff := time.Now().Add(-dur)
			for _, r := range records {
				if r.MTime.After(cutoff) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", r.MTime.Format(time.RFC3339), r.Path)
				}
			}
			return nil
		},
	}
	return cmd
}
