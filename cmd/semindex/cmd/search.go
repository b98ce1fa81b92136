package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aman-cerp/semindex/internal/model"
	"github.com/aman-cerp/semindex/internal/search"
)

func newSearchCmd() *cobra.Command {
	var (
		limit        int
		extAllow     []string
		pathPrefix   string
		minScore     float64
		contextBytes int
		decompose    bool
		classify     bool
		jsonOutput   bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search a container's indexed content",
		Long: `Search runs the hybrid retrieval pipeline: dense and lexical
candidate generation fused by reciprocal rank fusion, optionally reranked
by a cross-encoder, and returns the top-scoring fragments and
annotations.`,
		Args: cobra.MinimumNArgs(1),
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

			query := model.Query{
				Text:         strings.Join(args, " "),
				ExtAllowList: extAllow,
				PathPrefix:   pathPrefix,
				TopK:         limit,
				MinScore:     minScore,
			}
			opts := search.Options{
				ContextBytes: contextBytes,
				Decompose:    decompose,
				Classify:     classify,
			}

			results, err := a.Engine.Search(cmd.Context(), c, query, opts)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			return printResultsText(cmd, results)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", search.DefaultTopK, "maximum number of results")
	cmd.Flags().StringSliceVar(&extAllow, "ext", nil, "restrict results to these file extensions (repeatable)")
	cmd.Flags().StringVar(&pathPrefix, "path-prefix", "", "restrict results to paths under this prefix")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "drop results scoring below this threshold")
	cmd.Flags().IntVar(&contextBytes, "context-bytes", search.DefaultContextBytes, "maximum snippet length in bytes")
	cmd.Flags().BoolVar(&decompose, "decompose", false, "split complex queries into sub-queries before fusing")
	cmd.Flags().BoolVar(&classify, "classify", false, "bias fusion weights by the query's lexical/semantic shape")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output results as JSON")

	return cmd
}

func printResultsText(cmd *cobra.Command, results []model.Result) error {
	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "no results")
		return nil
	}
	for i, r := range results {
		fmt.Fprintf(out, "%d. %s  (score %.2f)\n", i+1, r.Path, r.Score)
		if r.Snippet != "" {
			fmt.Fprintf(out, "   %s\n", strings.ReplaceAll(r.Snippet, "\n", "\n   "))
		}
	}
	return nil
}
