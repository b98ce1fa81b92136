package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aman-cerp/semindex/internal/mcpserver"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve search, index, container, and annotation tools over MCP",
		Long: `Serve exposes every indexing, search, container, and annotation
operation as a Model Context Protocol tool over stdio, for AI assistants
and editor integrations to call directly.`,
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
			return serveDeps(cmd.Context(), a)
		},
	}
	return cmd
}

// serveDeps starts the MCP server over the already-built app and blocks
// until it shuts down.
func serveDeps(ctx context.Context, a *app) error {
	srv, err := mcpserver.NewServer(mcpserver.Deps{
		Manager: a.Manager,
		Indexer: a.Indexer,
		Engine:  a.Engine,
	}, slog.Default())
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}
