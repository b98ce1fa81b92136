// Package cmd provides the CLI commands for semindex.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aman-cerp/semindex/internal/logging"
	"github.com/aman-cerp/semindex/pkg/version"
)

var (
	debugMode      bool
	containerFlag  string
	loggingCleanup func()
)

// NewRootCmd creates the root command for semindex.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "semindex",
		Short: "Local-first semantic file index",
		Long: `semindex indexes a directory into a hybrid semantic and lexical
index and serves search, annotation, and container-management operations
over the CLI or the Model Context Protocol.

Run 'semindex index' once in a project, then 'semindex search <query>' or
'semindex serve' to expose it to an AI assistant.`,
		Version: version.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cmd.Help()
			}
			return runSmartDefault(cmd)
		},
	}

	cmd.SetVersionTemplate("semindex version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging to ~/.semindex/logs/")
	cmd.PersistentFlags().StringVar(&containerFlag, "container", "", "container to operate on; defaults to the active container")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newReindexCmd())
	cmd.AddCommand(newResetCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newContainersCmd())
	cmd.AddCommand(newAnnotateCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}
	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("set up debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// runSmartDefault indexes the current directory's active container if it
// has never been indexed, then serves it over stdio — the zero-config
// path for editor/assistant integrations that just exec the binary.
func runSmartDefault(cmd *cobra.Command) error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), dir)
	if err != nil {
		return err
	}
	defer a.Close()

	active, err := a.Manager.Active()
	if err != nil {
		return fmt.Errorf("no active container: %w", err)
	}
	if len(active.Roots) == 0 {
		if err := a.Manager.SetRoots(active.Name, []string{dir}); err != nil {
			return fmt.Errorf("bind container root: %w", err)
		}
	}

	c, err := a.Manager.Get(cmd.Context(), active.Name)
	if err != nil {
		return err
	}

	stats, err := c.Fragments().Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("inspect index: %w", err)
	}
	if stats.TotalFiles == 0 {
		slog.Info("index not found, indexing before serving", slog.String("root", dir))
		if _, err := a.Indexer.IndexRoot(cmd.Context(), c, dir, nil); err != nil {
			return fmt.Errorf("index %s: %w", dir, err)
		}
	}

	return serveDeps(cmd.Context(), a)
}
