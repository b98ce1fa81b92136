package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aman-cerp/semindex/internal/embed"
	"github.com/aman-cerp/semindex/internal/model"
)

func newContainersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "containers",
		Short: "Manage isolated containers",
		Long: `A container is a named, isolated index bound to a single embedding
provider. Containers subcommands list, create, delete, and switch the
active one.`,
	}

	cmd.AddCommand(newContainersListCmd())
	cmd.AddCommand(newContainersCreateCmd())
	cmd.AddCommand(newContainersDeleteCmd())
	cmd.AddCommand(newContainersUseCmd())
	return cmd
}

func newContainersListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every registered container",
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

			containers, err := a.Manager.List()
			if err != nil {
				return err
			}
			for _, c := range containers {
				marker := " "
				if c.Active {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s  (%s/%s)\n", marker, c.Name, c.Provider.Kind, c.Provider.Model)
			}
			return nil
		},
	}
	return cmd
}

func newContainersCreateCmd() *cobra.Command {
	var (
		description    string
		roots          []string
		providerKind   string
		providerModel  string
		providerDims   int
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new container",
		Long: `Without --provider-kind, the new container snapshots the active
container's embedding provider so it stays query-compatible by default.`,
		Args: cobra.ExactArgs(1),
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

			provider, err := resolveProviderFlag(a, providerKind, providerModel, providerDims)
			if err != nil {
				return err
			}

			c, err := a.Manager.Create(cmd.Context(), args[0], description, provider, roots)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(c.Record())
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "human-readable description")
	cmd.Flags().StringSliceVar(&roots, "root", nil, "initial root directory (repeatable)")
	cmd.Flags().StringVar(&providerKind, "provider-kind", "", "'local' or 'remote'; omit to snapshot the active container's provider")
	cmd.Flags().StringVar(&providerModel, "provider-model", "", "embedding model identifier")
	cmd.Flags().IntVar(&providerDims, "provider-dimension", 0, "embedding vector dimension")
	return cmd
}

// resolveProviderFlag mirrors mcpserver's resolveProvider: explicit flags
// win, otherwise the active container's provider is snapshotted.
func resolveProviderFlag(a *app, kind, modelName string, dims int) (model.ProviderIdentity, error) {
	if kind == "" {
		active, err := a.Manager.Active()
		if err != nil {
			return model.ProviderIdentity{}, err
		}
		return active.Provider, nil
	}
	if modelName == "" {
		modelName = embed.DefaultLocalModelName
	}
	if dims == 0 {
		dims = embed.DefaultLocalDimensions
	}
	return model.ProviderIdentity{
		Kind:      model.ProviderKind(kind),
		Model:     modelName,
		Dimension: dims,
	}, nil
}

func newContainersDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a container and all of its stored data",
		Long:  `Refuses to delete the Default container.`,
		Args:  cobra.ExactArgs(1),
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
			return a.Manager.Delete(args[0])
		},
	}
	return cmd
}

func newContainersUseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use <name>",
		Short: "Set the active container",
		Args:  cobra.ExactArgs(1),
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
			return a.Manager.SetActive(args[0])
		},
	}
	return cmd
}
