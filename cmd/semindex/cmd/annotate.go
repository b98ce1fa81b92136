package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aman-cerp/semindex/internal/model"
	"github.com/aman-cerp/semindex/internal/store"
)

func newAnnotateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Attach and manage notes on indexed paths",
		Long: `Annotations attach free-text notes to a path. A note is embedded and
indexed the same way a file fragment is, so it surfaces in search results
alongside the code or document it comments on.`,
	}

	cmd.AddCommand(newAnnotateAddCmd())
	cmd.AddCommand(newAnnotateDeleteCmd())
	cmd.AddCommand(newAnnotateListCmd())
	return cmd
}

func newAnnotateAddCmd() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "add <path> <note>",
		Short: "Attach a note to a path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, note := args[0], args[1]
			if source == "" {
				source = string(model.AnnotationSourceUser)
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
			ann := &model.Annotation{
				ID:        uuid.NewString(),
				Path:      path,
				Source:    model.AnnotationSource(source),
				Note:      note,
				CreatedAt: time.Now(),
			}

			vector, err := c.Embedder().Embed(ctx, note)
			if err != nil {
				return fmt.Errorf("embed annotation: %w", err)
			}
			pseudoPath := model.AnnotationPseudoPath(ann.ID)
			if err := c.Vectors().Add(ctx, []string{pseudoPath}, [][]float32{vector}); err != nil {
				return err
			}
			if err := c.Lexical().Index(ctx, []*store.Document{{ID: pseudoPath, Content: note}}); err != nil {
				return err
			}
			if err := c.Fragments().UpsertAnnotation(ctx, ann); err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(ann)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "'user' or 'agent' (default 'user')")
	return cmd
}

func newAnnotateDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an annotation and its indexed entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

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
			pseudoPath := model.AnnotationPseudoPath(id)
			if err := c.Vectors().Delete(ctx, []string{pseudoPath}); err != nil {
				return err
			}
			if err := c.Lexical().Delete(ctx, []string{pseudoPath}); err != nil {
				return err
			}
			return c.Fragments().DeleteAnnotation(ctx, id)
		},
	}
	return cmd
}

func newAnnotateListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <path>",
		Short: "List annotations attached to a path",
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

			c, err := a.resolveContainer(cmd.Context(), containerFlag)
			if err != nil {
				return err
			}

			annotations, err := c.Fragments().GetAnnotationsByPath(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(annotations)
		},
	}
	return cmd
}
