package cli

import (
	"fmt"
	"io"

	"lector-reader/internal/domain"

	"github.com/spf13/cobra"
)

func newHighlightsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "highlights",
		Aliases: []string{"hl", "annotations"},
		Short:   "Manage your highlights and underlines",
		Long:    `List, annotate and remove the highlights and underlines saved on your documents.`,
	}

	cmd.AddCommand(newHighlightsListCmd(opts))
	cmd.AddCommand(newHighlightsNoteCmd(opts))
	cmd.AddCommand(newHighlightsDeleteCmd(opts))

	return cmd
}

func newHighlightsListCmd(opts *options) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "list <document-id>",
		Short: "List the annotations of a document",
		Long: `List the annotations of a document in page order.

Examples:
  lector highlights list 9f1c2e
  lector highlights list 9f1c2e --page 12 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			api, err := opts.api()
			if err != nil {
				return err
			}

			list, err := api.ListAnnotations(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("list annotations: %w", err)
			}
			if page > 0 {
				kept := list[:0]
				for _, a := range list {
					if a.PageNumber == page {
						kept = append(kept, a)
					}
				}
				list = kept
			}

			views := newAnnotationViews(list)
			return render(cmd.OutOrStdout(), format, views, func(w io.Writer) { writeAnnotations(w, views) })
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 0, "only show annotations on this page")

	return cmd
}

func newHighlightsNoteCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note <annotation-id> [text]",
		Short: "Attach a note to an annotation",
		Long: `Attach a note to an annotation. Without text the note is removed.

Examples:
  lector highlights note 3b7f "compare with chapter 2"
  lector highlights note 3b7f`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			api, err := opts.api()
			if err != nil {
				return err
			}

			note := ""
			if len(args) == 2 {
				note = args[1]
			}
			updated, err := api.UpdateAnnotation(cmd.Context(), args[0], domain.AnnotationPatch{Note: &note})
			if err != nil {
				return fmt.Errorf("update annotation: %w", err)
			}

			view := newAnnotationView(updated)
			return render(cmd.OutOrStdout(), format, view, func(w io.Writer) {
				if view.Note == "" {
					fmt.Fprintf(w, "Removed the note from %s.\n", view.ID)
					return
				}
				fmt.Fprintf(w, "Noted %s.\n", view.ID)
			})
		},
	}

	return cmd
}

func newHighlightsDeleteCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <annotation-id>",
		Aliases: []string{"rm"},
		Short:   "Delete an annotation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := opts.api()
			if err != nil {
				return err
			}
			if err := api.DeleteAnnotation(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete annotation: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", args[0])
			return nil
		},
	}

	return cmd
}
