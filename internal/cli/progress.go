package cli

import (
	"fmt"
	"io"

	"lector-reader/internal/domain"

	"github.com/spf13/cobra"
)

func newProgressCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show or change reading progress",
	}

	cmd.AddCommand(newProgressShowCmd(opts))
	cmd.AddCommand(newProgressResetCmd(opts))
	cmd.AddCommand(newProgressDashboardCmd(opts))

	return cmd
}

func newProgressShowCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <document-id>",
		Short: "Show how far you got in a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			api, err := opts.api()
			if err != nil {
				return err
			}

			progress, err := api.GetProgress(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get progress: %w", err)
			}
			view := newProgressView(progress)
			return render(cmd.OutOrStdout(), format, view, func(w io.Writer) { writeProgress(w, view) })
		},
	}

	return cmd
}

func newProgressResetCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset <document-id>",
		Short: "Start a document over from the first page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			api, err := opts.api()
			if err != nil {
				return err
			}

			page, percent, location := 1, 0.0, "0"
			progress, err := api.UpdateProgress(cmd.Context(), args[0], domain.ProgressPatch{
				CurrentPage: &page,
				Percent:     &percent,
				Location:    &location,
			})
			if err != nil {
				return fmt.Errorf("reset progress: %w", err)
			}
			view := newProgressView(progress)
			return render(cmd.OutOrStdout(), format, view, func(w io.Writer) { writeProgress(w, view) })
		},
	}

	return cmd
}

func newProgressDashboardCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show what you are reading, what you finished and your streak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			api, err := opts.api()
			if err != nil {
				return err
			}

			dashboard, err := api.Dashboard(cmd.Context())
			if err != nil {
				return fmt.Errorf("get dashboard: %w", err)
			}
			view := newDashboardView(dashboard)
			return render(cmd.OutOrStdout(), format, view, func(w io.Writer) { writeDashboard(w, view) })
		},
	}

	return cmd
}
