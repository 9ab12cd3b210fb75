package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newWhoamiCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the account the API token belongs to",
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

			user, err := api.ValidateToken(cmd.Context())
			if err != nil {
				return fmt.Errorf("validate token: %w", err)
			}
			actor, err := api.Actor(cmd.Context())
			if err != nil {
				return fmt.Errorf("identify reader: %w", err)
			}

			view := whoamiView{
				UserID:             user.ID,
				Email:              user.Email,
				RegistrationNumber: actor.RegistrationNumber,
				StaffID:            actor.StaffID,
			}
			return render(cmd.OutOrStdout(), format, view, func(w io.Writer) { writeWhoami(w, view) })
		},
	}

	return cmd
}
