package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newRefreshCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Re-probe every instance and update its cached status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var active int
			err := runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), "Probing instances...", func(ctx context.Context) error {
				active = len(app.registry.ListActive(ctx))
				return nil
			})
			if err != nil {
				return err
			}

			total := len(app.registry.All(cmd.Context()))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d active %s (%d registered)\n", active, pluralize(active, "instance"), total)
			return err
		},
	}
}
