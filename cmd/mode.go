package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newModeCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:       "mode [normal|silent|sleep]",
		Short:     "Show or set the daemon delivery mode",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"normal", "silent", "sleep"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				current := app.modes.Current(cmd.Context())
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "mode: %s\nassistant: %s\n", current.Mode.Description(), current.AssistantName)
				return err
			}

			mode, err := app.modes.Set(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Mode set to %s\n", mode.Description())
			return err
		},
	}
}
