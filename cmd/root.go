package cmd

import (
	"log/slog"

	"github.com/bnema/claude-voice/internal/application"
	"github.com/bnema/claude-voice/internal/logging"
	"github.com/spf13/cobra"
)

var cliLog = logging.ForComponent(logging.CompCLI)

// Execute runs the command tree. Failures other than selection mistakes are
// also written to the log file.
func Execute() error {
	err := newRootCmd().Execute()
	if err != nil && !application.IsUserError(err) {
		cliLog.Error("command_failed", slog.String("error", err.Error()))
	}
	logging.Shutdown()
	return err
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cvoice",
		Short:         "Coordinate voice notifications across assistant sessions",
		Long:          "cvoice keeps a shared registry of running assistant sessions, picks the one you are working with, and hands notification requests to the voice daemon through a staging file, speaking locally when the daemon cannot be reached.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(newVersionCmd())

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newListCmd(app),
		newEnableVoiceCmd(app),
		newDisableVoiceCmd(app),
		newModeCmd(app),
		newRefreshCmd(app),
		newStatusCmd(app),
		newNotifyCmd(app),
		newRegisterCmd(app),
		newUnregisterCmd(app),
		newTouchCmd(app),
		newSelectCmd(app),
		newPruneCmd(app),
		newHookCmd(app),
		newReminderCmd(app),
		newDaemonCmd(app),
		newConfigCmd(app),
	)

	return rootCmd
}
