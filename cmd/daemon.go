package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/claude-voice/internal/daemon"
	"github.com/bnema/claude-voice/internal/logging"
	"github.com/spf13/cobra"
)

func newDaemonCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Reference consumer for staged notification requests",
	}

	cmd.AddCommand(
		newDaemonRunCmd(app),
		newDaemonStatusCmd(app),
	)

	return cmd
}

func newDaemonRunCmd(app *app) *cobra.Command {
	var withReminder bool
	var project string
	var logStderr bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Deliver staged requests until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if logStderr {
				logging.InitWriter(cmd.ErrOrStderr(), app.cfg.LogLevel)
			}

			consumer := daemon.NewConsumer(app.slot, app.speech, app.modes, daemon.Options{
				SlotPath:      app.cfg.SlotPath(),
				LockPath:      app.cfg.DaemonLockPath(),
				PollInterval:  app.cfg.PollInterval,
				RatePerMinute: app.cfg.RatePerMinute,
			})

			out := cmd.OutOrStdout()
			consumer.OnDelivery(func(d daemon.Delivery) {
				line := fmt.Sprintf("%-9s %-8s %s", d.Action, d.Request.Emotion.OrDefault(), d.Request.Message)
				if d.Err != nil {
					line += fmt.Sprintf(" (%v)", d.Err)
				}
				_, _ = fmt.Fprintln(out, line)
			})

			var extra []func(ctx context.Context) error
			if withReminder {
				projectPath, err := app.projectDir(project)
				if err != nil {
					return err
				}
				extra = append(extra, func(ctx context.Context) error {
					return app.reminders.Run(ctx, projectPath, nil)
				})
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, _ = fmt.Fprintf(out, "Watching %s (mode: %s)\n", app.cfg.SlotPath(), app.modes.Current(ctx).Mode)
			return consumer.Run(ctx, extra...)
		},
	}

	cmd.Flags().BoolVar(&withReminder, "reminder", false, "Also run the reminder loop for --project")
	cmd.Flags().StringVar(&project, "project", "", "Project directory for the reminder loop (default: working directory)")
	cmd.Flags().BoolVar(&logStderr, "log-stderr", false, "Write logs to stderr instead of the log file")

	return cmd
}

func newDaemonStatusCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether a daemon holds the lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			running, err := daemon.Running(app.cfg.DaemonLockPath())
			if err != nil {
				return err
			}

			state := "not running"
			if running {
				state = "running"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "daemon: %s\n", state)
			return err
		},
	}
}
