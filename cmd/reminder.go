package cmd

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/bnema/claude-voice/internal/application"
	"github.com/bnema/claude-voice/internal/domain"
	"github.com/spf13/cobra"
)

func newReminderCmd(app *app) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "reminder",
		Short: "Periodic voice reminders for a project",
	}

	cmd.PersistentFlags().StringVar(&project, "project", "", "Project directory (default: working directory)")

	cmd.AddCommand(
		newReminderCheckCmd(app, &project),
		newReminderRemindCmd(app, &project),
		newReminderStatusCmd(app, &project),
		newReminderToggleCmd(app, &project, "enable", true),
		newReminderToggleCmd(app, &project, "disable", false),
		newReminderIntervalCmd(app, &project),
		newReminderStartCmd(app, &project),
	)

	return cmd
}

func newReminderCheckCmd(app *app, project *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Send a reminder if one is due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectPath, err := app.projectDir(*project)
			if err != nil {
				return err
			}

			check, err := app.reminders.Check(cmd.Context(), projectPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case check.Reminded:
				writeReminder(out, cmd.ErrOrStderr(), check.Reminder)
			case check.Remaining > 0:
				minutes := int(math.Ceil(check.Remaining.Minutes()))
				_, _ = fmt.Fprintf(out, "Next reminder in %d %s\n", minutes, pluralize(minutes, "minute"))
			default:
				_, _ = fmt.Fprintln(out, "Reminders are disabled")
			}
			return nil
		},
	}
}

func newReminderRemindCmd(app *app, project *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remind [message]",
		Short: "Send a reminder now",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectPath, err := app.projectDir(*project)
			if err != nil {
				return err
			}

			reminder, err := app.reminders.Remind(cmd.Context(), projectPath, strings.TrimSpace(strings.Join(args, " ")))
			if err != nil {
				return err
			}

			writeReminder(cmd.OutOrStdout(), cmd.ErrOrStderr(), reminder)
			return nil
		},
	}
}

func newReminderStatusCmd(app *app, project *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the reminder settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectPath, err := app.projectDir(*project)
			if err != nil {
				return err
			}

			cfg, err := app.reminders.Status(cmd.Context(), projectPath)
			if err != nil {
				return err
			}

			writeReminderConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
}

func newReminderToggleCmd(app *app, project *string, use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: strings.ToUpper(use[:1]) + use[1:] + " reminders for the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectPath, err := app.projectDir(*project)
			if err != nil {
				return err
			}

			if _, err := app.reminders.SetEnabled(cmd.Context(), projectPath, enabled); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Reminders %sd\n", use)
			return err
		},
	}
}

func newReminderIntervalCmd(app *app, project *string) *cobra.Command {
	return &cobra.Command{
		Use:   "interval <minutes>",
		Short: "Set the reminder interval in minutes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			minutes, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q", application.ErrInvalidInterval, args[0])
			}

			projectPath, err := app.projectDir(*project)
			if err != nil {
				return err
			}

			cfg, err := app.reminders.SetInterval(cmd.Context(), projectPath, minutes)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Reminder interval set to %s\n", cfg.Interval)
			return err
		},
	}
}

func newReminderStartCmd(app *app, project *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the reminder loop in the foreground until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectPath, err := app.projectDir(*project)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Reminder loop running for %s (Ctrl+C to stop)\n",
				domain.Instance{ProjectPath: projectPath}.ProjectName())

			return app.reminders.Run(ctx, projectPath, func(reminder application.Reminder) {
				writeReminder(out, cmd.ErrOrStderr(), reminder)
			})
		},
	}
}

func writeReminder(out io.Writer, errOut io.Writer, reminder application.Reminder) {
	_, _ = fmt.Fprintf(out, "Reminder #%d sent: %s\n", reminder.Count, reminder.Message)
	if reminder.Result.Err != nil {
		_, _ = fmt.Fprintf(errOut, "warning: reminder not delivered: %v\n", reminder.Result.Err)
	}
}

func writeReminderConfig(out io.Writer, cfg domain.ReminderConfig) {
	state := "disabled"
	if cfg.Enabled {
		state = "enabled"
	}
	last := "never"
	next := "now"
	if !cfg.LastReminder.IsZero() {
		last = cfg.LastReminder.Local().Format(time.DateTime)
		next = cfg.NextAt().Local().Format(time.DateTime)
	}
	if !cfg.Enabled {
		next = "-"
	}

	_, _ = fmt.Fprintf(out, "reminders: %s\n", state)
	_, _ = fmt.Fprintf(out, "interval: %s\n", cfg.Interval)
	_, _ = fmt.Fprintf(out, "sent: %d\n", cfg.ReminderCount)
	_, _ = fmt.Fprintf(out, "last: %s\n", last)
	_, _ = fmt.Fprintf(out, "next: %s\n", next)
	_, _ = fmt.Fprintf(out, "auto remind on start: %t\n", cfg.AutoRemindOnStart)
}
