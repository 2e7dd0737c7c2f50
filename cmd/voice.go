package cmd

import (
	"fmt"
	"strings"

	"github.com/bnema/claude-voice/internal/application"
	"github.com/bnema/claude-voice/internal/domain"
	"github.com/spf13/cobra"
)

func newEnableVoiceCmd(app *app) *cobra.Command {
	return newVoiceToggleCmd(app, "enable-voice", "Enable voice notifications for an instance", true)
}

func newDisableVoiceCmd(app *app) *cobra.Command {
	return newVoiceToggleCmd(app, "disable-voice", "Disable voice notifications for an instance", false)
}

func newVoiceToggleCmd(app *app, use string, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id-prefix>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toggle, err := app.voice.SetByPrefix(cmd.Context(), args[0], enabled)
			if err != nil {
				return err
			}

			if toggle.ProjectErr != nil {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: project voice config not updated: %v\n", toggle.ProjectErr)
			}

			state := "disabled"
			if toggle.Enabled {
				state = "enabled"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Voice notifications %s for %s (%s)\n",
				state, toggle.Instance.ProjectName(), toggle.Instance.ID)
			return err
		},
	}
}

func newNotifyCmd(app *app) *cobra.Command {
	var emotion string
	var instancePrefix string
	var project string

	cmd := &cobra.Command{
		Use:   "notify <message>",
		Short: "Hand a notification to the voice daemon",
		Long:  "notify stages a request for the voice daemon. When staging fails the message is spoken locally instead.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			message := strings.TrimSpace(strings.Join(args, " "))
			if message == "" {
				return fmt.Errorf("notify: message is empty")
			}

			projectPath, err := app.projectDir(project)
			if err != nil {
				return err
			}
			if !app.voice.Allowed(ctx, projectPath) {
				_, err := fmt.Fprintf(cmd.ErrOrStderr(), "Voice notifications are disabled for %s\n",
					domain.Instance{ProjectPath: projectPath}.ProjectName())
				return err
			}

			var result application.SendResult
			if instancePrefix != "" {
				id, err := resolveInstance(cmd, app, instancePrefix)
				if err != nil {
					return err
				}
				result = app.router.SendToInstance(ctx, id, message, domain.Emotion(emotion))
			} else {
				result = app.router.Send(ctx, message, domain.Emotion(emotion), "cli")
			}

			if result.Err != nil {
				return fmt.Errorf("notify: %w", result.Err)
			}
			return writeSendResult(cmd, result)
		},
	}

	cmd.Flags().StringVarP(&emotion, "emotion", "e", string(domain.EmotionGentle), "Emotion: gentle, urgent, excited, worried or thinking")
	cmd.Flags().StringVar(&instancePrefix, "instance", "", "Attribute the notification to this instance (id prefix)")
	cmd.Flags().StringVar(&project, "project", "", "Project directory whose voice setting applies (default: working directory)")

	return cmd
}

func writeSendResult(cmd *cobra.Command, result application.SendResult) error {
	switch {
	case result.Staged:
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "Notification staged for the daemon")
		return err
	case result.FallbackUsed:
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "Daemon unreachable, delivered locally")
		return err
	default:
		return nil
	}
}
