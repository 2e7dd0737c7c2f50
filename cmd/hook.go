package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/bnema/claude-voice/internal/application"
	"github.com/bnema/claude-voice/internal/logging"
	"github.com/spf13/cobra"
)

const (
	envTerminalSession = "TERM_SESSION_ID"
	envToolResult      = "CLAUDE_TOOL_RESULT"

	maxToolOutputBytes = 1 << 20
)

var hookLog = logging.ForComponent(logging.CompHooks)

// newHookCmd groups the entry points the assistant host calls. Hooks never
// fail: problems are logged and the exit status stays 0.
func newHookCmd(app *app) *cobra.Command {
	var pid int

	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Lifecycle hooks invoked by the assistant host",
	}

	cmd.PersistentFlags().IntVar(&pid, "pid", 0, "Process id of the calling instance (default: parent process)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "session-start [project]",
			Short: "Register the calling instance and announce the session",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				project := ""
				if len(args) == 1 {
					project = args[0]
				}
				env, ok := hookEnv(app, pid, project)
				if !ok {
					return nil
				}

				id, result := app.hooks.SessionStart(cmd.Context(), env)
				logSendResult("session_start", result)
				if id != "" {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "user-submit",
			Short: "Record activity for the instance working in this directory",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				env, ok := hookEnv(app, pid, "")
				if !ok {
					return nil
				}
				if id := app.hooks.UserSubmit(cmd.Context(), env); id != "" {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "tool-result",
			Short: "Notify when a tool result reports an error or asks for help",
			Long:  "tool-result reads the tool output from $" + envToolResult + ", or from stdin when the variable is unset.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				env, ok := hookEnv(app, pid, "")
				if !ok {
					return nil
				}

				output := readToolOutput(cmd.InOrStdin())
				result, attempted := app.hooks.ToolResult(cmd.Context(), env, output)
				if attempted {
					logSendResult("tool_result", result)
				}
				return nil
			},
		},
	)

	return cmd
}

func hookEnv(app *app, pid int, project string) (application.HookEnv, bool) {
	projectPath, err := app.projectDir(project)
	if err != nil {
		hookLog.Warn("hook_project_unresolved", slog.String("error", err.Error()))
		return application.HookEnv{}, false
	}
	if pid <= 0 {
		pid = app.parentPID()
	}
	host, err := app.hostname()
	if err != nil {
		hookLog.Debug("hostname_unavailable", slog.String("error", err.Error()))
	}

	return application.HookEnv{
		Host:            host,
		ProcessID:       pid,
		ProjectPath:     projectPath,
		TerminalSession: os.Getenv(envTerminalSession),
	}, true
}

func readToolOutput(stdin io.Reader) string {
	if value, ok := os.LookupEnv(envToolResult); ok {
		return value
	}
	if isTerminal(stdin) {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(stdin, maxToolOutputBytes))
	if err != nil {
		hookLog.Debug("tool_output_read_failed", slog.String("error", err.Error()))
	}
	return strings.TrimSpace(string(data))
}

func logSendResult(hook string, result application.SendResult) {
	if result.Err != nil {
		hookLog.Warn("hook_notification_failed", slog.String("hook", hook), slog.String("error", result.Err.Error()))
		return
	}
	hookLog.Debug("hook_notification_sent",
		slog.String("hook", hook),
		slog.Bool("staged", result.Staged),
		slog.Bool("fallback", result.FallbackUsed),
	)
}
