package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	tableadapter "github.com/bnema/claude-voice/internal/adapters/render/table"
	"github.com/bnema/claude-voice/internal/domain"
	"github.com/spf13/cobra"
)

type instanceView struct {
	ID           domain.InstanceID `json:"id"`
	PID          int               `json:"pid"`
	ProjectPath  string            `json:"project_path"`
	Terminal     string            `json:"terminal,omitempty"`
	LastActive   time.Time         `json:"last_active"`
	Status       string            `json:"status"`
	VoiceEnabled bool              `json:"voice_enabled"`
	Active       bool              `json:"active"`
}

func newListCmd(app *app) *cobra.Command {
	var all bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active instances, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			active := app.selector.Active(ctx)

			rows := make([]instanceView, 0, len(active))
			for _, instance := range active {
				rows = append(rows, toInstanceView(instance, true))
			}

			if all {
				activeIDs := make(map[domain.InstanceID]struct{}, len(active))
				for _, instance := range active {
					activeIDs[instance.ID] = struct{}{}
				}

				var rest []domain.Instance
				for id, instance := range app.registry.All(ctx) {
					if _, ok := activeIDs[id]; !ok {
						rest = append(rest, instance)
					}
				}
				sort.Slice(rest, func(i, j int) bool { return rest[i].MoreRecentThan(rest[j]) })
				for _, instance := range rest {
					rows = append(rows, toInstanceView(instance, false))
				}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			return writeInstanceTable(cmd.OutOrStdout(), rows, app.now())
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include stale and dead instances")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output instances as JSON")

	return cmd
}

func toInstanceView(instance domain.Instance, active bool) instanceView {
	status := string(instance.Status)
	if status == "" {
		status = string(domain.InstanceStatusActive)
	}
	return instanceView{
		ID:           instance.ID,
		PID:          instance.ProcessID,
		ProjectPath:  instance.ProjectPath,
		Terminal:     instance.TerminalSession,
		LastActive:   instance.LastActiveAt,
		Status:       status,
		VoiceEnabled: instance.VoiceEnabled,
		Active:       active,
	}
}

func writeInstanceTable(w io.Writer, rows []instanceView, now time.Time) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No active instances.")
		return err
	}

	cells := make([][]string, 0, len(rows))
	for i, row := range rows {
		voice := "on"
		if !row.VoiceEnabled {
			voice = "off"
		}
		state := row.Status
		if !row.Active {
			state = "stale"
			if row.Status == string(domain.InstanceStatusInactive) {
				state = "inactive"
			}
		}
		cells = append(cells, []string{
			strconv.Itoa(i + 1),
			string(row.ID),
			strconv.Itoa(row.PID),
			domain.Instance{ProjectPath: row.ProjectPath}.ProjectName(),
			voice,
			state,
			formatSince(now, row.LastActive),
		})
	}

	rendered := tableadapter.Render(
		[]string{"#", "ID", "PID", "PROJECT", "VOICE", "STATE", "LAST ACTIVE"},
		cells,
		[]tableadapter.Alignment{tableadapter.AlignRight, tableadapter.AlignLeft, tableadapter.AlignRight},
	)
	_, err := fmt.Fprintln(w, rendered)
	return err
}

func formatSince(now time.Time, at time.Time) string {
	if at.IsZero() {
		return "never"
	}
	age := now.Sub(at)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return at.Local().Format("2006-01-02 15:04")
	}
}

// resolveInstance maps a user-supplied prefix onto one registered id.
func resolveInstance(cmd *cobra.Command, app *app, prefix string) (domain.InstanceID, error) {
	id, err := app.registry.ResolvePrefix(cmd.Context(), prefix)
	if err != nil {
		return "", err
	}
	return id, nil
}

func newRegisterCmd(app *app) *cobra.Command {
	var pid int
	var project string
	var terminal string
	var voiceOff bool

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register an instance and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectPath, err := app.projectDir(project)
			if err != nil {
				return err
			}
			if pid <= 0 {
				pid = app.parentPID()
			}
			host, _ := app.hostname()

			id := domain.NewInstanceID(host, pid, app.now())
			metadata := domain.InstanceMetadata{
				ProcessID:       pid,
				ProjectPath:     projectPath,
				TerminalSession: terminal,
			}
			if voiceOff {
				disabled := false
				metadata.VoiceEnabled = &disabled
			}

			if outcome := app.registry.Register(cmd.Context(), id, metadata); outcome.Err != nil {
				return outcome.Err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		},
	}

	cmd.Flags().IntVar(&pid, "pid", 0, "Process id of the instance (default: parent process)")
	cmd.Flags().StringVar(&project, "project", "", "Project directory (default: working directory)")
	cmd.Flags().StringVar(&terminal, "terminal", "", "Terminal session identifier")
	cmd.Flags().BoolVar(&voiceOff, "no-voice", false, "Register with voice notifications disabled")

	return cmd
}

func newUnregisterCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unregister <id-prefix>",
		Short: "Remove an instance from the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveInstance(cmd, app, args[0])
			if err != nil {
				return err
			}

			if outcome := app.registry.Unregister(cmd.Context(), id); outcome.Err != nil {
				return outcome.Err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Unregistered %s\n", id)
			return err
		},
	}
}

func newTouchCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "touch <id-prefix>",
		Short: "Mark an instance as active now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveInstance(cmd, app, args[0])
			if err != nil {
				return err
			}
			return app.registry.Touch(cmd.Context(), id).Err
		},
	}
}

func newSelectCmd(app *app) *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Print the id of the instance notifications should target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				instance domain.Instance
				ok       bool
			)
			if interactive {
				instance, ok = app.selector.ChooseInteractive(cmd.Context(), cmd.InOrStdin(), cmd.ErrOrStderr())
			} else {
				instance, ok = app.selector.MostRecent(cmd.Context())
			}
			if !ok {
				return fmt.Errorf("select instance: %w", errNoActiveInstances)
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), instance.ID)
			return err
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Prompt when several instances are active")

	return cmd
}

func newPruneCmd(app *app) *cobra.Command {
	var staleness time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete stale instances whose process has exited",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if staleness <= 0 {
				staleness = app.registry.Staleness()
			}

			removed, outcome := app.registry.Prune(cmd.Context(), staleness)
			if outcome.Err != nil {
				return outcome.Err
			}

			out := cmd.OutOrStdout()
			for _, id := range removed {
				_, _ = fmt.Fprintf(out, "Removed %s\n", id)
			}
			_, err := fmt.Fprintf(out, "Pruned %d %s\n", len(removed), pluralize(len(removed), "instance"))
			return err
		},
	}

	cmd.Flags().DurationVar(&staleness, "staleness", 0, "Inactivity window (default: registry.staleness)")

	return cmd
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return noun
	}
	return noun + "s"
}
