package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	statusadapter "github.com/bnema/claude-voice/internal/adapters/render/status"
	"github.com/bnema/claude-voice/internal/daemon"
	"github.com/bnema/claude-voice/internal/domain"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show instances, mode and daemon state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			overview := buildOverview(cmd, app)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(overview)
			}

			rendered, err := app.statusRenderer(overview, statusadapter.RenderOptions{
				Now:       app.now(),
				Staleness: app.registry.Staleness(),
				Width:     terminalWidth(cmd.OutOrStdout()),
			})
			if err != nil {
				return fmt.Errorf("render status: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output status as JSON")

	return cmd
}

// terminalWidth returns the column count of out, or zero when out is not a terminal.
func terminalWidth(out io.Writer) int {
	if !isTerminal(out) {
		return 0
	}
	width, _, err := term.GetSize(out.(*os.File).Fd())
	if err != nil {
		return 0
	}
	return width
}

func buildOverview(cmd *cobra.Command, app *app) statusadapter.Overview {
	ctx := cmd.Context()

	active := app.selector.Active(ctx)
	activeIDs := make(map[domain.InstanceID]struct{}, len(active))
	for _, instance := range active {
		activeIDs[instance.ID] = struct{}{}
	}

	all := app.registry.All(ctx)
	instances := make([]domain.Instance, 0, len(all))
	for _, instance := range all {
		instances = append(instances, instance)
	}
	sort.Slice(instances, func(i, j int) bool { return instances[i].MoreRecentThan(instances[j]) })

	rows := make([]statusadapter.InstanceRow, 0, len(instances))
	for _, instance := range instances {
		_, isActive := activeIDs[instance.ID]
		rows = append(rows, statusadapter.InstanceRow{
			Instance: instance,
			Active:   isActive,
			Selected: len(active) > 0 && active[0].ID == instance.ID,
		})
	}

	overview := statusadapter.Overview{
		Mode:      app.modes.Current(ctx),
		Instances: rows,
	}

	if running, err := daemon.Running(app.cfg.DaemonLockPath()); err == nil {
		overview.DaemonRunning = running
	}

	if backend, err := app.speech.Backend(); err == nil {
		overview.SpeechBackend = backend
	} else {
		overview.SpeechBackend = "unavailable"
	}

	if pending, err := app.slot.Peek(ctx); err == nil {
		overview.Pending = &pending
	}

	return overview
}
