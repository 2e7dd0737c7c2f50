package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/claude-voice/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Overview is everything the status screen shows.
type Overview struct {
	Mode          domain.ModeConfig
	DaemonRunning bool
	SpeechBackend string
	Pending       *domain.NotificationRequest
	Instances     []InstanceRow
}

type InstanceRow struct {
	Instance domain.Instance
	Active   bool
	Selected bool
}

type RenderOptions struct {
	Now       time.Time
	Staleness time.Duration

	// Width caps every line at this many cells; zero means unlimited.
	Width int
}

const freshnessBarWidth = 20

func renderView(overview Overview, opts RenderOptions, s styles) string {
	active := 0
	for _, row := range overview.Instances {
		if row.Active {
			active++
		}
	}

	lines := []string{
		s.title.Render(fmt.Sprintf("%s voice notifications", assistantName(overview.Mode))),
		s.header.Render(fmt.Sprintf("instances: %d (active: %d)", len(overview.Instances), active)),
		s.header.Render(fmt.Sprintf("mode: %s", modeLabel(overview.Mode.Mode))),
		s.header.Render(fmt.Sprintf("daemon: %s", daemonLabel(overview.DaemonRunning))),
	}
	if overview.SpeechBackend != "" {
		lines = append(lines, s.header.Render(fmt.Sprintf("local fallback: %s", overview.SpeechBackend)))
	}
	if overview.Pending != nil {
		lines = append(lines, s.warning.Render(fmt.Sprintf("pending: %q (%s)", overview.Pending.Message, overview.Pending.Emotion.OrDefault())))
	}

	if len(overview.Instances) == 0 {
		lines = append(lines, s.section.Render(s.empty.Render("No registered instances.")))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, row := range overview.Instances {
		lines = append(lines, s.section.Render(renderInstance(row, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderInstance(row InstanceRow, opts RenderOptions, s styles) string {
	instance := row.Instance

	titleStyle := s.instance
	marker := "  "
	if row.Selected {
		titleStyle = s.selected
		marker = "▶ "
	}
	if !row.Active {
		titleStyle = s.muted
	}

	title := titleStyle.Render(fmt.Sprintf("%s%s (%s)", marker, instance.ProjectName(), instance.ID))

	state := "inactive"
	if row.Active {
		state = "active"
	}
	voice := "on"
	if !instance.VoiceEnabled {
		voice = "off"
	}

	details := s.detail.Render(fmt.Sprintf("pid %d · %s · voice %s · %s", instance.ProcessID, state, voice, instance.ProjectPath))

	return lipgloss.JoinVertical(lipgloss.Left, title, details, freshnessLine(instance, opts, s))
}

func freshnessLine(instance domain.Instance, opts RenderOptions, s styles) string {
	label := s.label.Render("freshness:")
	if opts.Now.IsZero() || instance.LastActiveAt.IsZero() {
		return label + " " + s.detail.Render("unknown")
	}

	window := opts.Staleness
	if window <= 0 {
		window = domain.DefaultStalenessWindow
	}

	age := opts.Now.Sub(instance.LastActiveAt)
	if age < 0 {
		age = 0
	}
	left := 100 * (1 - age.Seconds()/window.Seconds())
	left = clampPercent(left)

	bar := renderProgressBar(left, freshnessBarWidth, s)
	meta := lipgloss.NewStyle().Foreground(interpolateColor(left, 0, 100)).Render(formatAge(age))

	line := lipgloss.JoinHorizontal(lipgloss.Top, label, " ", bar, " ", meta)
	if !instance.IsFresh(opts.Now, window) {
		line += " " + s.warning.Render("[stale]")
	}
	return line
}

func renderProgressBar(leftPercent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(leftPercent) / 100))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func formatAge(age time.Duration) string {
	switch {
	case age < time.Minute:
		return "active just now"
	case age < time.Hour:
		minutes := int(age.Minutes())
		return fmt.Sprintf("active %d %s ago", minutes, plural(minutes, "minute"))
	case age < 24*time.Hour:
		hours := int(age.Hours())
		return fmt.Sprintf("active %d %s ago", hours, plural(hours, "hour"))
	default:
		days := int(age.Hours() / 24)
		return fmt.Sprintf("active %d %s ago", days, plural(days, "day"))
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func assistantName(cfg domain.ModeConfig) string {
	if strings.TrimSpace(cfg.AssistantName) == "" {
		return domain.DefaultAssistantName
	}
	return cfg.AssistantName
}

func modeLabel(mode domain.Mode) string {
	if mode == "" {
		return domain.ModeNormal.Description()
	}
	return mode.Description()
}

func daemonLabel(running bool) string {
	if running {
		return "running"
	}
	return "not running (requests wait in the staging slot)"
}

// interpolateColor fades from grey 240 at min to white 255 at max.
func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	return lipgloss.Color(fmt.Sprintf("%d", int(240+15*normalized)))
}
