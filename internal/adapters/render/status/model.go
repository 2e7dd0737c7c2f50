package status

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final status model type")

type overviewReadyMsg struct{}

// overviewModel renders the overview exactly once and quits. The program
// runs without input and with discarded output; only View is kept.
type overviewModel struct {
	overview Overview
	opts     RenderOptions
	styles   styles
	output   string
}

func newOverviewModel(overview Overview, opts RenderOptions) overviewModel {
	return overviewModel{
		overview: overview,
		opts:     opts,
		styles:   newStyles(),
	}
}

func (m overviewModel) Init() tea.Cmd {
	return func() tea.Msg {
		return overviewReadyMsg{}
	}
}

func (m overviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.opts.Width = msg.Width
		return m, nil
	case overviewReadyMsg:
		m.output = fitWidth(renderView(m.overview, m.opts, m.styles), m.opts.Width)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m overviewModel) View() string {
	return m.output
}

// fitWidth truncates every line to width cells. Zero leaves the view as is.
func fitWidth(view string, width int) string {
	if width <= 0 {
		return view
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(view)
}

// Render draws the overview for a terminal opts.Width cells wide.
func Render(overview Overview, opts RenderOptions) (string, error) {
	p := tea.NewProgram(
		newOverviewModel(overview, opts),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(overviewModel)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
